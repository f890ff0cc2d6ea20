package client

import (
	"github.com/wrenchat/wren/pkg/protocol"
)

// dispatch routes one inbound command to its handler. Consulted only while
// the gate is Authenticated. The union of command kinds is closed; anything
// the decoder didn't recognize arrives as *protocol.Unknown and is logged.
func (c *Client) dispatch(cmd protocol.Command) {
	switch cmd := cmd.(type) {
	case *protocol.ClientUserInfoResponse:
		c.handleSelfInfo(cmd)
	case *protocol.ClientGroupsResponse:
		c.handleClientGroups(cmd)
	case *protocol.GroupAnnounce:
		c.store.UpsertGroup(cmd.GroupInfo)
	case *protocol.GetUserResponse:
		c.handleUsers(cmd)
	case *protocol.GetMemberIDsResponse:
		c.handleMemberIDs(cmd)
	case *protocol.GetAllGroupsResponse:
		c.handleAllGroups(cmd)
	case *protocol.GetGroupMsgsResponse:
		c.handleHistoryPage(cmd)
	case *protocol.GroupMsgBroadcast:
		c.handleLiveMessage(cmd)
	case *protocol.JoinGroupBroadcast:
		c.handleJoin(cmd)
	case *protocol.DeleteMsg:
		c.handleDeleteMsg(cmd)
	case *protocol.DeleteGroup:
		c.handleDeleteGroup(cmd)
	case *protocol.SendAttachmentsResponse:
		c.uploader.Dispatch(cmd.UploadToken)
	case *protocol.EditAccountResponse:
		if cmd.UploadToken != "" {
			c.uploader.DispatchAvatar(cmd.UploadToken)
		}
	case *protocol.GroupCodesResponse:
		c.view.InviteCodes(cmd.GroupID, cmd.Codes)
	case *protocol.RTUSM:
		c.store.ApplyStatusUpdate(cmd.UserID, cmd.Status, cmd.PfpName)
	case *protocol.SessionResponse:
		c.log.Debug().Msg("redundant session confirmation")
	case *protocol.Error:
		// Server-side rejection of a previous request. Surfaced only; no
		// rollback of optimistic local state.
		c.log.Warn().Str("error_msg", cmd.ErrorMsg).Msg("server rejected request")
		c.view.ShowError(cmd.ErrorMsg)
	case *protocol.Unknown:
		c.log.Error().Str("cmd", cmd.Cmd).Msg("unknown command")
	default:
		c.log.Error().Str("cmd", cmd.CmdName()).Msg("command without handler")
	}
}

func (c *Client) handleSelfInfo(cmd *protocol.ClientUserInfoResponse) {
	u, _ := c.store.UpsertUser(cmd.User)
	c.self = u
	c.view.SelfUpdated(u)
}

func (c *Client) handleClientGroups(cmd *protocol.ClientGroupsResponse) {
	for _, info := range cmd.Groups {
		c.store.UpsertGroup(info)
	}
	c.restoreSelection()
}

// restoreSelection re-selects the previously viewed group after bootstrap,
// or auto-selects when the client is in exactly one group.
func (c *Client) restoreSelection() {
	if c.store.CurrentGroup() != nil {
		return
	}

	groups := c.store.Groups()
	if len(groups) == 1 {
		c.selectGroup(groups[0].ID)
		return
	}

	if last, ok := c.state.LastGroupID(); ok {
		if _, exists := c.store.Group(last); exists {
			c.selectGroup(last)
			return
		}
		if err := c.state.ClearLastGroupID(); err != nil {
			c.log.Error().Err(err).Msg("clearing stale group selection")
		}
	}
}

func (c *Client) handleUsers(cmd *protocol.GetUserResponse) {
	for _, u := range cmd.Users {
		c.store.UpsertUser(u)
	}
}

func (c *Client) handleMemberIDs(cmd *protocol.GetMemberIDsResponse) {
	g, ok := c.store.Group(cmd.GroupID)
	if !ok {
		c.log.Warn().Uint64("group_id", cmd.GroupID).Msg("member ids for unknown group")
		return
	}

	g.MembersLoaded = true
	for _, id := range cmd.MemberIDs {
		c.store.AddMember(g, id)
	}
	c.fetchUsers(cmd.MemberIDs)
}

func (c *Client) handleAllGroups(cmd *protocol.GetAllGroupsResponse) {
	rows := make([]BrowseRow, len(cmd.Groups))
	owners := make([]uint64, 0, len(cmd.Groups))
	for i, info := range cmd.Groups {
		if _, known := c.store.User(info.OwnerID); !known {
			c.store.TrackBrowseOwner(info.OwnerID)
		}
		rows[i] = BrowseRow{Group: info, Owner: c.store.ResolveUser(info.OwnerID)}
		owners = append(owners, info.OwnerID)
	}

	c.view.BrowseGroups(rows)
	c.fetchUsers(owners)
}

func (c *Client) handleHistoryPage(cmd *protocol.GetGroupMsgsResponse) {
	g, ok := c.store.Group(cmd.GroupID)
	if !ok {
		c.log.Warn().Uint64("group_id", cmd.GroupID).Msg("history page for unknown group")
		return
	}

	g.History.AddPage(cmd.Messages, c.pageSize)
	c.view.MessagesPrepended(g, cmd.Messages)

	senders := make([]uint64, 0, len(cmd.Messages))
	for _, msg := range cmd.Messages {
		senders = append(senders, msg.UserID)
	}
	c.fetchUsers(senders)
}

func (c *Client) handleLiveMessage(cmd *protocol.GroupMsgBroadcast) {
	g, ok := c.store.Group(cmd.GroupID)
	if !ok {
		c.log.Warn().Uint64("group_id", cmd.GroupID).Msg("message for unknown group")
		return
	}

	g.History.AppendLive(cmd.Message)
	c.view.MessageAppended(g, cmd.Message, c.store.ResolveUser(cmd.UserID))
	c.fetchUsers([]uint64{cmd.UserID})
}

func (c *Client) handleJoin(cmd *protocol.JoinGroupBroadcast) {
	g, ok := c.store.Group(cmd.GroupID)
	if !ok {
		c.log.Warn().Uint64("group_id", cmd.GroupID).Msg("join for unknown group")
		return
	}

	c.store.AddMember(g, cmd.UserID)
	c.fetchUsers([]uint64{cmd.UserID})
}

func (c *Client) handleDeleteMsg(cmd *protocol.DeleteMsg) {
	g, ok := c.store.Group(cmd.GroupID)
	if !ok {
		return
	}
	if g.History.Delete(cmd.MsgID) {
		c.view.MessageDeleted(cmd.GroupID, cmd.MsgID)
	}
}

func (c *Client) handleDeleteGroup(cmd *protocol.DeleteGroup) {
	c.store.RemoveGroup(cmd.GroupID)
	if last, ok := c.state.LastGroupID(); ok && last == cmd.GroupID {
		if err := c.state.ClearLastGroupID(); err != nil {
			c.log.Error().Err(err).Msg("clearing deleted group selection")
		}
	}
}
