package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wrenchat/wren/pkg/protocol"
)

// AuthState is the session gate state.
type AuthState int

const (
	GateUnauthenticated AuthState = iota
	GateAuthenticating
	GateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case GateUnauthenticated:
		return "unauthenticated"
	case GateAuthenticating:
		return "authenticating"
	case GateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// DefaultPageSize is the history page size when the config doesn't set one.
const DefaultPageSize = 50

// Client is the session layer: it owns the entity store, the per-group
// histories and the auth gate, and runs the single event loop every store
// mutation happens on. The View and the Conn live on their own goroutines;
// user actions enter the loop through Do.
type Client struct {
	conn     Conn
	state    StateStore
	store    *Store
	uploader *Uploader
	view     View
	log      zerolog.Logger

	gate     AuthState
	self     *protocol.User
	pageSize int

	actions chan func()
}

// NewClient wires the session layer together. The store is created here; it
// is owned by the client's loop.
func NewClient(conn Conn, state StateStore, uploader *Uploader, view View, logger zerolog.Logger) *Client {
	return &Client{
		conn:     conn,
		state:    state,
		store:    NewStore(view, logger),
		uploader: uploader,
		view:     view,
		log:      logger.With().Str("component", "client").Logger(),
		pageSize: DefaultPageSize,
		actions:  make(chan func(), 64),
	}
}

// SetPageSize overrides the history page size.
func (c *Client) SetPageSize(n int) {
	if n > 0 {
		c.pageSize = n
	}
}

// Store exposes the entity store for read access from the loop goroutine
// (view callbacks run there).
func (c *Client) Store() *Store {
	return c.store
}

// Self returns the authenticated user's own record, nil before bootstrap.
func (c *Client) Self() *protocol.User {
	return c.self
}

// Gate returns the current auth gate state.
func (c *Client) Gate() AuthState {
	return c.gate
}

// Run drives the event loop until ctx is cancelled or the transport closes.
// All command handling, store mutation and view notification happens here,
// so the stores need no locking.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case fn := <-c.actions:
			fn()

		case upd, ok := <-c.conn.StateChanges():
			if !ok {
				return nil
			}
			c.handleConnState(upd)

		case err, ok := <-c.conn.Errors():
			if !ok {
				return nil
			}
			c.log.Warn().Err(err).Msg("transport error")

		case cmd, ok := <-c.conn.Incoming():
			if !ok {
				return nil
			}
			c.handleInbound(cmd)
		}
	}
}

// Do runs fn on the event loop. It is the only safe way for another
// goroutine (the View) to touch client state.
func (c *Client) Do(fn func()) {
	c.actions <- fn
}

func (c *Client) handleConnState(upd StateUpdate) {
	c.view.ConnectionChanged(upd)

	switch upd.State {
	case StateConnected:
		c.onConnected()
	case StateDisconnected:
		// Re-auth is required after reconnect, but cached identities stay
		// valid; only the in-flight fetch bookkeeping is dropped.
		c.gate = GateUnauthenticated
		c.store.ClearPendingFetches()
	}
}

func (c *Client) onConnected() {
	token, err := c.state.SessionToken()
	if err != nil {
		c.log.Error().Err(err).Msg("reading session token")
	}
	if token == "" {
		c.view.RedirectToLogin()
		return
	}

	c.gate = GateAuthenticating
	c.send(&protocol.SessionRequest{ID: token})
}

func (c *Client) handleInbound(cmd protocol.Command) {
	if c.gate == GateAuthenticated {
		c.dispatch(cmd)
		return
	}

	// Pre-auth, the only acceptable inbound command is the session
	// confirmation; anything else is an auth failure.
	if _, ok := cmd.(*protocol.SessionResponse); ok && c.gate == GateAuthenticating {
		c.gate = GateAuthenticated
		c.send(&protocol.ClientUserInfoRequest{})
		c.send(&protocol.ClientGroupsRequest{})
		return
	}

	c.log.Warn().Str("cmd", cmd.CmdName()).Str("gate", c.gate.String()).Msg("unexpected command before auth")
	if err := c.state.ClearSessionToken(); err != nil {
		c.log.Error().Err(err).Msg("clearing session token")
	}
	c.gate = GateUnauthenticated
	c.view.RedirectToLogin()
}

func (c *Client) send(cmd protocol.Command) {
	if err := c.conn.Send(cmd); err != nil {
		c.log.Error().Err(err).Str("cmd", cmd.CmdName()).Msg("send failed")
	}
}

// fetchUsers issues one batched get_user for the ids not already stored or
// in flight.
func (c *Client) fetchUsers(ids []uint64) {
	missing := c.store.MissingUsers(ids)
	if len(missing) == 0 {
		return
	}
	c.send(&protocol.GetUserRequest{UserIDs: missing})
}

// User actions. Each public method hops onto the event loop.

// SelectGroup makes the group current, lazily loading members and the first
// history page.
func (c *Client) SelectGroup(id uint64) {
	c.Do(func() { c.selectGroup(id) })
}

func (c *Client) selectGroup(id uint64) {
	g, ok := c.store.Group(id)
	if !ok {
		c.log.Warn().Uint64("group_id", id).Msg("select of unknown group")
		return
	}
	cur := c.store.CurrentGroup()
	if cur != nil && cur.ID == id {
		return
	}

	c.store.SelectGroup(g)
	if err := c.state.SetLastGroupID(id); err != nil {
		c.log.Error().Err(err).Msg("persisting group selection")
	}

	if !g.MembersLoaded && !g.membersRequested {
		g.membersRequested = true
		c.send(&protocol.GetMemberIDsRequest{GroupID: id})
	}

	if g.History.Len() == 0 {
		if offset, ok := g.History.RequestOlder(c.pageSize); ok {
			c.send(&protocol.GetGroupMsgsRequest{GroupID: id, Limit: c.pageSize, Offset: offset})
		}
	}
}

// RequestOlderMessages loads the next older history page of the current
// group. The view calls this when its message pane scrolls to the top.
func (c *Client) RequestOlderMessages() {
	c.Do(func() {
		g := c.store.CurrentGroup()
		if g == nil {
			return
		}
		offset, ok := g.History.RequestOlder(c.pageSize)
		if !ok {
			return
		}
		c.send(&protocol.GetGroupMsgsRequest{GroupID: g.ID, Limit: c.pageSize, Offset: offset})
	})
}

// PostMessage sends a message to the current group, attaching any staged
// attachments' metadata.
func (c *Client) PostMessage(content string) {
	c.Do(func() {
		g := c.store.CurrentGroup()
		if g == nil {
			c.view.ShowError("no group selected")
			return
		}
		c.send(&protocol.GroupMsgRequest{
			GroupID:     g.ID,
			Content:     content,
			Attachments: c.uploader.Metadata(),
		})
	})
}

// AttachFile stages a file for the next message. The disk read happens on the
// caller's goroutine so the event loop never blocks on it; only the append to
// the pending list hops onto the loop.
func (c *Client) AttachFile(path string) error {
	att, err := LoadAttachment(path)
	if err != nil {
		return err
	}
	c.Do(func() { c.uploader.Stage(att) })
	return nil
}

// CreateGroup creates a new group owned by the caller.
func (c *Client) CreateGroup(name, desc string) {
	c.Do(func() { c.send(&protocol.GroupCreateRequest{Name: name, Desc: desc}) })
}

// JoinGroup joins a group by invite code.
func (c *Client) JoinGroup(code string) {
	c.Do(func() { c.send(&protocol.JoinGroupRequest{Code: code}) })
}

// DeleteGroup asks the server to delete a group.
func (c *Client) DeleteGroup(id uint64) {
	c.Do(func() { c.send(&protocol.DeleteGroup{GroupID: id}) })
}

// DeleteMessage asks the server to delete a message.
func (c *Client) DeleteMessage(groupID, msgID uint64) {
	c.Do(func() { c.send(&protocol.DeleteMsg{GroupID: groupID, MsgID: msgID}) })
}

// BrowseGroups requests the public group directory.
func (c *Client) BrowseGroups() {
	c.Do(func() { c.send(&protocol.GetAllGroupsRequest{}) })
}

// RequestInviteCodes lists a group's invite codes.
func (c *Client) RequestInviteCodes(groupID uint64) {
	c.Do(func() { c.send(&protocol.GetGroupCodesRequest{GroupID: groupID}) })
}

// CreateInviteCode mints an invite code; maxUses of -1 means unlimited.
func (c *Client) CreateInviteCode(groupID uint64, maxUses int) {
	c.Do(func() { c.send(&protocol.CreateGroupCodeRequest{GroupID: groupID, MaxUses: maxUses}) })
}

// RevokeInviteCode deletes an invite code.
func (c *Client) RevokeInviteCode(groupID uint64, code string) {
	c.Do(func() { c.send(&protocol.DeleteGroupCodeRequest{GroupID: groupID, Code: code}) })
}

// EditAccount updates profile fields. pfpPath, when set, is read on the
// caller's goroutine and staged as an avatar whose bytes follow once the
// server returns an upload token.
func (c *Client) EditAccount(username, displayname, pfpPath string) error {
	req := &protocol.EditAccountRequest{
		NewUsername:    username,
		NewDisplayname: displayname,
	}

	if pfpPath == "" {
		c.Do(func() { c.send(req) })
		return nil
	}

	avatar, err := LoadAttachment(pfpPath)
	if err != nil {
		return err
	}
	req.NewPfp = avatar.Name
	c.Do(func() {
		c.uploader.StageAvatar(avatar)
		c.send(req)
	})
	return nil
}

// Logout drops the stored credential and redirects to login.
func (c *Client) Logout() {
	c.Do(func() {
		if err := c.state.ClearSessionToken(); err != nil {
			c.log.Error().Err(err).Msg("clearing session token")
		}
		c.gate = GateUnauthenticated
		c.view.RedirectToLogin()
	})
}
