package client

import (
	"github.com/wrenchat/wren/pkg/protocol"
)

// BrowseRow is one entry in the group-browsing list. Owner is a placeholder
// until the real user record arrives.
type BrowseRow struct {
	Group protocol.GroupInfo
	Owner *protocol.User
}

// View is the rendering collaborator. It holds no authoritative state; the
// core calls into it whenever stores change. All calls happen on the client
// event loop goroutine.
type View interface {
	// Identity
	SelfUpdated(u *protocol.User)

	// Groups
	GroupAdded(g *Group)
	GroupRemoved(id uint64)
	// GroupSelected attaches the message and member panes of cur. The view
	// must deregister prev's scrolled-to-top listener before registering
	// cur's; prev is nil when nothing was selected.
	GroupSelected(prev, cur *Group)
	SelectionCleared()

	// Members and identity resolution
	MemberAdded(groupID uint64, u *protocol.User)
	// UserPatched re-renders every message row and member row tagged with
	// u.ID: placeholder resolution and rtusm updates both land here.
	UserPatched(u *protocol.User)

	// Messages
	MessageAppended(g *Group, msg protocol.Message, sender *protocol.User)
	MessagesPrepended(g *Group, msgs []protocol.Message)
	MessageDeleted(groupID, msgID uint64)

	// Group browser and invites
	BrowseGroups(rows []BrowseRow)
	BrowseOwnerResolved(ownerID uint64, owner *protocol.User)
	InviteCodes(groupID uint64, codes []protocol.InviteCode)

	// Session surface
	ShowError(msg string)
	ConnectionChanged(upd StateUpdate)
	RedirectToLogin()
}

// NullView is a no-op View, for headless use and as an embeddable base for
// test views that only care about a few callbacks.
type NullView struct{}

var _ View = (*NullView)(nil)

func (NullView) SelfUpdated(*protocol.User)                        {}
func (NullView) GroupAdded(*Group)                                 {}
func (NullView) GroupRemoved(uint64)                               {}
func (NullView) GroupSelected(*Group, *Group)                      {}
func (NullView) SelectionCleared()                                 {}
func (NullView) MemberAdded(uint64, *protocol.User)                {}
func (NullView) UserPatched(*protocol.User)                        {}
func (NullView) MessageAppended(*Group, protocol.Message, *protocol.User) {
}
func (NullView) MessagesPrepended(*Group, []protocol.Message)  {}
func (NullView) MessageDeleted(uint64, uint64)                 {}
func (NullView) BrowseGroups([]BrowseRow)                      {}
func (NullView) BrowseOwnerResolved(uint64, *protocol.User)    {}
func (NullView) InviteCodes(uint64, []protocol.InviteCode)     {}
func (NullView) ShowError(string)                              {}
func (NullView) ConnectionChanged(StateUpdate)                 {}
func (NullView) RedirectToLogin()                              {}
