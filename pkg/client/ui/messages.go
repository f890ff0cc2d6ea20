package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wrenchat/wren/pkg/client"
	"github.com/wrenchat/wren/pkg/protocol"
)

// Messages the core pushes into the bubbletea loop. Each carries copies of
// the data it describes; the Model never reads the entity store directly.

type SelfUpdatedMsg struct{ User protocol.User }

type GroupAddedMsg struct {
	ID   uint64
	Name string
	Desc string
}

type GroupRemovedMsg struct{ ID uint64 }

type GroupSelectedMsg struct {
	ID       uint64
	Name     string
	Messages []protocol.Message
	Members  []uint64

	// Complete means the full history is already loaded; scrolling past the
	// top has nothing further to request.
	Complete bool
}

type SelectionClearedMsg struct{}

type MemberAddedMsg struct {
	GroupID uint64
	User    protocol.User
}

type UserPatchedMsg struct{ User protocol.User }

type MessageAppendedMsg struct {
	GroupID uint64
	Message protocol.Message
	Sender  protocol.User
}

type MessagesPrependedMsg struct {
	GroupID  uint64
	Messages []protocol.Message
	Complete bool
}

type MessageDeletedMsg struct {
	GroupID uint64
	MsgID   uint64
}

type BrowseRowMsg struct {
	GroupID   uint64
	Name      string
	Desc      string
	OwnerID   uint64
	OwnerName string
}

type BrowseGroupsMsg struct{ Rows []BrowseRowMsg }

type BrowseOwnerResolvedMsg struct {
	OwnerID   uint64
	OwnerName string
}

type InviteCodesMsg struct {
	GroupID uint64
	Codes   []protocol.InviteCode
}

type ErrorMsg struct{ Text string }

type ConnectionChangedMsg struct {
	State   client.ConnState
	Attempt int
}

type RedirectToLoginMsg struct{}

// programSender is the subset of *tea.Program the adapter needs.
type programSender interface {
	Send(msg tea.Msg)
}

// Adapter implements client.View by forwarding every notification into the
// bubbletea program. It runs on the client event loop, so it copies whatever
// it forwards and returns immediately.
type Adapter struct {
	p programSender
}

var _ client.View = (*Adapter)(nil)

// NewAdapter creates an unattached view adapter. Attach must be called before
// the client loop starts; the program cannot exist before the model, so the
// binding happens in two steps.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Attach binds the adapter to the running program.
func (a *Adapter) Attach(p programSender) {
	a.p = p
}

func (a *Adapter) SelfUpdated(u *protocol.User) {
	a.p.Send(SelfUpdatedMsg{User: *u})
}

func (a *Adapter) GroupAdded(g *client.Group) {
	a.p.Send(GroupAddedMsg{ID: g.ID, Name: g.Name, Desc: g.Desc})
}

func (a *Adapter) GroupRemoved(id uint64) {
	a.p.Send(GroupRemovedMsg{ID: id})
}

func (a *Adapter) GroupSelected(prev, cur *client.Group) {
	msgs := cur.History.Messages()
	copied := make([]protocol.Message, len(msgs))
	copy(copied, msgs)
	a.p.Send(GroupSelectedMsg{
		ID:       cur.ID,
		Name:     cur.Name,
		Messages: copied,
		Members:  cur.MemberIDs(),
		Complete: cur.History.Complete(),
	})
}

func (a *Adapter) SelectionCleared() {
	a.p.Send(SelectionClearedMsg{})
}

func (a *Adapter) MemberAdded(groupID uint64, u *protocol.User) {
	a.p.Send(MemberAddedMsg{GroupID: groupID, User: *u})
}

func (a *Adapter) UserPatched(u *protocol.User) {
	a.p.Send(UserPatchedMsg{User: *u})
}

func (a *Adapter) MessageAppended(g *client.Group, msg protocol.Message, sender *protocol.User) {
	a.p.Send(MessageAppendedMsg{GroupID: g.ID, Message: msg, Sender: *sender})
}

func (a *Adapter) MessagesPrepended(g *client.Group, msgs []protocol.Message) {
	copied := make([]protocol.Message, len(msgs))
	copy(copied, msgs)
	a.p.Send(MessagesPrependedMsg{GroupID: g.ID, Messages: copied, Complete: g.History.Complete()})
}

func (a *Adapter) MessageDeleted(groupID, msgID uint64) {
	a.p.Send(MessageDeletedMsg{GroupID: groupID, MsgID: msgID})
}

func (a *Adapter) BrowseGroups(rows []client.BrowseRow) {
	out := make([]BrowseRowMsg, len(rows))
	for i, r := range rows {
		out[i] = BrowseRowMsg{
			GroupID:   r.Group.GroupID,
			Name:      r.Group.Name,
			Desc:      r.Group.Desc,
			OwnerID:   r.Group.OwnerID,
			OwnerName: r.Owner.Displayname,
		}
	}
	a.p.Send(BrowseGroupsMsg{Rows: out})
}

func (a *Adapter) BrowseOwnerResolved(ownerID uint64, owner *protocol.User) {
	a.p.Send(BrowseOwnerResolvedMsg{OwnerID: ownerID, OwnerName: owner.Displayname})
}

func (a *Adapter) InviteCodes(groupID uint64, codes []protocol.InviteCode) {
	copied := make([]protocol.InviteCode, len(codes))
	copy(copied, codes)
	a.p.Send(InviteCodesMsg{GroupID: groupID, Codes: copied})
}

func (a *Adapter) ShowError(msg string) {
	a.p.Send(ErrorMsg{Text: msg})
}

func (a *Adapter) ConnectionChanged(upd client.StateUpdate) {
	a.p.Send(ConnectionChangedMsg{State: upd.State, Attempt: upd.Attempt})
}

func (a *Adapter) RedirectToLogin() {
	a.p.Send(RedirectToLoginMsg{})
}
