package client

import (
	"github.com/rs/zerolog"

	"github.com/wrenchat/wren/pkg/protocol"
)

// recordingView captures every view notification for assertions. Tests drive
// the client handlers directly on the test goroutine, so no locking here.
type recordingView struct {
	NullView

	self          *protocol.User
	groupsAdded   []uint64
	groupsRemoved []uint64

	// listeners tracks which groups currently have a pagination listener
	// registered, mirroring what a real view does in GroupSelected.
	listeners map[uint64]bool
	selected  []uint64
	cleared   int

	membersAdded map[uint64][]uint64
	patched      []uint64

	appended   []protocol.Message
	prepended  [][]protocol.Message
	deletedIDs []uint64

	browse        []BrowseRow
	browseOwners  map[uint64]string
	invites       map[uint64][]protocol.InviteCode
	errorsShown   []string
	redirects     int
	connStates    []ConnState
}

func newRecordingView() *recordingView {
	return &recordingView{
		listeners:    make(map[uint64]bool),
		membersAdded: make(map[uint64][]uint64),
		browseOwners: make(map[uint64]string),
		invites:      make(map[uint64][]protocol.InviteCode),
	}
}

func (v *recordingView) SelfUpdated(u *protocol.User) { v.self = u }

func (v *recordingView) GroupAdded(g *Group) { v.groupsAdded = append(v.groupsAdded, g.ID) }

func (v *recordingView) GroupRemoved(id uint64) { v.groupsRemoved = append(v.groupsRemoved, id) }

func (v *recordingView) GroupSelected(prev, cur *Group) {
	if prev != nil {
		delete(v.listeners, prev.ID)
	}
	v.listeners[cur.ID] = true
	v.selected = append(v.selected, cur.ID)
}

func (v *recordingView) SelectionCleared() { v.cleared++ }

func (v *recordingView) MemberAdded(groupID uint64, u *protocol.User) {
	v.membersAdded[groupID] = append(v.membersAdded[groupID], u.UserID)
}

func (v *recordingView) UserPatched(u *protocol.User) { v.patched = append(v.patched, u.UserID) }

func (v *recordingView) MessageAppended(g *Group, msg protocol.Message, sender *protocol.User) {
	v.appended = append(v.appended, msg)
}

func (v *recordingView) MessagesPrepended(g *Group, msgs []protocol.Message) {
	v.prepended = append(v.prepended, msgs)
}

func (v *recordingView) MessageDeleted(groupID, msgID uint64) {
	v.deletedIDs = append(v.deletedIDs, msgID)
}

func (v *recordingView) BrowseGroups(rows []BrowseRow) { v.browse = rows }

func (v *recordingView) BrowseOwnerResolved(ownerID uint64, owner *protocol.User) {
	v.browseOwners[ownerID] = owner.Displayname
}

func (v *recordingView) InviteCodes(groupID uint64, codes []protocol.InviteCode) {
	v.invites[groupID] = codes
}

func (v *recordingView) ShowError(msg string) { v.errorsShown = append(v.errorsShown, msg) }

func (v *recordingView) ConnectionChanged(upd StateUpdate) {
	v.connStates = append(v.connStates, upd.State)
}

func (v *recordingView) RedirectToLogin() { v.redirects++ }

// newTestClient wires a client around a mock connection and recording view.
// Tests call the client's handlers directly so everything stays on one
// goroutine, matching the production single-loop model.
func newTestClient() (*Client, *MockConn, *recordingView, *MemState) {
	conn := NewMockConn()
	view := newRecordingView()
	state := &MemState{}
	uploader := NewUploader("http://localhost:0", zerolog.Nop())
	c := NewClient(conn, state, uploader, view, zerolog.Nop())
	c.SetPageSize(15)
	return c, conn, view, state
}

func testUser(id uint64, name string) protocol.User {
	return protocol.User{
		UserID:      id,
		Username:    name,
		Displayname: name,
		CreatedAt:   1700000000,
		PfpName:     name + ".png",
		Status:      "online",
	}
}

func testMessage(msgID, groupID, userID uint64, content string) protocol.Message {
	return protocol.Message{
		MsgID:     msgID,
		GroupID:   groupID,
		UserID:    userID,
		Content:   content,
		Timestamp: 1700000000 + int64(msgID),
	}
}
