package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenchat/wren/pkg/client"
	"github.com/wrenchat/wren/pkg/protocol"
)

func newTestModel(t *testing.T) Model {
	conn := client.NewMockConn()
	uploader := client.NewUploader("http://localhost:0", zerolog.Nop())
	c := client.NewClient(conn, &client.MemState{}, uploader, &client.NullView{}, zerolog.Nop())

	m := NewModel(c, "test")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func apply(t *testing.T, m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		var ok bool
		m, ok = updated.(Model)
		require.True(t, ok)
	}
	return m
}

func TestGroupListTracksAddAndRemove(t *testing.T) {
	m := newTestModel(t)

	m = apply(t, m,
		GroupAddedMsg{ID: 1, Name: "general"},
		GroupAddedMsg{ID: 2, Name: "random"},
		GroupAddedMsg{ID: 1, Name: "general"},
	)
	require.Len(t, m.groups, 2, "duplicate add is ignored")

	m = apply(t, m, GroupRemovedMsg{ID: 1})
	require.Len(t, m.groups, 1)
	assert.Equal(t, uint64(2), m.groups[0].ID)
}

func TestSelectionLoadsPane(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m,
		GroupAddedMsg{ID: 1, Name: "general"},
		GroupSelectedMsg{
			ID:   1,
			Name: "general",
			Messages: []protocol.Message{
				{MsgID: 1, GroupID: 1, UserID: 9, Content: "hi", Timestamp: 1700000000},
			},
			Members: []uint64{9},
		},
	)

	assert.Equal(t, uint64(1), m.currentGroupID)
	assert.Len(t, m.messages, 1)
	assert.Equal(t, []uint64{9}, m.members)

	// Sender 9 is unresolved: rendered by id until patched
	assert.Contains(t, m.buildMessageContent(), "9")
	m = apply(t, m, UserPatchedMsg{User: protocol.User{UserID: 9, Displayname: "nina"}})
	assert.Contains(t, m.buildMessageContent(), "nina")
}

func TestUnreadCountsForBackgroundGroups(t *testing.T) {
	m := newTestModel(t)
	m.notificationsOn = false
	m = apply(t, m,
		GroupAddedMsg{ID: 1, Name: "general"},
		GroupAddedMsg{ID: 2, Name: "random"},
		GroupSelectedMsg{ID: 1, Name: "general"},
	)

	m = apply(t, m, MessageAppendedMsg{
		GroupID: 2,
		Message: protocol.Message{MsgID: 5, GroupID: 2, UserID: 3, Content: "psst"},
		Sender:  protocol.User{UserID: 3, Displayname: "sam"},
	})

	// Background group gets an unread marker, open pane is untouched
	assert.Equal(t, 1, m.groups[1].Unread)
	assert.Empty(t, m.messages)

	// Selecting it clears the marker
	m = apply(t, m, GroupSelectedMsg{
		ID: 2, Name: "random",
		Messages: []protocol.Message{{MsgID: 5, GroupID: 2, UserID: 3, Content: "psst"}},
	})
	assert.Zero(t, m.groups[1].Unread)
	assert.Len(t, m.messages, 1)
}

func TestAppendToOpenGroup(t *testing.T) {
	m := newTestModel(t)
	m.notificationsOn = false
	m = apply(t, m,
		GroupAddedMsg{ID: 1, Name: "general"},
		GroupSelectedMsg{ID: 1, Name: "general"},
		MessageAppendedMsg{
			GroupID: 1,
			Message: protocol.Message{MsgID: 7, GroupID: 1, UserID: 3, Content: "hello"},
			Sender:  protocol.User{UserID: 3, Displayname: "sam"},
		},
	)

	require.Len(t, m.messages, 1)
	assert.Contains(t, m.buildMessageContent(), "hello")
	assert.Zero(t, m.groups[0].Unread)
}

func TestPrependPreservesMessages(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m,
		GroupAddedMsg{ID: 1, Name: "general"},
		GroupSelectedMsg{
			ID: 1, Name: "general",
			Messages: []protocol.Message{{MsgID: 30, GroupID: 1, UserID: 3, Content: "newest"}},
		},
		MessagesPrependedMsg{
			GroupID: 1,
			Messages: []protocol.Message{
				{MsgID: 10, GroupID: 1, UserID: 3, Content: "oldest"},
				{MsgID: 20, GroupID: 1, UserID: 3, Content: "older"},
			},
		},
	)

	require.Len(t, m.messages, 3)
	assert.Equal(t, uint64(10), m.messages[0].MsgID)
	assert.Equal(t, uint64(30), m.messages[2].MsgID)
	assert.False(t, m.loadingHistory)
}

func TestScrollAtTopStopsWhenHistoryComplete(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m,
		GroupAddedMsg{ID: 1, Name: "general"},
		GroupSelectedMsg{ID: 1, Name: "general"},
	)
	m.focus = focusMessages

	m = apply(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.True(t, m.loadingHistory, "open-ended history: scrolling up requests a page")

	// A short page marks the history complete and clears the spinner
	m = apply(t, m, MessagesPrependedMsg{
		GroupID:  1,
		Messages: []protocol.Message{{MsgID: 10, GroupID: 1, UserID: 3, Content: "first ever"}},
		Complete: true,
	})
	assert.False(t, m.loadingHistory)
	assert.True(t, m.historyComplete)

	// Nothing older exists: scrolling up again must not re-arm the spinner
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.False(t, m.loadingHistory)

	// Reselecting a group with unfinished history re-enables pagination
	m = apply(t, m, GroupSelectedMsg{ID: 1, Name: "general"})
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.True(t, m.loadingHistory)
}

func TestPrependForOtherGroupIgnored(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m,
		GroupAddedMsg{ID: 1, Name: "general"},
		GroupSelectedMsg{ID: 1, Name: "general"},
		MessagesPrependedMsg{
			GroupID:  2,
			Messages: []protocol.Message{{MsgID: 10, GroupID: 2, UserID: 3, Content: "x"}},
		},
	)
	assert.Empty(t, m.messages)
}

func TestDeleteRemovesRow(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m,
		GroupSelectedMsg{
			ID: 1, Name: "general",
			Messages: []protocol.Message{
				{MsgID: 1, GroupID: 1, UserID: 3, Content: "keep"},
				{MsgID: 2, GroupID: 1, UserID: 3, Content: "drop"},
			},
		},
		MessageDeletedMsg{GroupID: 1, MsgID: 2},
	)

	require.Len(t, m.messages, 1)
	assert.Equal(t, uint64(1), m.messages[0].MsgID)
}

func TestRedirectShowsLoginScreen(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, RedirectToLoginMsg{})

	assert.True(t, m.loginRequired)
	assert.Contains(t, m.View(), "wren login")
}

func TestBrowseOverlay(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, BrowseGroupsMsg{Rows: []BrowseRowMsg{
		{GroupID: 1, Name: "public", OwnerID: 9, OwnerName: "9"},
	}})

	require.Equal(t, overlayBrowse, m.overlay)
	assert.Contains(t, m.View(), "public")
	assert.Contains(t, m.View(), "owned by 9")

	// Placeholder owner patched in place
	m = apply(t, m, BrowseOwnerResolvedMsg{OwnerID: 9, OwnerName: "olive"})
	assert.Contains(t, m.View(), "owned by olive")

	m = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, overlayNone, m.overlay)
}

func TestConnectionBanner(t *testing.T) {
	m := newTestModel(t)

	m = apply(t, m, ConnectionChangedMsg{State: client.StateConnecting, Attempt: 3})
	assert.Contains(t, m.View(), "attempt 3")

	m = apply(t, m, ConnectionChangedMsg{State: client.StateConnected})
	assert.Contains(t, m.View(), "connected")
}
