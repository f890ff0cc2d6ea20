package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/wrenchat/wren/pkg/client"
	"github.com/wrenchat/wren/pkg/protocol"
)

// Update handles key input and the notifications pushed in by the Adapter.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpWidth := m.messageWidth()
		vpHeight := msg.Height - 6
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}
		m.input.SetWidth(vpWidth)
		m.viewport.SetContent(m.buildMessageContent())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SelfUpdatedMsg:
		m.self = &msg.User
		m.rememberUser(msg.User)
		return m, nil

	case GroupAddedMsg:
		if m.groupIndex(msg.ID) == -1 {
			m.groups = append(m.groups, groupEntry{ID: msg.ID, Name: msg.Name})
		}
		return m, nil

	case GroupRemovedMsg:
		if i := m.groupIndex(msg.ID); i >= 0 {
			m.groups = append(m.groups[:i], m.groups[i+1:]...)
			if m.groupCursor >= len(m.groups) && m.groupCursor > 0 {
				m.groupCursor--
			}
		}
		return m, nil

	case GroupSelectedMsg:
		m.currentGroupID = msg.ID
		m.currentName = msg.Name
		m.messages = msg.Messages
		m.members = msg.Members
		m.loadingHistory = false
		m.historyComplete = msg.Complete
		if i := m.groupIndex(msg.ID); i >= 0 {
			m.groupCursor = i
			m.groups[i].Unread = 0
		}
		if m.ready {
			m.viewport.SetContent(m.buildMessageContent())
			m.viewport.GotoBottom()
		}
		return m, nil

	case SelectionClearedMsg:
		m.currentGroupID = 0
		m.currentName = ""
		m.messages = nil
		m.members = nil
		m.loadingHistory = false
		m.historyComplete = false
		if m.ready {
			m.viewport.SetContent("")
		}
		return m, nil

	case MemberAddedMsg:
		m.rememberUser(msg.User)
		if msg.GroupID == m.currentGroupID {
			m.addMember(msg.User.UserID)
		}
		return m, nil

	case UserPatchedMsg:
		m.rememberUser(msg.User)
		// Message rows and member rows render from the users map, so a
		// rebuild is all patching takes
		if m.ready {
			m.viewport.SetContent(m.buildMessageContent())
		}
		return m, nil

	case MessageAppendedMsg:
		return m.handleMessageAppended(msg)

	case MessagesPrependedMsg:
		if msg.GroupID != m.currentGroupID {
			return m, nil
		}
		m.loadingHistory = false
		m.historyComplete = msg.Complete
		if len(msg.Messages) == 0 {
			return m, nil
		}
		combined := make([]protocol.Message, 0, len(msg.Messages)+len(m.messages))
		combined = append(combined, msg.Messages...)
		combined = append(combined, m.messages...)
		m.messages = combined
		if m.ready {
			// Keep the rows the user was looking at in place while the
			// older page lands above them
			before := m.viewport.TotalLineCount()
			m.viewport.SetContent(m.buildMessageContent())
			added := m.viewport.TotalLineCount() - before
			if added > 0 {
				m.viewport.SetYOffset(m.viewport.YOffset + added)
			}
		}
		return m, nil

	case MessageDeletedMsg:
		if msg.GroupID != m.currentGroupID {
			return m, nil
		}
		for i := range m.messages {
			if m.messages[i].MsgID == msg.MsgID {
				m.messages = append(m.messages[:i], m.messages[i+1:]...)
				break
			}
		}
		if m.ready {
			m.viewport.SetContent(m.buildMessageContent())
		}
		return m, nil

	case BrowseGroupsMsg:
		m.browseRows = msg.Rows
		m.browseCursor = 0
		m.overlay = overlayBrowse
		return m, nil

	case BrowseOwnerResolvedMsg:
		for i := range m.browseRows {
			if m.browseRows[i].OwnerID == msg.OwnerID {
				m.browseRows[i].OwnerName = msg.OwnerName
			}
		}
		return m, nil

	case InviteCodesMsg:
		m.inviteCodes = msg.Codes
		m.inviteGroupID = msg.GroupID
		m.overlay = overlayInvites
		return m, nil

	case ErrorMsg:
		m.errorMessage = msg.Text
		return m, nil

	case ConnectionChangedMsg:
		m.connState = msg.State
		m.reconnectAttempt = msg.Attempt
		if msg.State == client.StateConnected {
			m.errorMessage = ""
		}
		return m, nil

	case RedirectToLoginMsg:
		m.loginRequired = true
		return m, nil
	}

	return m, nil
}

func (m Model) handleMessageAppended(msg MessageAppendedMsg) (tea.Model, tea.Cmd) {
	m.rememberUser(msg.Sender)

	if msg.GroupID != m.currentGroupID {
		if i := m.groupIndex(msg.GroupID); i >= 0 {
			m.groups[i].Unread++
		}
		m.notify(msg)
		return m, nil
	}

	wasAtBottom := m.ready && m.viewport.AtBottom()
	m.messages = append(m.messages, msg.Message)
	if m.ready {
		m.viewport.SetContent(m.buildMessageContent())
		if wasAtBottom {
			m.viewport.GotoBottom()
		}
	}
	return m, nil
}

// notify raises a desktop notification for activity outside the open group.
func (m *Model) notify(msg MessageAppendedMsg) {
	if !m.notificationsOn {
		return
	}
	if m.self != nil && msg.Message.UserID == m.self.UserID {
		return
	}
	title := m.displayName(msg.Message.UserID)
	body := msg.Message.Content
	if len(body) > 120 {
		body = body[:117] + "..."
	}
	_ = beeep.Notify(title, body, "")
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.loginRequired {
		// Nothing to interact with until a token is stored
		if msg.String() == "q" || msg.String() == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.overlay != overlayNone {
		return m.handleOverlayKey(msg)
	}

	switch msg.String() {
	case "tab":
		m.focus = (m.focus + 1) % 3
		if m.focus == focusInput {
			m.input.Focus()
		} else {
			m.input.Blur()
		}
		return m, nil
	case "esc":
		m.errorMessage = ""
		m.focus = focusInput
		m.input.Focus()
		return m, nil
	}

	switch m.focus {
	case focusGroups:
		return m.handleGroupListKey(msg)
	case focusMessages:
		return m.handleMessagePaneKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleGroupListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.groupCursor > 0 {
			m.groupCursor--
		}
	case "down", "j":
		if m.groupCursor < len(m.groups)-1 {
			m.groupCursor++
		}
	case "enter":
		if m.groupCursor < len(m.groups) {
			m.client.SelectGroup(m.groups[m.groupCursor].ID)
		}
	case "b":
		m.client.BrowseGroups()
	}
	return m, nil
}

func (m Model) handleMessagePaneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Scrolling up at the top of the pane is the pagination trigger. The
	// cursor advances immediately, so holding the key issues requests for
	// successive pages rather than the same one. Once a short page has marked
	// the history complete there is nothing older to fetch and no spinner.
	if (key == "up" || key == "k" || key == "pgup") && m.ready && m.viewport.AtTop() {
		if m.currentGroupID != 0 && !m.historyComplete {
			m.loadingHistory = true
			m.client.RequestOlderMessages()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		text := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if text == "" {
			return m, nil
		}
		if strings.HasPrefix(text, "/") {
			return m.executeCommand(text)
		}
		if m.currentGroupID == 0 {
			m.errorMessage = "no group selected"
			return m, nil
		}
		m.client.PostMessage(text)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayBrowse:
		switch msg.String() {
		case "up", "k":
			if m.browseCursor > 0 {
				m.browseCursor--
			}
		case "down", "j":
			if m.browseCursor < len(m.browseRows)-1 {
				m.browseCursor++
			}
		case "esc", "q":
			m.overlay = overlayNone
		}
	case overlayInvites:
		switch msg.String() {
		case "n":
			m.client.CreateInviteCode(m.inviteGroupID, -1)
			m.client.RequestInviteCodes(m.inviteGroupID)
		case "esc", "q":
			m.overlay = overlayNone
		}
	default:
		m.overlay = overlayNone
	}
	return m, nil
}

func (m *Model) addMember(id uint64) {
	for _, existing := range m.members {
		if existing == id {
			return
		}
	}
	m.members = append(m.members, id)
	sort.Slice(m.members, func(i, j int) bool { return m.members[i] < m.members[j] })
}
