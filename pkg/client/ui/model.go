package ui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wrenchat/wren/pkg/client"
	"github.com/wrenchat/wren/pkg/protocol"
)

// focusArea is which pane receives key input.
type focusArea int

const (
	focusGroups focusArea = iota
	focusMessages
	focusInput
)

// overlay is a full-screen panel stacked over the chat layout.
type overlay int

const (
	overlayNone overlay = iota
	overlayBrowse
	overlayInvites
	overlayHelp
)

type groupEntry struct {
	ID     uint64
	Name   string
	Unread int
}

// Model is the terminal chat UI. It renders from its own copies of the data;
// the session core feeds it through the Adapter and it talks back through the
// client's action methods, so the two sides never share mutable state.
type Model struct {
	client  *client.Client
	version string

	width  int
	height int
	ready  bool

	focus   focusArea
	overlay overlay

	connState        client.ConnState
	reconnectAttempt int
	loginRequired    bool

	self    *protocol.User
	users   map[uint64]protocol.User
	members []uint64

	groups         []groupEntry
	groupCursor    int
	currentGroupID uint64
	currentName    string
	messages       []protocol.Message

	browseRows   []BrowseRowMsg
	browseCursor int

	inviteCodes   []protocol.InviteCode
	inviteGroupID uint64

	loadingHistory  bool
	historyComplete bool
	notificationsOn bool

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	errorMessage  string
	statusMessage string
}

// NewModel creates the UI bound to a session client.
func NewModel(c *client.Client, version string) Model {
	ta := textarea.New()
	ta.Placeholder = "Message (enter to send, /help for commands)"
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		client:          c,
		version:         version,
		focus:           focusInput,
		connState:       client.StateConnecting,
		users:           make(map[uint64]protocol.User),
		input:           ta,
		spinner:         sp,
		notificationsOn: true,
	}
}

// Init starts the spinner and cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textarea.Blink)
}

// displayName resolves a user id to something printable, falling back to the
// numeric id for senders whose record hasn't arrived yet.
func (m *Model) displayName(id uint64) string {
	if u, ok := m.users[id]; ok {
		if u.Displayname != "" {
			return u.Displayname
		}
		if u.Username != "" {
			return u.Username
		}
	}
	return strconv.FormatUint(id, 10)
}

func (m *Model) groupIndex(id uint64) int {
	for i, g := range m.groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) rememberUser(u protocol.User) {
	m.users[u.UserID] = u
}
