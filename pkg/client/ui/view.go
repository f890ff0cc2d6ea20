package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wrenchat/wren/pkg/client"
)

const (
	sidebarWidth = 22
	memberWidth  = 18
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	unreadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	senderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("205"))
)

func (m *Model) messageWidth() int {
	w := m.width - sidebarWidth - memberWidth - 8
	if w < 20 {
		w = 20
	}
	return w
}

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "\n  " + m.spinner.View() + " starting..."
	}
	if m.loginRequired {
		return m.renderLogin()
	}

	switch m.overlay {
	case overlayBrowse:
		return m.renderBrowse()
	case overlayInvites:
		return m.renderInvites()
	case overlayHelp:
		return m.renderHelp()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderGroupList(),
		m.renderMessagePane(),
		m.renderMemberPane(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	title := headerStyle.Render("wren " + m.version)
	where := ""
	if m.currentName != "" {
		where = " | " + m.currentName
	}
	return title + dimStyle.Render(where)
}

func (m Model) renderGroupList() string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("groups") + "\n")
	for i, g := range m.groups {
		line := g.Name
		if g.Unread > 0 {
			line += unreadStyle.Render(fmt.Sprintf(" (%d)", g.Unread))
		}
		if g.ID == m.currentGroupID {
			line = "* " + line
		} else {
			line = "  " + line
		}
		if m.focus == focusGroups && i == m.groupCursor {
			line = cursorStyle.Render(">") + line[1:]
		}
		b.WriteString(line + "\n")
	}
	if len(m.groups) == 0 {
		b.WriteString(dimStyle.Render("  (none yet)\n"))
	}

	style := paneStyle
	if m.focus == focusGroups {
		style = focusedPaneStyle
	}
	return style.Width(sidebarWidth).Height(m.height - 4).Render(b.String())
}

func (m Model) renderMessagePane() string {
	var header string
	if m.loadingHistory {
		header = m.spinner.View() + " loading older messages\n"
	}

	style := paneStyle
	if m.focus == focusMessages {
		style = focusedPaneStyle
	}
	pane := style.Width(m.messageWidth() + 2).Render(header + m.viewport.View())

	inputStyle := paneStyle
	if m.focus == focusInput {
		inputStyle = focusedPaneStyle
	}
	input := inputStyle.Width(m.messageWidth() + 2).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, pane, input)
}

func (m Model) renderMemberPane() string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("members") + "\n")
	for _, id := range m.members {
		name := m.displayName(id)
		if u, ok := m.users[id]; ok && u.Status != "" {
			name += dimStyle.Render(" " + u.Status)
		}
		b.WriteString(name + "\n")
	}
	return paneStyle.Width(memberWidth).Height(m.height - 4).Render(b.String())
}

func (m Model) renderStatusBar() string {
	var status string
	switch m.connState {
	case client.StateConnected:
		status = "connected"
	case client.StateConnecting:
		status = fmt.Sprintf("reconnecting (attempt %d)...", m.reconnectAttempt)
	default:
		status = "disconnected"
	}

	left := dimStyle.Render(status)
	if m.self != nil {
		left += dimStyle.Render(" | " + m.self.Displayname)
	}
	if m.statusMessage != "" {
		left += " | " + m.statusMessage
	}
	if m.errorMessage != "" {
		left += " " + errorStyle.Render(m.errorMessage)
	}
	return left
}

func (m Model) renderLogin() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		headerStyle.Render("not logged in"),
		"",
		"No session token is stored on this machine.",
		"Log in from a browser, copy the token, then run:",
		"",
		cursorStyle.Render("  wren login <token>"),
		"",
		dimStyle.Render("press q to quit"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		paneStyle.Render(content))
}

func (m Model) renderBrowse() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("all groups") + "\n\n")
	for i, row := range m.browseRows {
		prefix := "  "
		if i == m.browseCursor {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", prefix, row.Name,
			dimStyle.Render("owned by "+row.OwnerName)))
		if row.Desc != "" {
			b.WriteString(dimStyle.Render("    "+row.Desc) + "\n")
		}
	}
	if len(m.browseRows) == 0 {
		b.WriteString(dimStyle.Render("  no public groups\n"))
	}
	b.WriteString("\n" + dimStyle.Render("esc to close"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		paneStyle.Render(b.String()))
}

func (m Model) renderInvites() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("invite codes") + "\n\n")
	for _, code := range m.inviteCodes {
		uses := strconv.Itoa(code.Uses)
		if code.MaxUses >= 0 {
			uses += "/" + strconv.Itoa(code.MaxUses)
		}
		b.WriteString(fmt.Sprintf("  %s  %s\n", code.Code, dimStyle.Render("uses: "+uses)))
	}
	if len(m.inviteCodes) == 0 {
		b.WriteString(dimStyle.Render("  none\n"))
	}
	b.WriteString("\n" + dimStyle.Render("n to create, esc to close"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		paneStyle.Render(b.String()))
}

func (m Model) renderHelp() string {
	help := `commands

  /join <code>         join a group by invite code
  /create <name> [d]   create a group
  /browse              list all public groups
  /invites             show invite codes for the open group
  /invite [max-uses]   mint an invite code
  /revoke <code>       revoke an invite code
  /attach <path>       stage a file for the next message
  /delete <msg-id>     delete a message
  /deletegroup         delete the open group
  /nick <username>     change username
  /name <display>      change display name
  /pfp <path>          change profile picture
  /notify on|off       toggle desktop notifications
  /logout              drop the stored session
  /quit                exit

tab cycles panes; enter selects a group or sends a message;
scrolling past the top of the messages loads older history.

press any key to close`
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		paneStyle.Render(help))
}

func formatTimestamp(unix int64) string {
	return time.Unix(unix, 0).Local().Format("15:04")
}

func (m *Model) buildMessageContent() string {
	if m.currentGroupID == 0 {
		return dimStyle.Render("select a group (tab to the group list, enter to open)")
	}

	var b strings.Builder
	for _, msg := range m.messages {
		b.WriteString(timeStyle.Render(formatTimestamp(msg.Timestamp)))
		b.WriteString(" ")
		b.WriteString(senderStyle.Render(m.displayName(msg.UserID)))
		b.WriteString(" ")
		b.WriteString(msg.Content)
		for _, att := range msg.Attachments {
			b.WriteString(dimStyle.Render(" [" + att.Name + "]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
