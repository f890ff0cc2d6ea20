package ui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// executeCommand runs a slash command typed into the input field.
func (m Model) executeCommand(text string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(text)
	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	switch name {
	case "help":
		m.overlay = overlayHelp

	case "join":
		if len(args) != 1 {
			m.errorMessage = "usage: /join <code>"
			break
		}
		m.client.JoinGroup(args[0])
		m.statusMessage = "joining with code " + args[0]

	case "create":
		if len(args) == 0 {
			m.errorMessage = "usage: /create <name> [description]"
			break
		}
		m.client.CreateGroup(args[0], strings.Join(args[1:], " "))

	case "browse":
		m.client.BrowseGroups()

	case "invites":
		if m.currentGroupID == 0 {
			m.errorMessage = "no group selected"
			break
		}
		m.client.RequestInviteCodes(m.currentGroupID)

	case "invite":
		if m.currentGroupID == 0 {
			m.errorMessage = "no group selected"
			break
		}
		maxUses := -1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				m.errorMessage = "usage: /invite [max-uses]"
				break
			}
			maxUses = n
		}
		m.client.CreateInviteCode(m.currentGroupID, maxUses)
		m.client.RequestInviteCodes(m.currentGroupID)

	case "revoke":
		if len(args) != 1 || m.currentGroupID == 0 {
			m.errorMessage = "usage: /revoke <code> (with a group selected)"
			break
		}
		m.client.RevokeInviteCode(m.currentGroupID, args[0])
		m.client.RequestInviteCodes(m.currentGroupID)

	case "attach":
		if len(args) != 1 {
			m.errorMessage = "usage: /attach <path>"
			break
		}
		if err := m.client.AttachFile(args[0]); err != nil {
			m.errorMessage = err.Error()
			break
		}
		m.statusMessage = "attached " + args[0]

	case "delete":
		if len(args) != 1 || m.currentGroupID == 0 {
			m.errorMessage = "usage: /delete <message-id> (with a group selected)"
			break
		}
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			m.errorMessage = "bad message id: " + args[0]
			break
		}
		m.client.DeleteMessage(m.currentGroupID, id)

	case "deletegroup":
		if m.currentGroupID == 0 {
			m.errorMessage = "no group selected"
			break
		}
		m.client.DeleteGroup(m.currentGroupID)

	case "nick":
		if len(args) != 1 {
			m.errorMessage = "usage: /nick <username>"
			break
		}
		if err := m.client.EditAccount(args[0], "", ""); err != nil {
			m.errorMessage = err.Error()
		}

	case "name":
		if len(args) == 0 {
			m.errorMessage = "usage: /name <display name>"
			break
		}
		if err := m.client.EditAccount("", strings.Join(args, " "), ""); err != nil {
			m.errorMessage = err.Error()
		}

	case "pfp":
		if len(args) != 1 {
			m.errorMessage = "usage: /pfp <path>"
			break
		}
		if err := m.client.EditAccount("", "", args[0]); err != nil {
			m.errorMessage = err.Error()
		}

	case "notify":
		if len(args) == 1 && args[0] == "off" {
			m.notificationsOn = false
			m.statusMessage = "notifications off"
		} else {
			m.notificationsOn = true
			m.statusMessage = "notifications on"
		}

	case "logout":
		m.client.Logout()

	case "quit":
		return m, tea.Quit

	default:
		m.errorMessage = "unknown command: /" + name
	}

	return m, nil
}
