package login

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/cli/session"
	"github.com/koinsera/botadmin/internal/cli/tui/messages"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")).Bold(true).
			Padding(1, 0)
)

// Model is the login form view.
type Model struct {
	ctx           context.Context
	session       *session.Manager
	server        string
	usernameInput textinput.Model
	passwordInput textinput.Model
	focusIndex    int
	err           string
	notice        string
	submitting    bool
	width         int
	height        int
}

// New creates a new login form.
func New(ctx context.Context, m *session.Manager, server string) Model {
	usernameInput := textinput.New()
	usernameInput.Placeholder = "login or email"
	usernameInput.Focus()
	usernameInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.Width = 30

	return Model{
		ctx:           ctx,
		session:       m,
		server:        server,
		usernameInput: usernameInput,
		passwordInput: passwordInput,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetNotice shows a message above the form, e.g. why the user was logged out
func (m *Model) SetNotice(text string) {
	m.notice = text
}

// Submitting reports whether a login request is in flight
func (m Model) Submitting() bool { return m.submitting }

// Err returns the last login error shown
func (m Model) Err() string { return m.err }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.usernameInput.Blur()
				m.passwordInput.Focus()
			} else {
				m.focusIndex = 0
				m.passwordInput.Blur()
				m.usernameInput.Focus()
			}
			return m, nil
		case "enter":
			if m.submitting {
				return m, nil
			}
			username := strings.TrimSpace(m.usernameInput.Value())
			password := m.passwordInput.Value()
			if username == "" || password == "" {
				m.err = "Login and password required"
				return m, nil
			}
			m.submitting = true
			m.err = ""
			ctx, s := m.ctx, m.session
			return m, func() tea.Msg {
				return messages.LoginResultMsg{Err: s.Login(ctx, username, password)}
			}
		}

	case messages.LoginResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = describe(msg.Err)
			return m, nil
		}
		m.err = ""
		m.notice = ""
		m.passwordInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.usernameInput, cmd = m.usernameInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrTransport):
		return "Cannot reach the server"
	case errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.StatusCode < 500:
		return apiErr.Message
	}
	return err.Error()
}

// View renders the login form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Log in to " + m.server))
	sb.WriteString("\n\n")
	if m.notice != "" {
		sb.WriteString(noticeStyle.Render(m.notice))
		sb.WriteString("\n\n")
	}
	sb.WriteString(labelStyle.Render("Login:"))
	sb.WriteString("\n")
	sb.WriteString(m.usernameInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("Password:"))
	sb.WriteString("\n")
	sb.WriteString(m.passwordInput.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	if m.submitting {
		sb.WriteString("Logging in...")
	} else {
		sb.WriteString(focusedStyle.Render("Enter") + " to submit, " + focusedStyle.Render("Ctrl+C") + " to quit")
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
