package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/cli/session"
	"github.com/koinsera/botadmin/internal/cli/tui/messages"
	"github.com/koinsera/botadmin/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")).Bold(true).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))
)

const (
	fieldFirstName = iota
	fieldLastName
	fieldEmail
	fieldCompany
	fieldLanguage
	fieldPassword
	fieldCount
)

var fieldLabels = [fieldCount]string{"First name", "Last name", "Email", "Company", "Language", "New password"}

// Model shows the current user and edits the profile.
type Model struct {
	ctx     context.Context
	session *session.Manager
	user    *models.User
	editing bool
	saving  bool
	inputs  [fieldCount]textinput.Model
	focus   int
	err     string
	width   int
	height  int
}

// New creates the profile view
func New(ctx context.Context, m *session.Manager) Model {
	return Model{ctx: ctx, session: m}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetUser replaces the shown user
func (m *Model) SetUser(user *models.User) {
	m.user = user
}

// Editing reports whether the form has text focus
func (m Model) Editing() bool { return m.editing }

// Err returns the last validation or save error
func (m Model) Err() string { return m.err }

func (m *Model) startEditing() tea.Cmd {
	if m.user == nil {
		return nil
	}
	values := [fieldCount]string{
		m.user.FirstName,
		m.user.LastName,
		m.user.Email,
		deref(m.user.Company),
		deref(m.user.LanguageCode),
		"",
	}
	for i := range m.inputs {
		in := textinput.New()
		in.Width = 40
		in.SetValue(values[i])
		if i == fieldPassword {
			in.EchoMode = textinput.EchoPassword
			in.Placeholder = "leave empty to keep"
		}
		m.inputs[i] = in
	}
	m.focus = 0
	m.editing = true
	m.err = ""
	return m.inputs[0].Focus()
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	return m.inputs[m.focus].Focus()
}

// changes builds an update carrying only the fields that differ from the
// current user
func (m Model) changes() models.ProfileUpdate {
	var u models.ProfileUpdate
	if m.user == nil {
		return u
	}
	changed := func(i int, current string) *string {
		v := strings.TrimSpace(m.inputs[i].Value())
		if v == current {
			return nil
		}
		return &v
	}
	u.FirstName = changed(fieldFirstName, m.user.FirstName)
	u.LastName = changed(fieldLastName, m.user.LastName)
	u.Email = changed(fieldEmail, m.user.Email)
	u.Company = changed(fieldCompany, deref(m.user.Company))
	u.LanguageCode = changed(fieldLanguage, deref(m.user.LanguageCode))
	if pw := m.inputs[fieldPassword].Value(); pw != "" {
		u.Password = &pw
	}
	return u
}

func (m *Model) submit() tea.Cmd {
	update := m.changes()
	if update.IsEmpty() {
		m.editing = false
		return func() tea.Msg { return messages.StatusMsg{Text: "No changes"} }
	}
	if err := models.Validate(update); err != nil {
		m.err = err.Error()
		return nil
	}
	m.saving = true
	m.err = ""
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		user, err := s.UpdateProfile(ctx, update)
		return messages.ProfileSavedMsg{User: user, Err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ProfileSavedMsg:
		m.saving = false
		if msg.Err != nil {
			m.err = describe(msg.Err)
			return m, nil
		}
		m.user = msg.User
		m.editing = false
		return m, func() tea.Msg { return messages.StatusMsg{Text: "Profile updated"} }

	case tea.KeyMsg:
		if !m.editing {
			if msg.String() == "e" {
				cmd := m.startEditing()
				return m, cmd
			}
			return m, nil
		}
		if m.saving {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			m.editing = false
			m.err = ""
			return m, nil
		case "tab", "down":
			cmd := m.moveFocus(1)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.moveFocus(-1)
			return m, cmd
		case "ctrl+s":
			cmd := m.submit()
			return m, cmd
		case "enter":
			if m.focus == fieldCount-1 {
				cmd := m.submit()
				return m, cmd
			}
			cmd := m.moveFocus(1)
			return m, cmd
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		parts := make([]string, 0, len(apiErr.Fields))
		for _, f := range apiErr.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

// View renders the profile.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Profile"))
	sb.WriteString("\n\n")

	if m.user == nil {
		sb.WriteString(dimStyle.Render("  Not logged in"))
		return sb.String()
	}

	if m.editing {
		for i := range m.inputs {
			sb.WriteString("  " + labelStyle.Render(fieldLabels[i]) + m.inputs[i].View() + "\n")
		}
		sb.WriteString("\n")
		if m.err != "" {
			sb.WriteString("  " + errorStyle.Render(m.err) + "\n\n")
		}
		if m.saving {
			sb.WriteString("  Saving...")
		} else {
			sb.WriteString("  " + keyStyle.Render("Ctrl+S") + " save, " + keyStyle.Render("Esc") + " cancel")
		}
		return sb.String()
	}

	u := m.user
	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		sb.WriteString("  " + labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("ID", fmt.Sprint(u.ID))
	row("Login", u.Login)
	row("First name", u.FirstName)
	row("Last name", u.LastName)
	row("Email", u.Email)
	row("Company", deref(u.Company))
	row("Language", deref(u.LanguageCode))
	row("Role", map[bool]string{true: "Administrator", false: "User"}[u.IsAdmin])
	row("Created", u.CreatedAt.String())
	if u.LastLogin != nil {
		row("Last login", u.LastLogin.String())
	}
	sb.WriteString("\n")
	if m.err != "" {
		sb.WriteString("  " + errorStyle.Render(m.err) + "\n\n")
	}
	sb.WriteString("  " + keyStyle.Render("e") + dimStyle.Render(" edit"))
	return sb.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
