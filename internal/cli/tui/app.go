package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/koinsera/botadmin/internal/cli/session"
	"github.com/koinsera/botadmin/internal/cli/tui/login"
	"github.com/koinsera/botadmin/internal/cli/tui/messages"
	"github.com/koinsera/botadmin/internal/cli/tui/profile"
	"github.com/koinsera/botadmin/internal/cli/tui/statusbar"
	"github.com/koinsera/botadmin/internal/cli/tui/tableview"
	"github.com/koinsera/botadmin/internal/models"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewLogin ViewType = iota
	ViewUsers
	ViewBots
	ViewChats
	ViewEmployees
	ViewParticipants
	ViewProfile
)

var viewLabels = map[ViewType]string{
	ViewUsers:        "Users",
	ViewBots:         "Bots",
	ViewChats:        "Chats",
	ViewEmployees:    "Employees",
	ViewParticipants: "Participants",
	ViewProfile:      "Profile",
}

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	session *session.Manager
	server  string

	// View state
	activeView ViewType
	tabs       []ViewType

	// Child models
	tables    map[ViewType]tableview.Model
	loginForm login.Model
	profile   profile.Model
	statusBar statusbar.Model

	// Dimensions
	width  int
	height int
}

// NewApp creates the root application model.
func NewApp(ctx context.Context, m *session.Manager, server string) *App {
	return &App{
		ctx:        ctx,
		session:    m,
		server:     server,
		activeView: ViewLogin,
		tables:     map[ViewType]tableview.Model{},
		loginForm:  login.New(ctx, m, server),
		profile:    profile.New(ctx, m),
		statusBar:  statusbar.New(),
	}
}

// Subscribe forwards session events to send, normally tea.Program.Send.
// Call the returned function when the program exits.
func (a *App) Subscribe(send func(tea.Msg)) (unsubscribe func()) {
	return a.session.Subscribe(func(ev session.Event) {
		send(messages.SessionEventMsg{Event: ev})
	})
}

// ActiveView returns the view currently shown
func (a *App) ActiveView() ViewType { return a.activeView }

// Table returns the table model behind view v
func (a *App) Table(v ViewType) (tableview.Model, bool) {
	t, ok := a.tables[v]
	return t, ok
}

// Init confirms any stored session before showing data.
func (a *App) Init() tea.Cmd {
	ctx, s := a.ctx, a.session
	return func() tea.Msg {
		if err := s.Init(ctx); err != nil {
			return messages.SessionReadyMsg{Err: err}
		}
		return messages.SessionReadyMsg{User: s.CurrentUser()}
	}
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case messages.SessionReadyMsg:
		if msg.Err != nil {
			return a, a.showLogin("Could not read stored session: " + msg.Err.Error())
		}
		if msg.User == nil {
			return a, a.showLogin("")
		}
		return a, a.enter(msg.User)

	case messages.SessionEventMsg:
		switch msg.Event.Type {
		case session.EventLoggedIn:
			user := msg.Event.User
			if user == nil {
				user = a.session.CurrentUser()
			}
			if user != nil {
				return a, a.enter(user)
			}
		case session.EventLoggedOut:
			return a, a.showLogin("Logged out")
		case session.EventUnauthorized:
			return a, a.showLogin("Your session has expired, please log in again")
		}
		return a, nil

	case messages.OpenParticipantsMsg:
		source := tableview.Participants(msg.ChatID)
		if msg.Title != "" && msg.Title != "-" {
			source.Title = msg.Title + " participants"
		}
		t := tableview.New(a.ctx, a.session.API(), source)
		a.tables[ViewParticipants] = t
		a.resize()
		return a, a.switchTo(ViewParticipants)

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil

	case messages.ProfileSavedMsg:
		if msg.Err == nil && msg.User != nil {
			a.statusBar.SetUser(msg.User.Login, msg.User.IsAdmin)
		}
		var cmd tea.Cmd
		a.profile, cmd = a.profile.Update(msg)
		return a, cmd

	case tableview.LoadedMsg:
		return a, a.routeTable(msg.Source, msg)

	case tableview.ToggledMsg:
		if msg.Err != nil {
			a.statusBar.SetStatus("Update failed", true)
		}
		return a, a.routeTable(msg.Source, msg)
	}

	// Route to active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	case ViewProfile:
		a.profile, cmd = a.profile.Update(msg)
	default:
		if t, ok := a.tables[a.activeView]; ok {
			t, cmd = t.Update(msg)
			a.tables[a.activeView] = t
		}
	}
	return a, cmd
}

// handleKey processes global keys. Text input views only get ctrl+c.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if a.activeView == ViewLogin || (a.activeView == ViewProfile && a.profile.Editing()) {
		return nil, false
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, Keys.Back):
		return a.goBack(), true
	case key.Matches(msg, Keys.NextTab):
		return a.cycleTab(1), true
	case key.Matches(msg, Keys.PrevTab):
		return a.cycleTab(-1), true
	case key.Matches(msg, Keys.Profile):
		return a.switchTo(ViewProfile), true
	case key.Matches(msg, Keys.Logout):
		s := a.session
		// Logout publishes an event that re-enters the program, so it must
		// not run on the update loop.
		return func() tea.Msg {
			s.Logout()
			return nil
		}, true
	}

	if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(a.tabs) {
		return a.switchTo(a.tabs[n-1]), true
	}
	return nil, false
}

// enter shows the dashboard for a freshly confirmed user. Tables from a
// previous session are discarded.
func (a *App) enter(user *models.User) tea.Cmd {
	a.statusBar.SetUser(user.Login, user.IsAdmin)
	a.statusBar.SetStatus("", false)
	a.profile.SetUser(user)

	api := a.session.API()
	a.tables = map[ViewType]tableview.Model{
		ViewBots:      tableview.New(a.ctx, api, tableview.Bots()),
		ViewChats:     tableview.New(a.ctx, api, tableview.Chats()),
		ViewEmployees: tableview.New(a.ctx, api, tableview.Employees()),
	}
	a.tabs = []ViewType{ViewBots, ViewChats, ViewEmployees}
	if user.IsAdmin {
		a.tables[ViewUsers] = tableview.New(a.ctx, api, tableview.Users())
		a.tabs = append([]ViewType{ViewUsers}, a.tabs...)
	}
	a.tabs = append(a.tabs, ViewProfile)
	a.resize()

	return a.switchTo(ViewBots)
}

// showLogin drops all session data and shows the login form
func (a *App) showLogin(notice string) tea.Cmd {
	a.tables = map[ViewType]tableview.Model{}
	a.tabs = nil
	a.profile.SetUser(nil)
	a.statusBar.SetUser("", false)
	a.statusBar.SetStatus("", false)

	a.loginForm = login.New(a.ctx, a.session, a.server)
	a.loginForm.SetNotice(notice)
	a.activeView = ViewLogin
	a.resize()
	a.updateTabs()
	return nil
}

// switchTo activates v, loading its table the first time it is shown
func (a *App) switchTo(v ViewType) tea.Cmd {
	a.activeView = v
	a.updateTabs()

	t, ok := a.tables[v]
	if !ok || t.Loaded() || t.Loading() {
		return nil
	}
	cmd := t.Refresh()
	a.tables[v] = t
	return cmd
}

func (a *App) goBack() tea.Cmd {
	if a.activeView == ViewParticipants {
		return a.switchTo(ViewChats)
	}
	return nil
}

func (a *App) cycleTab(delta int) tea.Cmd {
	if len(a.tabs) == 0 {
		return nil
	}
	current := 0
	for i, v := range a.tabs {
		if v == a.activeView {
			current = i
			break
		}
	}
	next := (current + delta + len(a.tabs)) % len(a.tabs)
	return a.switchTo(a.tabs[next])
}

func (a *App) routeTable(source string, msg tea.Msg) tea.Cmd {
	for v, t := range a.tables {
		if t.Name() != source {
			continue
		}
		var cmd tea.Cmd
		t, cmd = t.Update(msg)
		a.tables[v] = t
		return cmd
	}
	return nil
}

func (a *App) updateTabs() {
	tabs := make([]statusbar.Tab, 0, len(a.tabs)+1)
	for i, v := range a.tabs {
		tabs = append(tabs, statusbar.Tab{
			Label:  fmt.Sprintf("%d %s", i+1, viewLabels[v]),
			Active: v == a.activeView,
		})
	}
	if a.activeView == ViewParticipants {
		tabs = append(tabs, statusbar.Tab{Label: viewLabels[ViewParticipants], Active: true})
	}
	a.statusBar.SetTabs(tabs)
}

func (a *App) contentHeight() int {
	// header and status bar
	return a.height - 2
}

func (a *App) resize() {
	h := a.contentHeight()
	a.statusBar.SetSize(a.width)
	a.loginForm.SetSize(a.width, h)
	a.profile.SetSize(a.width, h)
	for v, t := range a.tables {
		t.SetSize(a.width, h)
		a.tables[v] = t
	}
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewLogin:
		content = a.loginForm.View()
	case ViewProfile:
		content = a.profile.View()
	default:
		if t, ok := a.tables[a.activeView]; ok {
			content = t.View()
		}
	}

	header := HeaderStyle.Render("botadmin") + ServerStyle.Render(a.server)
	if a.activeView != ViewLogin {
		help := []string{"tab:switch", "1-" + strconv.Itoa(len(a.tabs)) + ":jump", "p:profile", "L:log out", "q:quit"}
		if a.activeView == ViewParticipants {
			help = append([]string{"esc:back"}, help...)
		}
		header += HelpStyle.Render(strings.Join(help, "  "))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, content, a.statusBar.View())
}
