package tui_test

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinsera/botadmin/internal/auth"
	cliauth "github.com/koinsera/botadmin/internal/cli/auth"
	"github.com/koinsera/botadmin/internal/cli/session"
	"github.com/koinsera/botadmin/internal/cli/tui"
	"github.com/koinsera/botadmin/internal/cli/tui/messages"
	"github.com/koinsera/botadmin/internal/cli/tui/tableview"
	"github.com/koinsera/botadmin/internal/devserver"
	"github.com/koinsera/botadmin/internal/devserver/devservertest"
)

// inbox collects what the session sends into the program
type inbox struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (i *inbox) send(msg tea.Msg) {
	i.mu.Lock()
	i.msgs = append(i.msgs, msg)
	i.mu.Unlock()
}

func (i *inbox) take() []tea.Msg {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.msgs
	i.msgs = nil
	return out
}

type harness struct {
	app     *tui.App
	session *session.Manager
	store   *cliauth.MemoryStore
	backend *devservertest.Backend
	inbox   *inbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := devservertest.Start(t, true)
	store := cliauth.NewMemoryStore()
	m := session.New(backend.URL, store, session.WithHTTPClient(backend.Client()))
	t.Cleanup(func() { m.Close() })

	h := &harness{
		app:     tui.NewApp(context.Background(), m, backend.URL),
		session: m,
		store:   store,
		backend: backend,
		inbox:   &inbox{},
	}
	t.Cleanup(h.app.Subscribe(h.inbox.send))
	h.app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// run delivers cmd's messages, then anything the session published, until
// the program goes quiet
func (h *harness) run(cmd tea.Cmd) {
	pending := []tea.Cmd{cmd}
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			pending = append(pending, batch...)
			continue
		}
		var msgs []tea.Msg
		if msg != nil {
			msgs = append(msgs, msg)
		}
		msgs = append(msgs, h.inbox.take()...)
		for _, m := range msgs {
			_, next := h.app.Update(m)
			pending = append(pending, next)
		}
	}
	for _, m := range h.inbox.take() {
		_, next := h.app.Update(m)
		h.run(next)
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApp_StartsAtLoginWithoutSession(t *testing.T) {
	h := newHarness(t)

	h.run(h.app.Init())

	assert.Equal(t, tui.ViewLogin, h.app.ActiveView())
	assert.Contains(t, h.app.View(), "Log in to "+h.backend.URL)
	assert.Empty(t, h.backend.Requests())
}

func TestApp_RestoresStoredSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SaveToken(h.backend.URL, h.backend.Token(t, devserver.DemoAdminLogin)))

	h.run(h.app.Init())

	assert.Equal(t, tui.ViewBots, h.app.ActiveView())
	bots, ok := h.app.Table(tui.ViewBots)
	require.True(t, ok)
	assert.True(t, bots.Loaded())

	_, ok = h.app.Table(tui.ViewUsers)
	assert.True(t, ok, "admins get the users tab")

	view := h.app.View()
	assert.Contains(t, view, "ADMIN")
	assert.Contains(t, view, "1 Users")
}

func TestApp_LoginEventShowsDashboard(t *testing.T) {
	h := newHarness(t)
	h.run(h.app.Init())

	require.NoError(t, h.session.Login(context.Background(), devserver.DemoUserLogin, devserver.DemoUserPassword))
	h.run(nil)

	assert.Equal(t, tui.ViewBots, h.app.ActiveView())
	_, ok := h.app.Table(tui.ViewUsers)
	assert.False(t, ok, "regular users have no users tab")

	bots, ok := h.app.Table(tui.ViewBots)
	require.True(t, ok)
	assert.Len(t, bots.Records(), 2)
	assert.Contains(t, h.app.View(), "alice")
}

func TestApp_UnauthorizedReturnsToLogin(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SaveToken(h.backend.URL, h.backend.Token(t, devserver.DemoUserLogin)))
	h.run(h.app.Init())
	require.Equal(t, tui.ViewBots, h.app.ActiveView())

	// the stored session expires while the dashboard is open
	expired, err := auth.NewIssuer(devservertest.Secret, -time.Minute).GenerateToken(devserver.DemoUserLogin)
	require.NoError(t, err)
	require.NoError(t, h.store.SaveToken(h.backend.URL, expired))
	require.NoError(t, h.session.Restore())

	h.run(func() tea.Msg { return keyPress("2") })

	assert.Equal(t, tui.ViewLogin, h.app.ActiveView())
	assert.Contains(t, h.app.View(), "Your session has expired, please log in again")
	_, ok := h.app.Table(tui.ViewBots)
	assert.False(t, ok, "tables are dropped with the session")
}

func TestApp_Logout(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SaveToken(h.backend.URL, h.backend.Token(t, devserver.DemoUserLogin)))
	h.run(h.app.Init())

	_, cmd := h.app.Update(keyPress("L"))
	require.NotNil(t, cmd)
	h.run(cmd)

	assert.Equal(t, tui.ViewLogin, h.app.ActiveView())
	assert.Contains(t, h.app.View(), "Logged out")
	assert.False(t, h.session.Authenticated())
}

func TestApp_TabsAndParticipants(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SaveToken(h.backend.URL, h.backend.Token(t, devserver.DemoUserLogin)))
	h.run(h.app.Init())

	_, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyTab})
	h.run(cmd)
	require.Equal(t, tui.ViewChats, h.app.ActiveView())

	h.run(func() tea.Msg { return messages.OpenParticipantsMsg{ChatID: 1, Title: "Support team"} })
	require.Equal(t, tui.ViewParticipants, h.app.ActiveView())

	participants, ok := h.app.Table(tui.ViewParticipants)
	require.True(t, ok)
	assert.Len(t, participants.Records(), 2)
	assert.Equal(t, "Support team participants", participants.Title())

	_, cmd = h.app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	h.run(cmd)
	assert.Equal(t, tui.ViewChats, h.app.ActiveView())

	_, cmd = h.app.Update(keyPress("p"))
	h.run(cmd)
	assert.Equal(t, tui.ViewProfile, h.app.ActiveView())
	assert.Contains(t, h.app.View(), "Alice")
}

func TestApp_ToggleFailureSetsStatus(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SaveToken(h.backend.URL, h.backend.Token(t, devserver.DemoUserLogin)))
	h.run(h.app.Init())

	h.run(func() tea.Msg {
		return tableview.ToggledMsg{Source: "bots", Flag: tableview.FlagActive, ID: 9, Err: assert.AnError}
	})

	bots, ok := h.app.Table(tui.ViewBots)
	require.True(t, ok)
	assert.Equal(t, assert.AnError.Error(), bots.Err())
	assert.Contains(t, h.app.View(), "Update failed")
}
