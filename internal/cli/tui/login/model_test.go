package login_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cliauth "github.com/koinsera/botadmin/internal/cli/auth"
	"github.com/koinsera/botadmin/internal/cli/session"
	"github.com/koinsera/botadmin/internal/cli/tui/login"
	"github.com/koinsera/botadmin/internal/cli/tui/messages"
	"github.com/koinsera/botadmin/internal/devserver"
	"github.com/koinsera/botadmin/internal/devserver/devservertest"
)

func newForm(t *testing.T) (login.Model, *session.Manager, *devservertest.Backend) {
	t.Helper()
	backend := devservertest.Start(t, true)
	m := session.New(backend.URL, cliauth.NewMemoryStore(), session.WithHTTPClient(backend.Client()))
	t.Cleanup(func() { m.Close() })
	return login.New(context.Background(), m, backend.URL), m, backend
}

func typeText(form login.Model, s string) login.Model {
	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return form
}

func fill(form login.Model, username, password string) login.Model {
	form = typeText(form, username)
	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyTab})
	return typeText(form, password)
}

func submit(t *testing.T, form login.Model) (login.Model, messages.LoginResultMsg) {
	t.Helper()
	form, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, form.Submitting())

	result, ok := cmd().(messages.LoginResultMsg)
	require.True(t, ok)
	form, _ = form.Update(result)
	assert.False(t, form.Submitting())
	return form, result
}

func TestLogin_RequiresBothFields(t *testing.T) {
	form, _, backend := newForm(t)

	form, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "Login and password required", form.Err())

	form = typeText(form, "alice")
	form, cmd = form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "Login and password required", form.Err())
	assert.Empty(t, backend.Requests())
}

func TestLogin_WrongPasswordShowsBackendMessage(t *testing.T) {
	form, m, _ := newForm(t)

	form = fill(form, devserver.DemoUserLogin, "wrong")
	form, result := submit(t, form)

	assert.Error(t, result.Err)
	assert.Equal(t, "Incorrect username or password", form.Err())
	assert.False(t, m.Authenticated())
	assert.Contains(t, form.View(), "Incorrect username or password")
}

func TestLogin_Success(t *testing.T) {
	form, m, _ := newForm(t)
	form.SetNotice("Your session has expired, please log in again")

	form = fill(form, "  "+devserver.DemoUserLogin+" ", devserver.DemoUserPassword)
	form, result := submit(t, form)

	require.NoError(t, result.Err)
	assert.Empty(t, form.Err())
	assert.True(t, m.Authenticated())
	assert.Equal(t, "alice", m.CurrentUser().Login)
	assert.NotContains(t, form.View(), "session has expired")
}

func TestLogin_UnreachableServer(t *testing.T) {
	url := "http://127.0.0.1:1"
	m := session.New(url, cliauth.NewMemoryStore())
	t.Cleanup(func() { m.Close() })
	form := login.New(context.Background(), m, url)

	form = fill(form, "alice", "secret")
	form, _ = submit(t, form)
	assert.Equal(t, "Cannot reach the server", form.Err())
}
