package profile

import (
	"context"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cliauth "github.com/koinsera/botadmin/internal/cli/auth"
	"github.com/koinsera/botadmin/internal/cli/session"
	"github.com/koinsera/botadmin/internal/cli/tui/messages"
	"github.com/koinsera/botadmin/internal/devserver"
	"github.com/koinsera/botadmin/internal/devserver/devservertest"
)

func editing(t *testing.T) (Model, *session.Manager, *devservertest.Backend) {
	t.Helper()
	backend := devservertest.Start(t, true)
	m := session.New(backend.URL, cliauth.NewMemoryStore(), session.WithHTTPClient(backend.Client()))
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.Login(context.Background(), devserver.DemoUserLogin, devserver.DemoUserPassword))
	backend.Reset()

	view := New(context.Background(), m)
	view.SetUser(m.CurrentUser())
	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	require.True(t, view.Editing())
	return view, m, backend
}

func save(view Model) (Model, tea.Cmd) {
	return view.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
}

func TestChanges_OnlyEditedFields(t *testing.T) {
	view, _, _ := editing(t)
	assert.True(t, view.changes().IsEmpty())

	view.inputs[fieldLastName].SetValue(" Jones ")
	view.inputs[fieldCompany].SetValue("Acme")

	u := view.changes()
	require.NotNil(t, u.LastName)
	assert.Equal(t, "Jones", *u.LastName)
	assert.Nil(t, u.FirstName)
	assert.Nil(t, u.Email)
	assert.Nil(t, u.Company, "company is unchanged")
	assert.Nil(t, u.Password)

	view.inputs[fieldPassword].SetValue("n3wpassword")
	u = view.changes()
	require.NotNil(t, u.Password)
	assert.Equal(t, "n3wpassword", *u.Password)
}

func TestSubmit_NoChanges(t *testing.T) {
	view, _, backend := editing(t)

	view, cmd := save(view)
	require.NotNil(t, cmd)
	assert.False(t, view.Editing())
	assert.Equal(t, messages.StatusMsg{Text: "No changes"}, cmd())
	assert.Empty(t, backend.Requests())
}

func TestSubmit_ValidationStaysLocal(t *testing.T) {
	view, _, backend := editing(t)
	view.inputs[fieldEmail].SetValue("not-an-email")

	view, cmd := save(view)
	assert.Nil(t, cmd)
	assert.True(t, view.Editing())
	assert.Contains(t, view.Err(), "email: must be a valid email address")
	assert.Empty(t, backend.Requests())
}

func TestSubmit_SavesAndShowsFreshUser(t *testing.T) {
	view, m, backend := editing(t)
	view.inputs[fieldLastName].SetValue("Jones")

	view, cmd := save(view)
	require.NotNil(t, cmd)
	assert.True(t, view.saving)

	saved, ok := cmd().(messages.ProfileSavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.Err)

	assert.Equal(t, 1, backend.Count(http.MethodPut, "/api/admin/me"))
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/api/auth/me"))
	assert.JSONEq(t, `{"last_name":"Jones"}`, backend.Last(http.MethodPut).Body)

	view, cmd = view.Update(saved)
	assert.False(t, view.Editing())
	assert.Equal(t, messages.StatusMsg{Text: "Profile updated"}, cmd())
	assert.Equal(t, "Jones", m.CurrentUser().LastName)
	assert.Contains(t, view.View(), "Jones")
}

func TestSubmit_BackendRejection(t *testing.T) {
	view, _, _ := editing(t)
	view.inputs[fieldEmail].SetValue("admin@example.com")

	view, cmd := save(view)
	require.NotNil(t, cmd)
	view, _ = view.Update(cmd())

	assert.True(t, view.Editing())
	assert.Contains(t, view.Err(), "Email already registered")
}

func TestEscCancelsEditing(t *testing.T) {
	view, _, _ := editing(t)
	view.inputs[fieldFirstName].SetValue("Changed")

	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, view.Editing())
	assert.Contains(t, view.View(), "Alice")
	assert.NotContains(t, view.View(), "Changed")
}
