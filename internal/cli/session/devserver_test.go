package session_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinsera/botadmin/internal/auth"
	cliauth "github.com/koinsera/botadmin/internal/cli/auth"
	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/cli/session"
	"github.com/koinsera/botadmin/internal/devserver"
	"github.com/koinsera/botadmin/internal/devserver/devservertest"
	"github.com/koinsera/botadmin/internal/models"
)

type events struct {
	mu   sync.Mutex
	seen []session.EventType
}

func (e *events) record(ev session.Event) {
	e.mu.Lock()
	e.seen = append(e.seen, ev.Type)
	e.mu.Unlock()
}

func (e *events) types() []session.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]session.EventType(nil), e.seen...)
}

func newManager(t *testing.T, backend *devservertest.Backend) (*session.Manager, *cliauth.MemoryStore, *events) {
	t.Helper()
	store := cliauth.NewMemoryStore()
	m := session.New(backend.URL, store)
	t.Cleanup(func() { m.Close() })

	ev := &events{}
	m.Subscribe(ev.record)
	return m, store, ev
}

func TestDevServer_LoginLogout(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, store, ev := newManager(t, backend)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, devserver.DemoUserLogin, devserver.DemoUserPassword))

	user := m.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Login)
	assert.Equal(t, "Alice Smith", user.DisplayName())
	require.NotNil(t, user.LastLogin)

	stored, err := store.LoadToken(backend.URL)
	require.NoError(t, err)
	assert.Equal(t, m.Token(), stored)
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/api/auth/token"))
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/api/auth/me"))

	m.Logout()
	assert.Nil(t, m.CurrentUser())
	assert.Empty(t, m.Token())
	_, err = store.LoadToken(backend.URL)
	assert.ErrorIs(t, err, cliauth.ErrNotAuthenticated)

	assert.Equal(t, []session.EventType{session.EventLoggedIn, session.EventLoggedOut}, ev.types())
}

func TestDevServer_LoginWrongPassword(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, _, ev := newManager(t, backend)

	err := m.Login(context.Background(), devserver.DemoUserLogin, "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrUnauthorized))

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Incorrect username or password", apiErr.Message)
	assert.False(t, m.Authenticated())
	assert.Empty(t, ev.types())
}

func TestDevServer_ExpiredTokenClearsSession(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, store, ev := newManager(t, backend)

	expired, err := auth.NewIssuer(devservertest.Secret, -time.Minute).GenerateToken(devserver.DemoUserLogin)
	require.NoError(t, err)
	require.NoError(t, store.SaveToken(backend.URL, expired))

	require.NoError(t, m.Restore())
	require.True(t, m.Authenticated())

	_, err = m.API().ListBots(context.Background())
	assert.True(t, errors.Is(err, client.ErrUnauthorized))

	assert.False(t, m.Authenticated())
	assert.Nil(t, m.CurrentUser())
	_, err = store.LoadToken(backend.URL)
	assert.ErrorIs(t, err, cliauth.ErrNotAuthenticated)
	assert.Equal(t, []session.EventType{session.EventUnauthorized}, ev.types())
}

func TestDevServer_InitRestoresStoredToken(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, store, _ := newManager(t, backend)

	require.NoError(t, store.SaveToken(backend.URL, backend.Token(t, devserver.DemoAdminLogin)))
	require.NoError(t, m.Init(context.Background()))

	user := m.CurrentUser()
	require.NotNil(t, user)
	assert.True(t, user.IsAdmin)
}

func TestDevServer_RegisterThenUse(t *testing.T) {
	backend := devservertest.Start(t, false)
	m, _, _ := newManager(t, backend)
	ctx := context.Background()

	reg := models.Registration{
		Login:     "carol01",
		Email:     "carol@example.com",
		Password:  "Secr3t!pass",
		FirstName: "Carol",
		LastName:  "White",
	}
	require.NoError(t, m.Register(ctx, reg))
	require.NotNil(t, m.CurrentUser())
	assert.Equal(t, "carol01", m.CurrentUser().Login)

	bot, err := m.API().CreateBot(ctx, models.BotCreate{Name: "helper", Token: "1:abc", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, m.CurrentUser().ID, bot.UserID)

	other, _, _ := newManager(t, backend)
	err = other.Register(ctx, reg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrValidation))
	assert.Contains(t, err.Error(), "Login already registered")
}

func TestDevServer_UpdateProfileReflectedWithoutReload(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, _, _ := newManager(t, backend)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, devserver.DemoUserLogin, devserver.DemoUserPassword))
	backend.Reset()

	user, err := m.UpdateProfile(ctx, models.ProfileUpdate{LastName: models.String("Jones")})
	require.NoError(t, err)
	assert.Equal(t, "Jones", user.LastName)
	assert.Equal(t, "Jones", m.CurrentUser().LastName)

	assert.Equal(t, 1, backend.Count(http.MethodPut, "/api/admin/me"))
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/api/auth/me"))
	assert.JSONEq(t, `{"last_name":"Jones"}`, backend.Last(http.MethodPut).Body)
}

func TestDevServer_CRUDUpdateSendsOnlyChangedFields(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, store, _ := newManager(t, backend)
	ctx := context.Background()

	require.NoError(t, store.SaveToken(backend.URL, backend.Token(t, devserver.DemoUserLogin)))
	require.NoError(t, m.Restore())

	require.NoError(t, m.API().UpdateEmployee(ctx, 1, models.EmployeeUpdate{IsActive: models.Bool(false)}))
	assert.JSONEq(t, `{"is_active":false}`, backend.Last(http.MethodPut).Body)

	employees, err := m.API().ListEmployees(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, employees)
	assert.False(t, employees[0].IsActive)
	assert.Equal(t, "Bob Jones", employees[0].FullName)
}

func TestDevServer_MissingRowsAreNotFound(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, store, _ := newManager(t, backend)
	ctx := context.Background()

	require.NoError(t, store.SaveToken(backend.URL, backend.Token(t, devserver.DemoUserLogin)))
	require.NoError(t, m.Restore())

	err := m.API().UpdateChat(ctx, 404, models.ChatUpdate{Title: models.String("x")})
	assert.True(t, errors.Is(err, client.ErrNotFound), "got %v", err)

	err = m.API().UpdateEmployee(ctx, 404, models.EmployeeUpdate{IsBot: models.Bool(true)})
	assert.True(t, errors.Is(err, client.ErrNotFound), "got %v", err)

	err = m.API().DeleteBot(ctx, 404)
	assert.True(t, errors.Is(err, client.ErrNotFound), "got %v", err)

	assert.True(t, m.Authenticated())
}

func TestDevServer_LoadChatsPage(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, store, _ := newManager(t, backend)

	require.NoError(t, store.SaveToken(backend.URL, backend.Token(t, devserver.DemoUserLogin)))
	require.NoError(t, m.Restore())

	page, err := m.API().LoadChatsPage(context.Background())
	require.NoError(t, err)
	require.Len(t, page.Chats, 2)
	assert.Equal(t, "support_bot", page.Bots.Name(page.Chats[0].BotID))
	assert.Equal(t, "supergroup", page.Types.Name(page.Chats[0].TypeID))
	assert.Equal(t, "paused", page.Statuses.Name(page.Chats[1].StatusID))

	list, err := m.API().ListParticipants(context.Background(), page.Chats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Support team", list.ChatTitle)
	assert.Len(t, list.Participants, 2)
}

func TestDevServer_AdminOnlyEndpointsAreForbidden(t *testing.T) {
	backend := devservertest.Start(t, true)
	m, store, ev := newManager(t, backend)

	require.NoError(t, store.SaveToken(backend.URL, backend.Token(t, devserver.DemoUserLogin)))
	require.NoError(t, m.Restore())

	_, err := m.API().ListUsers(context.Background())
	assert.True(t, errors.Is(err, client.ErrForbidden))

	// 403 keeps the session
	assert.True(t, m.Authenticated())
	assert.Empty(t, ev.types())
}
