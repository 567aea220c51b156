package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinsera/botadmin/internal/auth"
	"github.com/koinsera/botadmin/internal/config"
	"github.com/koinsera/botadmin/internal/models"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, seed bool) *Server {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: ":memory:"},
		DevServer: config.DevServerConfig{
			JWTSecret:      testSecret,
			TokenExpiresIn: 30 * time.Minute,
			CORSOrigins:    []string{"http://localhost:3000"},
			Seed:           seed,
		},
	}

	s, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *Server, login string, admin bool) *User {
	t.Helper()
	u, err := s.CreateUser(NewUser{
		Login:     login,
		Email:     login + "@example.com",
		Password:  "Secret123!",
		FirstName: strings.ToUpper(login[:1]) + login[1:],
		LastName:  "Tester",
		IsAdmin:   admin,
	})
	require.NoError(t, err)
	return u
}

func tokenFor(t *testing.T, s *Server, login string) string {
	t.Helper()
	token, err := s.IssueToken(login)
	require.NoError(t, err)
	return token
}

func request(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	decode(t, rec, &body)
	return body.Detail
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, false)

	rec := request(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "online")
}

func TestCORS(t *testing.T) {
	t.Run("allowed origin", func(t *testing.T) {
		s := newTestServer(t, false)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origins configured", func(t *testing.T) {
		cfg := &config.Config{
			Database:  config.DatabaseConfig{URL: ":memory:"},
			DevServer: config.DevServerConfig{JWTSecret: testSecret, TokenExpiresIn: time.Minute},
		}

		var s *Server
		require.NotPanics(t, func() {
			var err error
			s, err = New(cfg, zerolog.Nop())
			require.NoError(t, err)
		})
		t.Cleanup(func() { s.Close() })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestIssueToken(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "alice", false)

	t.Run("by login", func(t *testing.T) {
		rec := postForm(t, s, "/api/auth/token", url.Values{"username": {"alice"}, "password": {"Secret123!"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, "bearer", resp.TokenType)

		claims, err := auth.NewIssuer(testSecret, time.Minute).ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
	})

	t.Run("by email", func(t *testing.T) {
		rec := postForm(t, s, "/api/auth/token", url.Values{"username": {"alice@example.com"}, "password": {"Secret123!"}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("records last login", func(t *testing.T) {
		var user User
		require.NoError(t, s.DB().Where("login = ?", "alice").First(&user).Error)
		assert.NotNil(t, user.LastLogin)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := postForm(t, s, "/api/auth/token", url.Values{"username": {"alice"}, "password": {"nope"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Incorrect username or password", detail(t, rec))
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := postForm(t, s, "/api/auth/token", url.Values{"username": {"mallory"}, "password": {"Secret123!"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := postForm(t, s, "/api/auth/token", url.Values{})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestIssueToken_InactiveAccount(t *testing.T) {
	s := newTestServer(t, false)
	_, err := s.CreateUser(NewUser{Login: "dora", Email: "dora@example.com", Password: "Secret123!", Inactive: true})
	require.NoError(t, err)

	rec := postForm(t, s, "/api/auth/token", url.Values{"username": {"dora"}, "password": {"Secret123!"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Account is inactive", detail(t, rec))
}

func TestProtectedRoutes_RejectMissingOrBadTokens(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "alice", false)

	expired, err := auth.NewIssuer(testSecret, -time.Minute).GenerateToken("alice")
	require.NoError(t, err)
	foreign, err := auth.NewIssuer("other-secret", time.Minute).GenerateToken("alice")
	require.NoError(t, err)
	ghost := tokenFor(t, s, "ghost")

	paths := []string{"/api/auth/me", "/api/bots", "/api/chats", "/api/employees", "/api/admin/users"}
	tokens := map[string]string{
		"missing": "",
		"expired": expired,
		"foreign": foreign,
		"ghost":   ghost,
	}

	for name, token := range tokens {
		for _, path := range paths {
			t.Run(name+" "+path, func(t *testing.T) {
				rec := request(t, s, http.MethodGet, path, token, nil)
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.Equal(t, "Could not validate credentials", detail(t, rec))
			})
		}
	}
}

func TestCurrentUser(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "alice", false)

	rec := request(t, s, http.MethodGet, "/api/auth/me", tokenFor(t, s, "alice"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "alice", body["login"])
	assert.Equal(t, "Alice", body["first_name"])
	assert.Equal(t, false, body["is_admin"])
	assert.NotContains(t, body, "password_hash")
}

func TestCurrentUser_InactiveAccountIsForbidden(t *testing.T) {
	s := newTestServer(t, false)
	u := createUser(t, s, "alice", false)
	token := tokenFor(t, s, "alice")
	require.NoError(t, s.DB().Model(u).Update("is_active", false).Error)

	rec := request(t, s, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "alice", false)

	valid := map[string]interface{}{
		"login":      "bob01",
		"email":      "bob@example.com",
		"password":   "Secr3t!pass",
		"first_name": "Bob",
		"last_name":  "Jones",
	}

	t.Run("creates account and returns token", func(t *testing.T) {
		rec := request(t, s, http.MethodPost, "/api/auth/register", "", valid)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			AccessToken string `json:"access_token"`
		}
		decode(t, rec, &resp)
		require.NotEmpty(t, resp.AccessToken)

		me := request(t, s, http.MethodGet, "/api/auth/me", resp.AccessToken, nil)
		require.Equal(t, http.StatusOK, me.Code)
		assert.Contains(t, me.Body.String(), `"language_code":"en"`)
	})

	t.Run("duplicate login", func(t *testing.T) {
		body := map[string]interface{}{}
		for k, v := range valid {
			body[k] = v
		}
		body["login"] = "alice"
		body["email"] = "other@example.com"

		rec := request(t, s, http.MethodPost, "/api/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Login already registered", detail(t, rec))
	})

	t.Run("invalid fields", func(t *testing.T) {
		body := map[string]interface{}{}
		for k, v := range valid {
			body[k] = v
		}
		body["login"] = "x"
		body["password"] = "weak"

		rec := request(t, s, http.MethodPost, "/api/auth/register", "", body)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp struct {
			Detail []struct {
				Loc []string `json:"loc"`
				Msg string   `json:"msg"`
			} `json:"detail"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp.Detail, 2)
		assert.Equal(t, []string{"body", "login"}, resp.Detail[0].Loc)
		assert.Equal(t, []string{"body", "password"}, resp.Detail[1].Loc)
	})
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "alice", false)
	createUser(t, s, "bob", false)
	token := tokenFor(t, s, "alice")

	rec := request(t, s, http.MethodPut, "/api/admin/me", token, map[string]interface{}{
		"first_name": "Alicia",
		"password":   "newpass123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user User
	require.NoError(t, s.DB().Where("login = ?", "alice").First(&user).Error)
	assert.Equal(t, "Alicia", user.FirstName)
	assert.Equal(t, "Tester", user.LastName)
	assert.NoError(t, auth.VerifyPassword("newpass123", user.PasswordHash))

	rec = request(t, s, http.MethodPut, "/api/admin/me", token, map[string]interface{}{"email": "bob@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", detail(t, rec))
}

func TestUsers_AdminOnly(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "root", true)
	alice := createUser(t, s, "alice", false)

	rec := request(t, s, http.MethodGet, "/api/admin/users", tokenFor(t, s, "alice"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not enough permissions", detail(t, rec))

	adminToken := tokenFor(t, s, "root")
	rec = request(t, s, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]interface{}
	decode(t, rec, &users)
	assert.Len(t, users, 2)

	rec = request(t, s, http.MethodPut, "/api/admin/users/"+itoa(alice.ID), adminToken, map[string]interface{}{"is_admin": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"is_admin":true`)

	rec = request(t, s, http.MethodPut, "/api/admin/users/999", adminToken, map[string]interface{}{"is_admin": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSystemInfo(t *testing.T) {
	s := newTestServer(t, true)

	rec := request(t, s, http.MethodGet, "/api/admin/system", tokenFor(t, s, DemoUserLogin), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = request(t, s, http.MethodGet, "/api/admin/system", tokenFor(t, s, DemoAdminLogin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var info models.SystemInfo
	decode(t, rec, &info)
	assert.Equal(t, "botadmin-devserver", info.Service)
	assert.Positive(t, info.Host.CPUCount)
	assert.Equal(t, models.RecordCounts{Users: 2, Bots: 2, Chats: 2, Employees: 2, Participants: 3}, info.Records)
}

func TestBots_VisibilityAndOwnership(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "root", true)
	createUser(t, s, "alice", false)
	createUser(t, s, "bob", false)

	alice := tokenFor(t, s, "alice")
	bob := tokenFor(t, s, "bob")
	root := tokenFor(t, s, "root")

	rec := request(t, s, http.MethodPost, "/api/bots", alice, map[string]interface{}{
		"bot_name": "helper", "bot_token": "1:abc", "is_active": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created struct {
		ID int `json:"bot_id"`
	}
	decode(t, rec, &created)

	request(t, s, http.MethodPost, "/api/bots", bob, map[string]interface{}{"bot_name": "other", "bot_token": "2:def"})

	countBots := func(token string) int {
		rec := request(t, s, http.MethodGet, "/api/bots", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var bots []map[string]interface{}
		decode(t, rec, &bots)
		return len(bots)
	}
	assert.Equal(t, 1, countBots(alice))
	assert.Equal(t, 1, countBots(bob))
	assert.Equal(t, 2, countBots(root))

	path := "/api/bots/" + itoa(created.ID)

	rec = request(t, s, http.MethodPut, path, bob, map[string]interface{}{"is_active": false})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = request(t, s, http.MethodPut, path, alice, map[string]interface{}{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_active":false`)
	assert.Contains(t, rec.Body.String(), `"bot_name":"helper"`)

	rec = request(t, s, http.MethodPut, "/api/bots/999", alice, map[string]interface{}{"is_active": false})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Bot not found", detail(t, rec))

	rec = request(t, s, http.MethodDelete, path, root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Bot deleted successfully"}`, rec.Body.String())
	assert.Equal(t, 0, countBots(alice))
}

func TestChats_UpdateMissingReturnsErrorEnvelope(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "alice", false)

	rec := request(t, s, http.MethodPut, "/api/chats/42", tokenFor(t, s, "alice"), map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Chat not found"}`, rec.Body.String())
}

func TestChats_CreateUpdateDelete(t *testing.T) {
	s := newTestServer(t, true)
	token := tokenFor(t, s, DemoUserLogin)

	rec := request(t, s, http.MethodPost, "/api/chats", token, map[string]interface{}{
		"bot_id": 1, "telegram_chat_id": -100777, "title": "New", "type_id": 2, "status_id": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chat struct {
		ID      int    `json:"chat_id"`
		BotName string `json:"bot_name"`
	}
	decode(t, rec, &chat)
	assert.Equal(t, "support_bot", chat.BotName)

	rec = request(t, s, http.MethodPost, "/api/chats", token, map[string]interface{}{
		"bot_id": 1, "telegram_chat_id": -100778, "type_id": 99, "status_id": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/api/chats/" + itoa(chat.ID)
	rec = request(t, s, http.MethodPut, path, token, map[string]interface{}{"status_id": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status_id":3`)
	assert.Contains(t, rec.Body.String(), `"title":"New"`)

	rec = request(t, s, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, s, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChats_AreScopedToOwner(t *testing.T) {
	s := newTestServer(t, true)

	rec := request(t, s, http.MethodGet, "/api/chats", tokenFor(t, s, DemoAdminLogin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = request(t, s, http.MethodGet, "/api/chats", tokenFor(t, s, DemoUserLogin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var chats []map[string]interface{}
	decode(t, rec, &chats)
	assert.Len(t, chats, 2)
}

func TestEmployees(t *testing.T) {
	s := newTestServer(t, true)
	token := tokenFor(t, s, DemoUserLogin)

	rec := request(t, s, http.MethodPut, "/api/employees/999", token, map[string]interface{}{"is_active": false})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Employee not found"}`, rec.Body.String())

	rec = request(t, s, http.MethodPut, "/api/employees/1", token, map[string]interface{}{"is_external": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_external":true`)
	assert.Contains(t, rec.Body.String(), `"full_name":"Bob Jones"`)

	rec = request(t, s, http.MethodPost, "/api/employees", token, map[string]interface{}{
		"full_name": "Dan Brown", "telegram_user_id": 42, "is_active": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"telegram_user_id":42`)

	rec = request(t, s, http.MethodDelete, "/api/employees/2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"detail":"Employee deleted"}`, rec.Body.String())

	var memberships int64
	require.NoError(t, s.DB().Model(&ChatEmployee{}).Where("employee_id = ?", 2).Count(&memberships).Error)
	assert.Zero(t, memberships)

	rec = request(t, s, http.MethodDelete, "/api/employees/2", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Employee not found", detail(t, rec))
}

func TestParticipants(t *testing.T) {
	s := newTestServer(t, true)
	token := tokenFor(t, s, DemoUserLogin)

	rec := request(t, s, http.MethodGet, "/api/chats/1/participants", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		ChatTitle    string `json:"chat_title"`
		Participants []struct {
			EmployeeID       int  `json:"employee_id"`
			IsAdmin          bool `json:"is_admin"`
			MembershipActive bool `json:"ce_is_active"`
		} `json:"participants"`
	}
	decode(t, rec, &list)
	assert.Equal(t, "Support team", list.ChatTitle)
	require.Len(t, list.Participants, 2)
	assert.True(t, list.Participants[0].IsAdmin)

	rec = request(t, s, http.MethodPut, "/api/chats/1/participants/1", token, map[string]interface{}{"is_admin": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"is_admin":false`)

	rec = request(t, s, http.MethodPut, "/api/chats/1/participants/99", token, map[string]interface{}{"is_admin": false})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(t, s, http.MethodDelete, "/api/chats/1/participants/2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var chat Chat
	require.NoError(t, s.DB().First(&chat, 1).Error)
	assert.Equal(t, 1, chat.UserNum)

	rec = request(t, s, http.MethodGet, "/api/chats/1/participants", tokenFor(t, s, DemoAdminLogin), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookupsArePublic(t *testing.T) {
	s := newTestServer(t, false)

	rec := request(t, s, http.MethodGet, "/api/chat_types", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type_name":"supergroup"`)

	rec = request(t, s, http.MethodGet, "/api/chat_statuses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status_name":"archived"`)
}

func TestSeedDemo_IsIdempotent(t *testing.T) {
	s := newTestServer(t, true)
	require.NoError(t, s.SeedDemo())

	var users, bots int64
	require.NoError(t, s.DB().Model(&User{}).Count(&users).Error)
	require.NoError(t, s.DB().Model(&Bot{}).Count(&bots).Error)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(2), bots)
}

func TestPathIDMustBePositive(t *testing.T) {
	s := newTestServer(t, false)
	createUser(t, s, "alice", false)

	rec := request(t, s, http.MethodDelete, "/api/bots/abc", tokenFor(t, s, "alice"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
