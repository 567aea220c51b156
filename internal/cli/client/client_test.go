package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinsera/botadmin/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, server.Client())
}

func TestRequestToken_SendsForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "abc123", "token_type": "bearer"}`))
	})

	resp, err := c.RequestToken(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc123", resp.AccessToken)
}

func TestRequestToken_EmptyTokenIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type": "bearer"}`))
	})

	_, err := c.RequestToken(context.Background(), "alice", "secret")
	assert.Error(t, err)
}

func TestRequestToken_BadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Incorrect username or password"}`))
	})

	_, err := c.RequestToken(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Incorrect username or password", apiErr.Message)
	assert.Equal(t, "failed to log in (status 401): Incorrect username or password", err.Error())
}

func TestRegister_ClientSideValidation(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := c.Register(context.Background(), models.Registration{
		Login:     "al",
		Email:     "alice@example.com",
		Password:  "weak",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Field("login"))
	assert.NotEmpty(t, verr.Field("password"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "invalid registration must not reach the backend")
}

func TestRegister_BackendFieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "en", body["language_code"])

		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": [{"loc": ["body", "login"], "msg": "Login already taken", "type": "value_error"}]}`))
	})

	_, err := c.Register(context.Background(), models.Registration{
		Login:     "alice",
		Email:     "alice@example.com",
		Password:  "Secr3t!pass",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Login already taken", verr.Field("login"))
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		sentinel error
		message  string
	}{
		{http.StatusUnauthorized, `{"detail": "Not authenticated"}`, ErrUnauthorized, "Not authenticated"},
		{http.StatusForbidden, `{"detail": "Not enough permissions"}`, ErrForbidden, "Not enough permissions"},
		{http.StatusNotFound, `{"detail": "Bot not found"}`, ErrNotFound, "Bot not found"},
		{http.StatusBadRequest, `{"error": "bad input"}`, ErrValidation, "bad input"},
		{http.StatusInternalServerError, `Internal Server Error`, ErrServer, "Internal Server Error"},
		{http.StatusBadGateway, ``, ErrServer, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.ListBots(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestServerErrorMessageIsGeneric(t *testing.T) {
	err := &APIError{Op: "list bots", StatusCode: 500, Message: "Traceback (most recent call last)"}
	assert.Equal(t, "failed to list bots: the server encountered an error (status 500)", err.Error())
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New(url, &http.Client{Timeout: time.Second})
	_, err := c.ListBots(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, errors.Is(err, ErrServer))
}

func TestTransportError_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListBots(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpdate_SendsOnlyChangedFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/bots/3", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"is_active": false}`, string(body))
		w.Write([]byte(`{"bot_id": 3, "bot_name": "helper", "is_active": false}`))
	})

	err := c.UpdateBot(context.Background(), 3, models.BotUpdate{IsActive: models.Bool(false)})
	require.NoError(t, err)
}

func TestUpdate_NoChanges(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	err := c.UpdateChat(context.Background(), 1, models.ChatUpdate{})
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestUpdate_ErrorEnvelopeOnSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Chat not found"}`))
	})

	err := c.UpdateChat(context.Background(), 99, models.ChatUpdate{Title: models.String("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListChats_ValidatesResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"chat_id": 0, "type_id": 1, "status_id": 1}]`))
	})

	_, err := c.ListChats(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListBots_EmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	bots, err := c.ListBots(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, bots)
	assert.Empty(t, bots)
}

func TestListParticipants(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chats/7/participants", r.URL.Path)
		w.Write([]byte(`{"chat_title": "Support", "participants": [
			{"employee_id": 4, "full_name": "Bob", "telegram_username": "bob", "is_active": true,
			 "is_external": false, "is_admin": true, "ce_is_active": true,
			 "created_at": "2024-01-01T00:00:00", "updated_at": "2024-01-01T00:00:00",
			 "ce_updated_at": null}
		]}`))
	})

	list, err := c.ListParticipants(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Support", list.ChatTitle)
	require.Len(t, list.Participants, 1)
	assert.True(t, list.Participants[0].IsAdmin)
	assert.Nil(t, list.Participants[0].MembershipAt)
}

func TestLoadChatsPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"chat_id": 1, "bot_id": 1, "telegram_chat_id": -1, "type_id": 1, "status_id": 1},
			{"chat_id": 2, "bot_id": 1, "telegram_chat_id": -2, "type_id": 5, "status_id": 1},
			{"chat_id": 3, "bot_id": 2, "telegram_chat_id": -3, "type_id": 1, "status_id": 9}
		]`))
	})
	mux.HandleFunc("/api/chat_types", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"type_id": 1, "type_name": "group"}]`))
	})
	mux.HandleFunc("/api/chat_statuses", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"status_id": 1, "status_name": "active"}]`))
	})
	mux.HandleFunc("/api/bots", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"bot_id": 1, "bot_name": "helper"}]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	page, err := New(server.URL, server.Client()).LoadChatsPage(context.Background())
	require.NoError(t, err)
	require.Len(t, page.Chats, 1)
	assert.Equal(t, 1, page.Chats[0].ID)
	assert.Equal(t, "group", page.Types.Name(1))
	assert.Equal(t, "helper", page.Bots.Name(1))
	assert.Equal(t, "#2", page.Bots.Name(2))
}

func TestLoadChatsPage_FailsWhenAnyRequestFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chats", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`[]`)) })
	mux.HandleFunc("/api/chat_types", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`[]`)) })
	mux.HandleFunc("/api/chat_statuses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/api/bots", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`[]`)) })
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := New(server.URL, server.Client()).LoadChatsPage(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestParseErrorBody(t *testing.T) {
	msg, fields := parseErrorBody([]byte(`{"detail": [{"loc": ["body", "items", 0, "name"], "msg": "field required"}]}`))
	assert.Empty(t, msg)
	require.Len(t, fields, 1)
	assert.Equal(t, "items.0.name", fields[0].Field)

	msg, fields = parseErrorBody([]byte(`{"message": "slow down"}`))
	assert.Equal(t, "slow down", msg)
	assert.Empty(t, fields)
}
