// Package session owns the client-side authentication state: the session
// token, the cached current user and the authenticated HTTP pipeline.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/koinsera/botadmin/internal/cli/auth"
	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// ErrClosed is returned by operations on a closed manager
var ErrClosed = errors.New("session manager is closed")

// State is the manager's view of the session
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Manager tracks one server's session. It is safe for concurrent use.
type Manager struct {
	server     string
	store      auth.TokenStore
	logger     zerolog.Logger
	httpClient *http.Client
	api        *client.Client

	mu     sync.RWMutex
	token  string
	user   *models.User
	closed bool

	subsMu    sync.Mutex
	subs      []subscriber
	nextSubID int
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHTTPClient sets the base client whose transport gets wrapped. Its
// timeout and TLS settings are kept.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(m *Manager) {
		copied := *httpClient
		m.httpClient = &copied
	}
}

// New creates a manager for server in the Anonymous state. Call Init (or
// Restore) to pick up a persisted token.
func New(server string, store auth.TokenStore, opts ...Option) *Manager {
	m := &Manager{
		server: server,
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.httpClient == nil {
		m.httpClient = client.NewHTTPClient(client.DefaultTimeout, false)
	}
	base := m.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	m.httpClient.Transport = &transport{base: base, manager: m}
	m.api = client.New(server, m.httpClient)
	m.logger = m.logger.With().Str("server", server).Logger()

	return m
}

// Server returns the backend base URL
func (m *Manager) Server() string {
	return m.server
}

// API returns a client whose requests carry the session token
func (m *Manager) API() *client.Client {
	return m.api
}

// HTTPClient returns the authenticated HTTP client
func (m *Manager) HTTPClient() *http.Client {
	return m.httpClient
}

// Token returns the current token, or "" when anonymous
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// State reports whether a token is held
func (m *Manager) State() State {
	if m.Token() != "" {
		return Authenticated
	}
	return Anonymous
}

// Authenticated is shorthand for State() == Authenticated
func (m *Manager) Authenticated() bool {
	return m.State() == Authenticated
}

// CurrentUser returns a copy of the cached profile, or nil
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Restore loads a persisted token without contacting the backend. The
// first authenticated call confirms it; a 401 clears it.
func (m *Manager) Restore() error {
	if err := m.checkOpen(); err != nil {
		return err
	}

	token, err := m.store.LoadToken(m.server)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil
		}
		return err
	}

	m.mu.Lock()
	m.token = token
	m.user = nil
	m.mu.Unlock()
	return nil
}

// Init restores a persisted token and confirms it with a profile fetch. If
// the fetch fails the session reverts to Anonymous and the stale token is
// removed. Only token store failures are returned.
func (m *Manager) Init(ctx context.Context) error {
	if err := m.Restore(); err != nil {
		return err
	}

	token := m.Token()
	if token == "" {
		m.logger.Debug().Msg("No stored session")
		return nil
	}

	if _, err := m.RefreshUser(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Stored session is no longer valid, clearing it")
		if m.clearIfCurrent(token) {
			m.deleteStoredToken()
		}
		return nil
	}

	m.logger.Info().Msg("Session restored")
	return nil
}

// Login exchanges credentials for a token, persists it and loads the
// current user. Backend errors are returned unchanged.
func (m *Manager) Login(ctx context.Context, identifier, password string) error {
	if err := m.checkOpen(); err != nil {
		return err
	}

	resp, err := m.api.RequestToken(ctx, identifier, password)
	if err != nil {
		return err
	}
	return m.establish(ctx, resp.AccessToken)
}

// Register creates an account and logs into it. Field problems come back
// as *models.ValidationError (client side) or *client.APIError (backend).
func (m *Manager) Register(ctx context.Context, reg models.Registration) error {
	if err := m.checkOpen(); err != nil {
		return err
	}

	resp, err := m.api.Register(ctx, reg)
	if err != nil {
		return err
	}
	return m.establish(ctx, resp.AccessToken)
}

// establish makes token the session credential and confirms it
func (m *Manager) establish(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("failed to log in: backend returned no access token")
	}
	if err := m.store.SaveToken(m.server, token); err != nil {
		return err
	}

	m.mu.Lock()
	m.token = token
	m.user = nil
	m.mu.Unlock()

	user, err := m.RefreshUser(ctx)
	if err != nil {
		if m.clearIfCurrent(token) {
			m.deleteStoredToken()
		}
		return err
	}

	m.logger.Info().Str("login", user.Login).Msg("Logged in")
	m.publish(Event{Type: EventLoggedIn, User: user})
	return nil
}

// RefreshUser re-fetches the current user. The cache is only updated if
// the session did not change while the request was in flight.
func (m *Manager) RefreshUser(ctx context.Context) (*models.User, error) {
	token := m.Token()
	if token == "" {
		return nil, client.ErrUnauthorized
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.token == token {
		m.user = user
	}
	m.mu.Unlock()

	u := *user
	return &u, nil
}

// UpdateProfile changes the caller's profile and refreshes the cached user
func (m *Manager) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	if err := m.api.UpdateMe(ctx, update); err != nil {
		return nil, err
	}
	return m.RefreshUser(ctx)
}

// Logout forgets the session locally. No backend call is made.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	m.deleteStoredToken()
	m.logger.Info().Msg("Logged out")
	m.publish(Event{Type: EventLoggedOut})
}

// Close releases idle connections and drops all subscribers. The stored
// token is left in place.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.subsMu.Lock()
	m.subs = nil
	m.subsMu.Unlock()

	m.httpClient.CloseIdleConnections()
}

// handleUnauthorized clears the session after a 401, but only if the
// rejected request carried the token that is still current.
func (m *Manager) handleUnauthorized(sent string) {
	if sent == "" {
		return
	}
	if !m.clearIfCurrent(sent) {
		m.logger.Debug().Msg("Ignoring 401 for a superseded session")
		return
	}

	m.deleteStoredToken()
	m.logger.Warn().Msg("Session rejected by backend, logged out")
	m.publish(Event{Type: EventUnauthorized})
}

func (m *Manager) clearIfCurrent(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != token {
		return false
	}
	m.token = ""
	m.user = nil
	return true
}

func (m *Manager) deleteStoredToken() {
	if err := m.store.DeleteToken(m.server); err != nil {
		m.logger.Error().Err(err).Msg("Failed to delete stored token")
	}
}

func (m *Manager) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}
