// Package devservertest runs a devserver behind httptest and records the
// requests it receives.
package devservertest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/koinsera/botadmin/internal/config"
	"github.com/koinsera/botadmin/internal/devserver"
)

// Secret signs every token issued by a test backend
const Secret = "devservertest-secret"

// Request is one recorded call
type Request struct {
	Method string
	Path   string
	Body   string
}

// Backend is a running dev server
type Backend struct {
	*httptest.Server
	Dev *devserver.Server

	mu       sync.Mutex
	requests []Request
}

// Start launches a backend that is shut down when the test ends. With seed
// set it holds the demo accounts and records.
func Start(t testing.TB, seed bool) *Backend {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: ":memory:"},
		DevServer: config.DevServerConfig{
			JWTSecret:      Secret,
			TokenExpiresIn: 30 * time.Minute,
			CORSOrigins:    []string{"http://localhost:3000"},
			Seed:           seed,
		},
	}

	dev, err := devserver.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to start dev server: %v", err)
	}

	b := &Backend{Dev: dev}
	b.Server = httptest.NewServer(http.HandlerFunc(b.record))
	t.Cleanup(func() {
		b.Server.Close()
		dev.Close()
	})
	return b
}

func (b *Backend) record(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	b.mu.Lock()
	b.requests = append(b.requests, Request{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	b.mu.Unlock()

	b.Dev.Handler().ServeHTTP(w, r)
}

// Token issues a valid token for login
func (b *Backend) Token(t testing.TB, login string) string {
	t.Helper()
	token, err := b.Dev.IssueToken(login)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

// Requests returns the calls received so far
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many calls matched method and path
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent call with method, or a zero Request
func (b *Backend) Last(method string) Request {
	requests := b.Requests()
	for i := len(requests) - 1; i >= 0; i-- {
		if requests[i].Method == method {
			return requests[i]
		}
	}
	return Request{}
}

// Reset forgets the recorded calls
func (b *Backend) Reset() {
	b.mu.Lock()
	b.requests = nil
	b.mu.Unlock()
}
