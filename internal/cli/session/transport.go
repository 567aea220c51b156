package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestIDHeader correlates client requests with backend logs
const RequestIDHeader = "X-Request-ID"

// transport attaches the current token to every request and invalidates
// the session when the backend rejects it.
type transport struct {
	base    http.RoundTripper
	manager *Manager
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.manager.Token()

	// RoundTrippers must not modify the caller's request
	r := req.Clone(req.Context())
	if token != "" {
		r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, ulid.Make().String())
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(r)

	event := t.manager.logger.Debug().
		Str("request_id", r.Header.Get(RequestIDHeader)).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Dur("duration", time.Since(start))
	if err != nil {
		event.Err(err).Msg("API request failed")
		return nil, err
	}
	event.Int("status", resp.StatusCode).Msg("API request")

	if resp.StatusCode == http.StatusUnauthorized {
		t.manager.handleUnauthorized(token)
	}
	return resp, nil
}
