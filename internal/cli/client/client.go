package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/koinsera/botadmin/internal/models"
)

const (
	// DefaultTimeout bounds a single API call
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps how much of a response body is read
	maxBodySize = 10 << 20
)

// Client represents an HTTP client for the bot platform API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. Authentication is the job of httpClient's
// transport; see the session package.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout, false)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// NewHTTPClient builds the HTTP client used for API calls. A zero timeout
// disables the client-side limit.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		// Self-signed certificates on development servers
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// BaseURL returns the server base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// HTTPClient returns the HTTP client in use
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// do sends a request and decodes a successful JSON response into out (when
// non-nil). Failures come back as *TransportError or *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(op, resp.StatusCode, data)
	}
	if apiErr := errorEnvelope(op, data); apiErr != nil {
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// sendJSON marshals in as the request body
func (c *Client) sendJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, body, contentType, out)
}

// sendForm posts url-encoded form values
func (c *Client) sendForm(ctx context.Context, op, path string, form url.Values, out interface{}) error {
	return c.do(ctx, op, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", out)
}

// getList fetches a JSON array and validates every element
func getList[T any](ctx context.Context, c *Client, op, path string) ([]T, error) {
	var items []T
	if err := c.sendJSON(ctx, op, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	if err := models.ValidateAll(items); err != nil {
		return nil, fmt.Errorf("failed to %s: unexpected response: %w", op, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// getOne fetches a JSON object and validates it
func getOne[T any](ctx context.Context, c *Client, op, path string) (*T, error) {
	var item T
	if err := c.sendJSON(ctx, op, http.MethodGet, path, nil, &item); err != nil {
		return nil, err
	}
	if err := models.Validate(&item); err != nil {
		return nil, fmt.Errorf("failed to %s: unexpected response: %w", op, err)
	}
	return &item, nil
}

// create validates in, posts it and validates the created entity
func create[T any](ctx context.Context, c *Client, op, path string, in interface{}) (*T, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	var item T
	if err := c.sendJSON(ctx, op, http.MethodPost, path, in, &item); err != nil {
		return nil, err
	}
	if err := models.Validate(&item); err != nil {
		return nil, fmt.Errorf("failed to %s: unexpected response: %w", op, err)
	}
	return &item, nil
}

type changeSet interface {
	IsEmpty() bool
}

// update validates and sends only the changed fields. The response body is
// ignored; callers re-fetch the list they display.
func (c *Client) update(ctx context.Context, op, path string, in changeSet) error {
	if in.IsEmpty() {
		return ErrNoChanges
	}
	if err := models.Validate(in); err != nil {
		return err
	}
	return c.sendJSON(ctx, op, http.MethodPut, path, in, nil)
}

func (c *Client) remove(ctx context.Context, op, path string) error {
	return c.sendJSON(ctx, op, http.MethodDelete, path, nil, nil)
}
