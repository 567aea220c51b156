package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/koinsera/botadmin/internal/models"
)

// RequestToken exchanges credentials for a session token
func (c *Client) RequestToken(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp models.TokenResponse
	if err := c.sendForm(ctx, "log in", "/api/auth/token", form, &resp); err != nil {
		return nil, err
	}
	if err := models.Validate(&resp); err != nil {
		return nil, fmt.Errorf("failed to log in: backend returned no access token")
	}
	return &resp, nil
}

// Register creates an account and returns its session token. The payload is
// validated before anything is sent.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.TokenResponse, error) {
	reg.ApplyDefaults()
	if err := models.Validate(&reg); err != nil {
		return nil, err
	}

	var resp models.TokenResponse
	if err := c.sendJSON(ctx, "register", http.MethodPost, "/api/auth/register", &reg, &resp); err != nil {
		return nil, err
	}
	if err := models.Validate(&resp); err != nil {
		return nil, fmt.Errorf("failed to register: backend returned no access token")
	}
	return &resp, nil
}

// Me fetches the profile of the authenticated user
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	return getOne[models.User](ctx, c, "fetch profile", "/api/auth/me")
}

// UpdateMe changes the authenticated user's own profile
func (c *Client) UpdateMe(ctx context.Context, update models.ProfileUpdate) error {
	return c.update(ctx, "update profile", "/api/admin/me", update)
}
