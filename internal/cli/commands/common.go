package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/koinsera/botadmin/internal/cli/auth"
	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/cli/config"
	"github.com/koinsera/botadmin/internal/cli/serverselect"
	"github.com/koinsera/botadmin/internal/cli/session"
	appconfig "github.com/koinsera/botadmin/internal/config"
)

// deps carries everything a command touches outside the process. Tests
// replace pieces through Options.
type deps struct {
	out        io.Writer
	errOut     io.Writer
	in         io.Reader
	appConfig  *appconfig.Config
	server     *config.Server
	store      auth.TokenStore
	httpClient *http.Client
	logger     *zerolog.Logger
}

// Option configures command dependencies
type Option func(*deps)

// WithServer skips server resolution
func WithServer(server *config.Server) Option {
	return func(d *deps) {
		d.server = server
	}
}

// WithTokenStore replaces the configured token store
func WithTokenStore(store auth.TokenStore) Option {
	return func(d *deps) {
		d.store = store
	}
}

// WithHTTPClient replaces the base HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(d *deps) {
		d.httpClient = httpClient
	}
}

// WithOutput redirects command output
func WithOutput(out, errOut io.Writer) Option {
	return func(d *deps) {
		d.out = out
		d.errOut = errOut
	}
}

// WithInput replaces stdin
func WithInput(in io.Reader) Option {
	return func(d *deps) {
		d.in = in
	}
}

// WithAppConfig replaces the environment configuration
func WithAppConfig(cfg *appconfig.Config) Option {
	return func(d *deps) {
		d.appConfig = cfg
	}
}

// WithLogger replaces the global logger
func WithLogger(logger zerolog.Logger) Option {
	return func(d *deps) {
		d.logger = &logger
	}
}

func newDeps(opts []Option) *deps {
	d := &deps{
		out:    os.Stdout,
		errOut: os.Stderr,
		in:     os.Stdin,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *deps) log() *zerolog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return &log.Logger
}

func (d *deps) config() (*appconfig.Config, error) {
	if d.appConfig == nil {
		cfg, err := appconfig.Load()
		if err != nil {
			return nil, err
		}
		d.appConfig = cfg
	}
	return d.appConfig, nil
}

// interactive reports whether stdin is a terminal
func (d *deps) interactive() bool {
	f, ok := d.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resolveServer picks the backend: BOTADMIN_API_URL, then --server, then the
// saved selection or a prompt.
func (d *deps) resolveServer(serverAlias string) (*config.Server, error) {
	if d.server != nil {
		return d.server, nil
	}

	cfg, err := d.config()
	if err != nil {
		return nil, err
	}
	if cfg.API.URL != "" {
		url, err := config.NormalizeURL(cfg.API.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid BOTADMIN_API_URL: %w", err)
		}
		d.server = &config.Server{URL: url, Alias: "env"}
		return d.server, nil
	}

	projectConfig, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	server, err := serverselect.ResolveServer(projectConfig, serverAlias, d.interactive())
	if err != nil {
		return nil, err
	}
	d.server = server
	return server, nil
}

// tokenStore returns the store and a function releasing it
func (d *deps) tokenStore() (auth.TokenStore, func(), error) {
	if d.store != nil {
		return d.store, func() {}, nil
	}

	cfg, err := d.config()
	if err != nil {
		return nil, nil, err
	}
	store, err := auth.Open(cfg.TokenStore)
	if err != nil {
		return nil, nil, err
	}

	release := func() {}
	if closer, ok := store.(io.Closer); ok {
		release = func() {
			if err := closer.Close(); err != nil {
				d.log().Debug().Err(err).Msg("Failed to close token store")
			}
		}
	}
	return store, release, nil
}

func (d *deps) baseHTTPClient() (*http.Client, error) {
	if d.httpClient != nil {
		return d.httpClient, nil
	}
	cfg, err := d.config()
	if err != nil {
		return nil, err
	}
	return client.NewHTTPClient(cfg.API.Timeout, cfg.API.InsecureSkipVerify), nil
}

// newSession builds a session manager for the resolved server without
// loading any stored token. The returned function closes it.
func (d *deps) newSession(serverAlias string) (*session.Manager, func(), error) {
	server, err := d.resolveServer(serverAlias)
	if err != nil {
		return nil, nil, err
	}

	store, release, err := d.tokenStore()
	if err != nil {
		return nil, nil, err
	}

	httpClient, err := d.baseHTTPClient()
	if err != nil {
		release()
		return nil, nil, err
	}

	m := session.New(server.URL, store,
		session.WithHTTPClient(httpClient),
		session.WithLogger(*d.log()),
	)
	return m, func() {
		m.Close()
		release()
	}, nil
}

// authenticatedSession restores the stored token. The first API call
// confirms it.
func (d *deps) authenticatedSession(serverAlias string) (*session.Manager, func(), error) {
	m, done, err := d.newSession(serverAlias)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Restore(); err != nil {
		done()
		return nil, nil, err
	}
	if !m.Authenticated() {
		done()
		return nil, nil, auth.ErrNotAuthenticated
	}
	return m, done, nil
}

// explain adds a hint to errors the user can act on
func explain(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("%w\nYour session has expired. Run 'botadmin login' to sign in again", err)
	case errors.Is(err, client.ErrForbidden):
		return fmt.Errorf("%w\nThis action requires administrator rights", err)
	case errors.Is(err, client.ErrTransport):
		return fmt.Errorf("%w\nCheck that the server is running and reachable", err)
	}
	return err
}

// addServerFlag registers the --server flag shared by most commands
func addServerFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "server", "", "Server URL or alias (uses the selected server if not specified)")
}
