package commands

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/tui"
	"github.com/koinsera/botadmin/internal/cli/userconfig"
	"github.com/koinsera/botadmin/internal/logger"
)

// NewDashCmd creates the dash command
func NewDashCmd(opts ...Option) *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(cmd.Context(), newDeps(opts), serverAlias)
		},
	}
	addServerFlag(cmd, &serverAlias)

	return cmd
}

func runDash(ctx context.Context, d *deps, serverAlias string) error {
	if !d.interactive() {
		return fmt.Errorf("the dashboard needs an interactive terminal")
	}

	// Resolve before logs move to the file; selection may prompt
	server, err := d.resolveServer(serverAlias)
	if err != nil {
		return err
	}

	cfg, err := d.config()
	if err != nil {
		return err
	}
	logPath, err := userconfig.GetDashLogPath()
	if err != nil {
		return err
	}
	logFile, err := logger.OpenFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// Anything written to stderr would corrupt the screen
	fileLogger := logger.New(cfg.Logging.Level, "json", logFile)
	previous := log.Logger
	log.Logger = fileLogger
	defer func() { log.Logger = previous }()
	d.logger = &fileLogger

	m, done, err := d.newSession(serverAlias)
	if err != nil {
		return err
	}
	defer done()

	app := tui.NewApp(ctx, m, server.Label())
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := app.Subscribe(p.Send)
	defer unsubscribe()

	fileLogger.Info().Str("server", server.URL).Msg("Dashboard started")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
