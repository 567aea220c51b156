package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/config"
	"github.com/koinsera/botadmin/internal/cli/serverselect"
	"github.com/koinsera/botadmin/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ botadmin select-server                        # Interactive selection
  $ botadmin select-server http://localhost:8000  # Select by URL
  $ botadmin select-server production             # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(newDeps(opts), urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(d *deps, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var server *config.Server

	if urlOrAlias != "" {
		server, err = cfg.GetServerByURLOrAlias(urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		if !d.interactive() {
			return fmt.Errorf("pass a server URL or alias in non-interactive mode")
		}
		server, err = serverselect.PromptServerSelection(cfg, nil, nil)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(d.out, "Selected server: %s\n", server.Label())
	return nil
}
