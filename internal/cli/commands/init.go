package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd(opts ...Option) *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add a bot platform server to ./botadmin.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(newDeps(opts), args[0], alias)
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "Short name for the server")

	return cmd
}

func runInit(d *deps, rawURL, alias string) error {
	serverURL, err := config.NormalizeURL(rawURL)
	if err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(d.out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{Servers: []config.Server{}}
		isNewConfig = true
	}

	if existing, err := cfg.GetServerByURLOrAlias(serverURL); err == nil {
		if alias == "" || alias == existing.Alias {
			fmt.Fprintf(d.out, "Server %s already exists in %s\n", existing.Label(), config.ConfigFileName)
		} else {
			if other, err := cfg.GetServerByAlias(alias); err == nil && other.URL != serverURL {
				return fmt.Errorf("alias %q is already used by %s", alias, other.URL)
			}
			existing.Alias = alias
			if err := config.Save(configPath, cfg); err != nil {
				return err
			}
			printSuccess(d.out, "Renamed server %s", existing.Label())
		}
	} else {
		if alias == "" {
			if len(cfg.Servers) == 0 {
				alias = "default"
			} else {
				alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
			}
		}
		if other, err := cfg.GetServerByAlias(alias); err == nil {
			return fmt.Errorf("alias %q is already used by %s", alias, other.URL)
		}

		server := config.Server{URL: serverURL, Alias: alias}
		cfg.AddServer(server)
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}
		if isNewConfig {
			printSuccess(d.out, "Created ./%s with server %s", config.ConfigFileName, server.Label())
		} else {
			printSuccess(d.out, "Added server %s to ./%s", server.Label(), config.ConfigFileName)
		}
	}

	fmt.Fprintln(d.out, "\nNext steps:")
	fmt.Fprintln(d.out, "  1. Run 'botadmin register' to create an account, or")
	fmt.Fprintln(d.out, "  2. Run 'botadmin login' to authenticate")

	return nil
}
