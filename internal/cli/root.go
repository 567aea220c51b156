package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/commands"
	"github.com/koinsera/botadmin/internal/logger"
)

var version = "dev" // Will be set during build

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "botadmin",
	Short: "botadmin - Administer your messaging bots",
	Long: `botadmin CLI - Manage bots, chats, employees and accounts on a bot
platform server from the terminal.

Run 'botadmin init <url>' once per project, then 'botadmin login'.
'botadmin dash' opens a full-screen dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		if level == "" {
			// Commands report through their output; keep stderr quiet
			level = "warn"
		}
		logger.Init(level, os.Getenv("LOG_FORMAT"), os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default warn, or LOG_LEVEL)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "botadmin version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewBotsCmd())
	rootCmd.AddCommand(commands.NewChatsCmd())
	rootCmd.AddCommand(commands.NewEmployeesCmd())
	rootCmd.AddCommand(commands.NewParticipantsCmd())
	rootCmd.AddCommand(commands.NewChatTypesCmd())
	rootCmd.AddCommand(commands.NewChatStatusesCmd())
	rootCmd.AddCommand(commands.NewSystemCmd())
	rootCmd.AddCommand(commands.NewDashCmd())
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		commands.PrintError(os.Stderr, err)
		return err
	}
	return nil
}
