package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// NewBotsCmd creates the bots command group
func NewBotsCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bots",
		Short: "Manage your bots",
	}
	cmd.AddCommand(
		newBotsListCmd(opts),
		newBotsCreateCmd(opts),
		newBotsUpdateCmd(opts),
		newBotsDeleteCmd(opts),
	)
	return cmd
}

func newBotsListCmd(opts []Option) *cobra.Command {
	var serverAlias, output string
	var showTokens bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List bots",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(opts)
			if err := checkFormat(output); err != nil {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				bots, err := api.ListBots(cmd.Context())
				if err != nil {
					return err
				}
				return printBots(d, bots, output, showTokens)
			})
		},
	}
	cmd.Flags().BoolVar(&showTokens, "show-tokens", false, "Print bot tokens instead of masking them")
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)
	return cmd
}

func printBots(d *deps, bots []models.Bot, output string, showTokens bool) error {
	if !showTokens {
		masked := make([]models.Bot, len(bots))
		for i, b := range bots {
			b.Token = maskToken(b.Token)
			masked[i] = b
		}
		bots = masked
	}
	if output != formatTable {
		return writeStructured(d.out, output, bots)
	}
	if len(bots) == 0 {
		fmt.Fprintln(d.out, "No bots found")
		fmt.Fprintln(d.out, "\nAdd one with: botadmin bots create --name <name> --token <token>")
		return nil
	}

	t := newTable(d.out, "ID", "NAME", "TOKEN", "ACTIVE", "CREATED")
	for i := range bots {
		b := &bots[i]
		t.row(b.ID, b.Name, b.Token, b.IsActive, b.CreatedAt)
	}
	return t.flush()
}

// maskToken keeps the bot id prefix of a messenger token and hides the secret
func maskToken(token string) string {
	const visible = 4
	runes := []rune(token)
	if len(runes) <= visible*2 {
		return "****"
	}
	return string(runes[:visible]) + "…" + string(runes[len(runes)-visible:])
}

func newBotsCreateCmd(opts []Option) *cobra.Command {
	var serverAlias string
	var bot models.BotCreate

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(opts)
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				created, err := api.CreateBot(cmd.Context(), bot)
				if err != nil {
					return err
				}
				printSuccess(d.out, "Created bot %s (id %d)", created.Name, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bot.Name, "name", "", "Bot name")
	cmd.Flags().StringVar(&bot.Token, "token", "", "Bot API token")
	cmd.Flags().BoolVar(&bot.IsActive, "active", true, "Whether the bot is active")
	addServerFlag(cmd, &serverAlias)
	return cmd
}

func newBotsUpdateCmd(opts []Option) *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "update <bot-id>",
		Short: "Change a bot (only the flags you pass are sent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("bot", args[0])
			if err != nil {
				return err
			}
			update := models.BotUpdate{
				Name:     optString(cmd, "name"),
				Token:    optString(cmd, "token"),
				IsActive: optBool(cmd, "active"),
			}
			return runBotsUpdate(cmd.Context(), newDeps(opts), serverAlias, id, update)
		},
	}
	cmd.Flags().String("name", "", "Bot name")
	cmd.Flags().String("token", "", "Bot API token")
	cmd.Flags().Bool("active", false, "Activate (--active) or pause (--active=false) the bot")
	addServerFlag(cmd, &serverAlias)
	return cmd
}

func runBotsUpdate(ctx context.Context, d *deps, serverAlias string, id int, update models.BotUpdate) error {
	return d.withAPI(ctx, serverAlias, func(api *client.Client) error {
		if err := api.UpdateBot(ctx, id, update); err != nil {
			return err
		}
		bots, err := api.ListBots(ctx)
		if err != nil {
			return err
		}
		printSuccess(d.out, "Bot %d updated", id)
		for i := range bots {
			if bots[i].ID == id {
				return printBots(d, bots[i:i+1], formatTable, false)
			}
		}
		return nil
	})
}

func newBotsDeleteCmd(opts []Option) *cobra.Command {
	var serverAlias string
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <bot-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a bot",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("bot", args[0])
			if err != nil {
				return err
			}
			d := newDeps(opts)
			ok, err := d.confirmDelete(fmt.Sprintf("bot %d", id), yes)
			if err != nil || !ok {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				if err := api.DeleteBot(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess(d.out, "Deleted bot %d", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	addServerFlag(cmd, &serverAlias)
	return cmd
}
