package commands

import (
	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// NewChatTypesCmd lists the chat type lookup table
func NewChatTypesCmd(opts ...Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:   "chat-types",
		Short: "List chat types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(opts)
			if err := checkFormat(output); err != nil {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				types, err := api.ListChatTypes(cmd.Context())
				if err != nil {
					return err
				}
				if output != formatTable {
					return writeStructured(d.out, output, types)
				}
				return printLookup(d, models.ChatTypeLookup(types))
			})
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)
	return cmd
}

// NewChatStatusesCmd lists the chat status lookup table
func NewChatStatusesCmd(opts ...Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:   "chat-statuses",
		Short: "List chat statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(opts)
			if err := checkFormat(output); err != nil {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				statuses, err := api.ListChatStatuses(cmd.Context())
				if err != nil {
					return err
				}
				if output != formatTable {
					return writeStructured(d.out, output, statuses)
				}
				return printLookup(d, models.ChatStatusLookup(statuses))
			})
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)
	return cmd
}

func printLookup(d *deps, l models.Lookup) error {
	t := newTable(d.out, "ID", "NAME")
	for _, id := range l.IDs() {
		t.row(id, l.Name(id))
	}
	return t.flush()
}
