package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// NewParticipantsCmd creates the participants command group
func NewParticipantsCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participants",
		Short: "Manage employees' membership in a chat",
	}
	cmd.AddCommand(
		newParticipantsListCmd(opts),
		newParticipantsUpdateCmd(opts),
		newParticipantsRemoveCmd(opts),
	)
	return cmd
}

func newParticipantsListCmd(opts []Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:     "ls <chat-id>",
		Aliases: []string{"list"},
		Short:   "List a chat's participants",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := parseID("chat", args[0])
			if err != nil {
				return err
			}
			if err := checkFormat(output); err != nil {
				return err
			}
			d := newDeps(opts)
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				list, err := api.ListParticipants(cmd.Context(), chatID)
				if err != nil {
					return err
				}
				return printParticipants(d, list, output)
			})
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)
	return cmd
}

func printParticipants(d *deps, list *models.ParticipantList, output string) error {
	if output != formatTable {
		return writeStructured(d.out, output, list)
	}

	headerColor.Fprintf(d.out, "Chat: %s\n\n", cell(list.ChatTitle))
	if len(list.Participants) == 0 {
		fmt.Fprintln(d.out, "No participants found")
		return nil
	}

	t := newTable(d.out, "EMPLOYEE", "NAME", "USERNAME", "ADMIN", "MEMBER", "EXTERNAL", "SINCE")
	for i := range list.Participants {
		p := &list.Participants[i]
		t.row(p.EmployeeID, p.FullName, p.TelegramUsername, p.IsAdmin, p.MembershipActive, p.IsExternal, p.MembershipAt)
	}
	return t.flush()
}

func newParticipantsUpdateCmd(opts []Option) *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "update <chat-id> <employee-id>",
		Short: "Change a participant's admin flag or membership",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := parseID("chat", args[0])
			if err != nil {
				return err
			}
			employeeID, err := parseID("employee", args[1])
			if err != nil {
				return err
			}
			update := models.ParticipantUpdate{
				IsAdmin:          optBool(cmd, "admin"),
				MembershipActive: optBool(cmd, "active"),
			}
			return runParticipantsUpdate(cmd.Context(), newDeps(opts), serverAlias, chatID, employeeID, update)
		},
	}
	cmd.Flags().Bool("admin", false, "Make (--admin) or unmake (--admin=false) the participant a chat admin")
	cmd.Flags().Bool("active", false, "Activate (--active) or suspend (--active=false) the membership")
	addServerFlag(cmd, &serverAlias)
	return cmd
}

func runParticipantsUpdate(ctx context.Context, d *deps, serverAlias string, chatID, employeeID int, update models.ParticipantUpdate) error {
	return d.withAPI(ctx, serverAlias, func(api *client.Client) error {
		if err := api.UpdateParticipant(ctx, chatID, employeeID, update); err != nil {
			return err
		}
		list, err := api.ListParticipants(ctx, chatID)
		if err != nil {
			return err
		}
		printSuccess(d.out, "Participant %d in chat %d updated", employeeID, chatID)
		for i := range list.Participants {
			if list.Participants[i].EmployeeID == employeeID {
				single := &models.ParticipantList{
					ChatTitle:    list.ChatTitle,
					Participants: list.Participants[i : i+1],
				}
				return printParticipants(d, single, formatTable)
			}
		}
		return nil
	})
}

func newParticipantsRemoveCmd(opts []Option) *cobra.Command {
	var serverAlias string
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove <chat-id> <employee-id>",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove an employee from a chat",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := parseID("chat", args[0])
			if err != nil {
				return err
			}
			employeeID, err := parseID("employee", args[1])
			if err != nil {
				return err
			}
			d := newDeps(opts)
			ok, err := d.confirmDelete(fmt.Sprintf("employee %d from chat %d", employeeID, chatID), yes)
			if err != nil || !ok {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				if err := api.RemoveParticipant(cmd.Context(), chatID, employeeID); err != nil {
					return err
				}
				printSuccess(d.out, "Removed employee %d from chat %d", employeeID, chatID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	addServerFlag(cmd, &serverAlias)
	return cmd
}
