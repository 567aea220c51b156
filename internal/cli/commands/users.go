package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// NewUsersCmd creates the users command group (administrators only)
func NewUsersCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage platform accounts (admin only)",
	}
	cmd.AddCommand(newUsersListCmd(opts), newUsersSetCmd(opts))
	return cmd
}

func newUsersListCmd(opts []Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(opts)
			if err := checkFormat(output); err != nil {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				users, err := api.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				return printUsers(d, users, output)
			})
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)
	return cmd
}

func printUsers(d *deps, users []models.User, output string) error {
	if output != formatTable {
		return writeStructured(d.out, output, users)
	}
	if len(users) == 0 {
		fmt.Fprintln(d.out, "No users found")
		return nil
	}

	t := newTable(d.out, "ID", "LOGIN", "NAME", "EMAIL", "ADMIN", "ACTIVE", "LAST LOGIN")
	for i := range users {
		u := &users[i]
		t.row(u.ID, u.Login, u.DisplayName(), u.Email, u.IsAdmin, u.IsActive, u.LastLogin)
	}
	return t.flush()
}

func newUsersSetCmd(opts []Option) *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Change another account's role, status or password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			update := models.UserUpdate{
				IsAdmin:  optBool(cmd, "admin"),
				IsActive: optBool(cmd, "active"),
				Password: optString(cmd, "password"),
			}
			return runUsersSet(cmd.Context(), newDeps(opts), serverAlias, id, update)
		},
	}
	cmd.Flags().Bool("admin", false, "Grant (--admin) or revoke (--admin=false) administrator rights")
	cmd.Flags().Bool("active", false, "Activate (--active) or block (--active=false) the account")
	cmd.Flags().String("password", "", "Set a new password")
	addServerFlag(cmd, &serverAlias)
	return cmd
}

func runUsersSet(ctx context.Context, d *deps, serverAlias string, id int, update models.UserUpdate) error {
	return d.withAPI(ctx, serverAlias, func(api *client.Client) error {
		if err := api.UpdateUser(ctx, id, update); err != nil {
			return err
		}
		users, err := api.ListUsers(ctx)
		if err != nil {
			return err
		}
		printSuccess(d.out, "User %d updated", id)
		for i := range users {
			if users[i].ID == id {
				return printUsers(d, users[i:i+1], formatTable)
			}
		}
		return nil
	})
}
