package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/models"
)

// NewProfileCmd creates the profile command group
func NewProfileCmd(opts ...Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your own profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileShow(cmd.Context(), newDeps(opts), serverAlias, output)
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)

	cmd.AddCommand(newProfileUpdateCmd(opts))
	return cmd
}

func runProfileShow(ctx context.Context, d *deps, serverAlias, output string) error {
	if err := checkFormat(output); err != nil {
		return err
	}

	m, done, err := d.authenticatedSession(serverAlias)
	if err != nil {
		return err
	}
	defer done()

	user, err := m.RefreshUser(ctx)
	if err != nil {
		return explain(err)
	}
	return printProfile(d, user, output)
}

func printProfile(d *deps, user *models.User, output string) error {
	if output != formatTable {
		return writeStructured(d.out, output, user)
	}

	fmt.Fprintf(d.out, "ID:         %d\n", user.ID)
	fmt.Fprintf(d.out, "Login:      %s\n", user.Login)
	fmt.Fprintf(d.out, "Email:      %s\n", cell(user.Email))
	fmt.Fprintf(d.out, "First name: %s\n", cell(user.FirstName))
	fmt.Fprintf(d.out, "Last name:  %s\n", cell(user.LastName))
	fmt.Fprintf(d.out, "Company:    %s\n", cell(user.Company))
	fmt.Fprintf(d.out, "Language:   %s\n", cell(user.LanguageCode))
	fmt.Fprintf(d.out, "Admin:      %s\n", yesNo(user.IsAdmin))
	fmt.Fprintf(d.out, "Active:     %s\n", yesNo(user.IsActive))
	fmt.Fprintf(d.out, "Created:    %s\n", user.CreatedAt.String())
	fmt.Fprintf(d.out, "Last login: %s\n", cell(user.LastLogin))
	return nil
}

func newProfileUpdateCmd(opts []Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields (only the flags you pass are sent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			update := models.ProfileUpdate{
				FirstName:    optString(cmd, "first-name"),
				LastName:     optString(cmd, "last-name"),
				Email:        optString(cmd, "email"),
				Company:      optString(cmd, "company"),
				LanguageCode: optString(cmd, "language"),
				Password:     optString(cmd, "password"),
			}
			return runProfileUpdate(cmd.Context(), newDeps(opts), serverAlias, output, update)
		},
	}

	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("company", "", "Company")
	cmd.Flags().String("language", "", "Interface language code")
	cmd.Flags().String("password", "", "New password (at least 8 characters with letters and digits)")
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)

	return cmd
}

func runProfileUpdate(ctx context.Context, d *deps, serverAlias, output string, update models.ProfileUpdate) error {
	if err := checkFormat(output); err != nil {
		return err
	}
	if update.IsEmpty() {
		return fmt.Errorf("nothing to update: pass at least one field flag")
	}
	if err := models.Validate(update); err != nil {
		return err
	}

	m, done, err := d.authenticatedSession(serverAlias)
	if err != nil {
		return err
	}
	defer done()

	user, err := m.UpdateProfile(ctx, update)
	if err != nil {
		return explain(err)
	}

	if output == formatTable {
		printSuccess(d.out, "Profile updated")
	}
	return printProfile(d, user, output)
}
