package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/auth"
	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts ...Option) *cobra.Command {
	var username, password, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a bot platform server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), newDeps(opts), serverAlias, username, password)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Login or email (or set BOTADMIN_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set BOTADMIN_PASSWORD, will prompt if not provided)")
	addServerFlag(cmd, &serverAlias)

	return cmd
}

func runLogin(ctx context.Context, d *deps, serverAlias, username, password string) error {
	// Check for environment variables (useful for CI/CD)
	if username == "" {
		username = os.Getenv("BOTADMIN_USERNAME")
	}
	if password == "" {
		password = os.Getenv("BOTADMIN_PASSWORD")
	}

	if username == "" {
		value, err := d.readLine("Username: ")
		if err != nil {
			return fmt.Errorf("username is required (use --username flag or BOTADMIN_USERNAME env var)")
		}
		username = value
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		value, err := d.readPassword("Password: ")
		if err != nil {
			if errors.Is(err, errNonInteractive) {
				return fmt.Errorf("password is required in non-interactive mode (use --password flag or BOTADMIN_PASSWORD env var)")
			}
			return err
		}
		password = value
	}

	m, done, err := d.newSession(serverAlias)
	if err != nil {
		return err
	}
	defer done()

	fmt.Fprintf(d.out, "Logging in to %s...\n", d.server.Label())

	if err := m.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login failed: %w", explainTransport(err))
	}

	user := m.CurrentUser()
	printSuccess(d.out, "Login successful!")
	fmt.Fprintf(d.out, "  User: %s (%s)\n", user.DisplayName(), user.Email)
	if user.IsAdmin {
		fmt.Fprintln(d.out, "  Role: Admin")
	}

	return nil
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(opts ...Option) *cobra.Command {
	var reg models.Registration
	var company, serverAlias string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("company") {
				reg.Company = &company
			}
			return runRegister(cmd.Context(), newDeps(opts), serverAlias, reg)
		},
	}

	cmd.Flags().StringVar(&reg.Login, "login", "", "Login (3-50 letters and digits)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "Password (or set BOTADMIN_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&company, "company", "", "Company (optional)")
	cmd.Flags().StringVar(&reg.LanguageCode, "language", models.DefaultLanguage, "Interface language code")
	addServerFlag(cmd, &serverAlias)

	return cmd
}

func runRegister(ctx context.Context, d *deps, serverAlias string, reg models.Registration) error {
	if reg.Password == "" {
		reg.Password = os.Getenv("BOTADMIN_PASSWORD")
	}
	if reg.Password == "" {
		password, err := d.readPassword("Password: ")
		if err != nil {
			if errors.Is(err, errNonInteractive) {
				return fmt.Errorf("password is required in non-interactive mode (use --password flag or BOTADMIN_PASSWORD env var)")
			}
			return err
		}
		confirmation, err := d.readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirmation {
			return fmt.Errorf("passwords do not match")
		}
		reg.Password = password
	}

	m, done, err := d.newSession(serverAlias)
	if err != nil {
		return err
	}
	defer done()

	if err := m.Register(ctx, reg); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(d.errOut, "Registration rejected:")
			for _, f := range verr.Fields {
				fmt.Fprintf(d.errOut, "  %s: %s\n", f.Field, f.Message)
			}
		}
		return fmt.Errorf("registration failed: %w", explainTransport(err))
	}

	user := m.CurrentUser()
	printSuccess(d.out, "Account %s created, you are now logged in", user.Login)
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts ...Option) *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session for a server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(newDeps(opts), serverAlias)
		},
	}
	addServerFlag(cmd, &serverAlias)

	return cmd
}

func runLogout(d *deps, serverAlias string) error {
	m, done, err := d.newSession(serverAlias)
	if err != nil {
		return err
	}
	defer done()

	if err := m.Restore(); err != nil {
		d.log().Debug().Err(err).Msg("Could not read stored token before logout")
	}
	wasLoggedIn := m.Authenticated()

	m.Logout()

	if wasLoggedIn {
		printSuccess(d.out, "Logged out of %s", d.server.Label())
	} else {
		printWarning(d.out, "Not logged in to %s", d.server.Label())
	}
	return nil
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts ...Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), newDeps(opts), serverAlias, output)
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)

	return cmd
}

func runWhoami(ctx context.Context, d *deps, serverAlias, output string) error {
	if err := checkFormat(output); err != nil {
		return err
	}

	m, done, err := d.newSession(serverAlias)
	if err != nil {
		return err
	}
	defer done()

	// Init confirms the stored token and drops it if the backend rejects it
	if err := m.Init(ctx); err != nil {
		return err
	}
	user := m.CurrentUser()
	if user == nil {
		return auth.ErrNotAuthenticated
	}

	if output != formatTable {
		return writeStructured(d.out, output, user)
	}

	fmt.Fprintf(d.out, "Server:  %s\n", d.server.Label())
	fmt.Fprintf(d.out, "Login:   %s\n", user.Login)
	fmt.Fprintf(d.out, "Name:    %s\n", user.DisplayName())
	fmt.Fprintf(d.out, "Email:   %s\n", user.Email)
	if user.IsAdmin {
		fmt.Fprintln(d.out, "Role:    Admin")
	} else {
		fmt.Fprintln(d.out, "Role:    User")
	}
	if info, err := auth.InspectToken(m.Token()); err == nil && !info.ExpiresAt.IsZero() {
		fmt.Fprintf(d.out, "Expires: %s (in %s)\n",
			info.ExpiresAt.Local().Format(time.RFC3339),
			time.Until(info.ExpiresAt).Round(time.Second))
	}
	return nil
}

// explainTransport only hints at connectivity problems; credential errors
// already speak for themselves during login.
func explainTransport(err error) error {
	if errors.Is(err, client.ErrTransport) {
		return explain(err)
	}
	return err
}
