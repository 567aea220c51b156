package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// NewEmployeesCmd creates the employees command group
func NewEmployeesCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Manage employees tracked across chats",
	}
	cmd.AddCommand(
		newEmployeesListCmd(opts),
		newEmployeesCreateCmd(opts),
		newEmployeesUpdateCmd(opts),
		newEmployeesDeleteCmd(opts),
	)
	return cmd
}

func newEmployeesListCmd(opts []Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List employees",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(opts)
			if err := checkFormat(output); err != nil {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				employees, err := api.ListEmployees(cmd.Context())
				if err != nil {
					return err
				}
				return printEmployees(d, employees, output)
			})
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)
	return cmd
}

func printEmployees(d *deps, employees []models.Employee, output string) error {
	if output != formatTable {
		return writeStructured(d.out, output, employees)
	}
	if len(employees) == 0 {
		fmt.Fprintln(d.out, "No employees found")
		return nil
	}

	t := newTable(d.out, "ID", "NAME", "USERNAME", "TELEGRAM ID", "ACTIVE", "EXTERNAL", "BOT")
	for i := range employees {
		e := &employees[i]
		t.row(e.ID, e.FullName, e.TelegramUsername, e.TelegramUserID, e.IsActive, e.IsExternal, e.IsBot)
	}
	return t.flush()
}

func newEmployeesCreateCmd(opts []Option) *cobra.Command {
	var serverAlias string
	var employee models.EmployeeCreate

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employee.TelegramUsername = optString(cmd, "username")
			if cmd.Flags().Changed("telegram-id") {
				v, _ := cmd.Flags().GetInt64("telegram-id")
				id := models.TelegramID(v)
				employee.TelegramUserID = &id
			}
			d := newDeps(opts)
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				created, err := api.CreateEmployee(cmd.Context(), employee)
				if err != nil {
					return err
				}
				printSuccess(d.out, "Created employee %s (id %d)", created.FullName, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&employee.FullName, "name", "", "Full name")
	cmd.Flags().String("username", "", "Messenger username")
	cmd.Flags().Int64("telegram-id", 0, "Messenger user id")
	cmd.Flags().BoolVar(&employee.IsActive, "active", true, "Whether the employee is active")
	cmd.Flags().BoolVar(&employee.IsExternal, "external", false, "Whether the employee is external")
	cmd.Flags().BoolVar(&employee.IsBot, "bot", false, "Whether the account is a bot")
	addServerFlag(cmd, &serverAlias)
	return cmd
}

func newEmployeesUpdateCmd(opts []Option) *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "update <employee-id>",
		Short: "Change an employee (only the flags you pass are sent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("employee", args[0])
			if err != nil {
				return err
			}
			update := models.EmployeeUpdate{
				FullName:         optString(cmd, "name"),
				TelegramUsername: optString(cmd, "username"),
				IsActive:         optBool(cmd, "active"),
				IsExternal:       optBool(cmd, "external"),
				IsBot:            optBool(cmd, "bot"),
			}
			return runEmployeesUpdate(cmd.Context(), newDeps(opts), serverAlias, id, update)
		},
	}
	cmd.Flags().String("name", "", "Full name")
	cmd.Flags().String("username", "", "Messenger username")
	cmd.Flags().Bool("active", false, "Activate (--active) or deactivate (--active=false)")
	cmd.Flags().Bool("external", false, "Mark as external (--external) or internal (--external=false)")
	cmd.Flags().Bool("bot", false, "Mark as bot account")
	addServerFlag(cmd, &serverAlias)
	return cmd
}

func runEmployeesUpdate(ctx context.Context, d *deps, serverAlias string, id int, update models.EmployeeUpdate) error {
	return d.withAPI(ctx, serverAlias, func(api *client.Client) error {
		if err := api.UpdateEmployee(ctx, id, update); err != nil {
			return err
		}
		employees, err := api.ListEmployees(ctx)
		if err != nil {
			return err
		}
		printSuccess(d.out, "Employee %d updated", id)
		for i := range employees {
			if employees[i].ID == id {
				return printEmployees(d, employees[i:i+1], formatTable)
			}
		}
		return nil
	})
}

func newEmployeesDeleteCmd(opts []Option) *cobra.Command {
	var serverAlias string
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <employee-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an employee",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("employee", args[0])
			if err != nil {
				return err
			}
			d := newDeps(opts)
			ok, err := d.confirmDelete(fmt.Sprintf("employee %d", id), yes)
			if err != nil || !ok {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				if err := api.DeleteEmployee(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess(d.out, "Deleted employee %d", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	addServerFlag(cmd, &serverAlias)
	return cmd
}
