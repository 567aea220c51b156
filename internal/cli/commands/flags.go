package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/client"
)

// Changed-only flag readers. An update payload carries a field only when
// its flag was given on the command line.

func optString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func optBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

func optInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

// parseID reads a positive numeric identifier argument
func parseID(what, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q: must be a positive number", what, arg)
	}
	return id, nil
}

// withAPI runs fn against the stored session for the resolved server
func (d *deps) withAPI(ctx context.Context, serverAlias string, fn func(api *client.Client) error) error {
	m, done, err := d.authenticatedSession(serverAlias)
	if err != nil {
		return err
	}
	defer done()

	if err := fn(m.API()); err != nil {
		if errors.Is(err, client.ErrNoChanges) {
			return fmt.Errorf("%w: pass at least one field flag", err)
		}
		return explain(err)
	}
	return nil
}

// confirmDelete asks before destructive calls unless --yes was given
func (d *deps) confirmDelete(what string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := d.confirm(fmt.Sprintf("Delete %s?", what))
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(d.out, "Cancelled")
	}
	return ok, nil
}
