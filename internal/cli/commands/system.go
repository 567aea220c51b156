package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// NewSystemCmd creates the system command
func NewSystemCmd(opts ...Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:   "system",
		Short: "Show backend resource usage and record counts (admin only, dev server)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(opts)
			if err := checkFormat(output); err != nil {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				info, err := api.SystemInfo(cmd.Context())
				if err != nil {
					return err
				}
				if output != formatTable {
					return writeStructured(d.out, output, info)
				}
				printSystemInfo(d, info)
				return nil
			})
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)
	return cmd
}

func printSystemInfo(d *deps, info *models.SystemInfo) {
	uptime := time.Duration(info.UptimeSeconds) * time.Second

	fmt.Fprintf(d.out, "Service:    %s (up %s)\n", info.Service, uptime)
	fmt.Fprintf(d.out, "CPUs:       %d\n", info.Host.CPUCount)
	fmt.Fprintf(d.out, "Goroutines: %d\n", info.Host.Goroutines)
	fmt.Fprintf(d.out, "Heap:       %.1f MB\n", info.Host.HeapAllocMB)
	if info.Host.MemoryTotalGB > 0 {
		fmt.Fprintf(d.out, "Memory:     %.1f / %.1f GB used\n", info.Host.MemoryUsedGB, info.Host.MemoryTotalGB)
	}

	headerColor.Fprintln(d.out, "\nRecords")
	t := newTable(d.out, "USERS", "BOTS", "CHATS", "EMPLOYEES", "PARTICIPANTS")
	t.row(info.Records.Users, info.Records.Bots, info.Records.Chats, info.Records.Employees, info.Records.Participants)
	_ = t.flush()
}
