package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sluice/internal/monitor"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show supervisor identity, phase, and queue depths",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status monitor.Status
			if err := ctx.fetchJSON("/api/status", &status); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, statusRows(status)))
			return nil
		},
	}
}

func statusRows(status monitor.Status) [][]string {
	rows := [][]string{
		{"Node ID", status.NodeID},
		{"Phase", titleLabel(status.Phase)},
		{"Hostname", status.Hostname},
		{"Uptime", formatUptime(status.UptimeSeconds)},
		{"Workers", strconv.Itoa(len(status.Workers))},
		{"Assignment Version", strconv.FormatInt(status.AssignmentVersion, 10)},
	}

	queues := make([]string, 0, len(status.QueueDepths))
	for name := range status.QueueDepths {
		queues = append(queues, name)
	}
	sort.Strings(queues)
	for _, name := range queues {
		rows = append(rows, []string{"Queue " + name, strconv.Itoa(status.QueueDepths[name])})
	}

	workers := make([]string, 0, len(status.Workers))
	for id := range status.Workers {
		workers = append(workers, id)
	}
	sort.Strings(workers)
	for _, id := range workers {
		rows = append(rows, []string{"Worker " + id, "pid " + strconv.Itoa(status.Workers[id])})
	}
	return rows
}

func formatUptime(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return d.String()
	}
	return d.Truncate(time.Second).String()
}
