package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"sluice/internal/coordination"
)

func newAssignmentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assignment",
		Short: "Show the worker assignment the supervisor last observed",
		RunE: func(cmd *cobra.Command, args []string) error {
			var assignment coordination.Assignment
			if err := ctx.fetchJSON("/api/assignment", &assignment); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Assignment version %d (%d workers)\n", assignment.Version, len(assignment.Workers))
			if len(assignment.Workers) == 0 {
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Worker", "Topology", "Port"}, assignmentRows(assignment)))
			return nil
		},
	}
}

func assignmentRows(assignment coordination.Assignment) [][]string {
	workers := make([]coordination.WorkerSpec, len(assignment.Workers))
	copy(workers, assignment.Workers)
	sort.Slice(workers, func(i, j int) bool { return workers[i].WorkerID < workers[j].WorkerID })

	rows := make([][]string, 0, len(workers))
	for _, w := range workers {
		rows = append(rows, []string{w.WorkerID, w.Topology, strconv.Itoa(w.Port)})
	}
	return rows
}
