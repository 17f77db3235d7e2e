package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dockhand/internal/progress"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut, yamlOut, all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List tracked operations (resumable ones by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(jsonOut, yamlOut)
			if err != nil {
				return err
			}
			tracker, err := ctx.tracker(nil)
			if err != nil {
				return err
			}
			ops, err := tracker.List()
			if err != nil {
				return fmt.Errorf("read progress file: %w", err)
			}
			if !all {
				ops = filterResumable(ops)
			}
			if ops == nil {
				ops = []progress.Operation{}
			}
			if format != formatTable {
				return writeStructured(cmd, format, ops)
			}

			out := cmd.OutOrStdout()
			if len(ops) == 0 {
				if all {
					fmt.Fprintln(out, "No tracked operations")
				} else {
					fmt.Fprintln(out, "No resumable operations (use --all to include completed ones)")
				}
				return nil
			}
			fmt.Fprintln(out, renderOperations(ops, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "Output as YAML")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed operations")
	return cmd
}

func filterResumable(ops []progress.Operation) []progress.Operation {
	var kept []progress.Operation
	for _, op := range ops {
		if op.Resumable() {
			kept = append(kept, op)
		}
	}
	return kept
}

func renderOperations(ops []progress.Operation, colorize bool) string {
	columns := []column{
		{header: "ID"},
		{header: "Status"},
		{header: "Progress"},
		{header: "%", align: alignRight},
		{header: "Attempts", align: alignRight},
		{header: "Updated"},
	}
	rows := make([][]string, 0, len(ops))
	for _, op := range ops {
		rows = append(rows, []string{
			op.ID,
			renderOperationStatus(op.Status, colorize),
			formatProgress(op),
			formatPercent(op),
			strconv.Itoa(op.Attempts),
			formatAge(op.UpdatedAt),
		})
	}
	return renderTable(columns, rows)
}
