package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dockhand/internal/history"
	"dockhand/internal/progress"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOut, yamlOut bool
	var limit int

	cmd := &cobra.Command{
		Use:   "history [operation-id]",
		Short: "List recorded attempts, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(jsonOut, yamlOut)
			if err != nil {
				return err
			}
			store, err := ctx.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("history is disabled (tracker.history_enabled = false)")
			}
			defer store.Close()

			var operationID string
			if len(args) == 1 {
				operationID = args[0]
			}
			attempts, err := store.List(cmd.Context(), operationID, limit)
			if err != nil {
				return err
			}
			if attempts == nil {
				attempts = []history.Attempt{}
			}
			if format != formatTable {
				return writeStructured(cmd, format, attempts)
			}

			out := cmd.OutOrStdout()
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No recorded attempts")
				return nil
			}
			fmt.Fprintln(out, renderAttempts(attempts, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum attempts to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "Output as YAML")
	return cmd
}

func renderAttempts(attempts []history.Attempt, colorize bool) string {
	columns := []column{
		{header: "Run"},
		{header: "Operation"},
		{header: "Status"},
		{header: "Exit", align: alignRight},
		{header: "Resumed"},
		{header: "Started"},
		{header: "Duration", align: alignRight},
	}
	rows := make([][]string, 0, len(attempts))
	for _, attempt := range attempts {
		exit := "-"
		if attempt.ExitCode != nil {
			exit = strconv.Itoa(*attempt.ExitCode)
		}
		duration := "-"
		if attempt.FinishedAt != nil {
			duration = formatDuration(attempt.Duration())
		}
		rows = append(rows, []string{
			shortRunID(attempt.RunID),
			attempt.OperationID,
			renderOperationStatus(progress.Status(attempt.Status), colorize),
			exit,
			yesNo(attempt.Resumed),
			formatTimestamp(attempt.StartedAt),
			duration,
		})
	}
	return renderTable(columns, rows)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
