package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dockhand/internal/progress"
)

func newForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <operation-id>",
		Short: "Remove one operation from the progress file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.tracker(nil)
			if err != nil {
				return err
			}
			if err := tracker.Remove(args[0]); err != nil {
				if errors.Is(err, progress.ErrNotFound) {
					return fmt.Errorf("no tracked operation %q", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", args[0])
			return nil
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var (
		completed bool
		all       bool
		statuses  []string
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove completed operations (or by --status, or all with --all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors := 0
			for _, set := range []bool{completed, all, len(statuses) > 0} {
				if set {
					selectors++
				}
			}
			if selectors > 1 {
				return errors.New("--completed, --status and --all are mutually exclusive")
			}

			var match []progress.Status
			switch {
			case all:
			case len(statuses) > 0:
				for _, value := range statuses {
					status, ok := progress.ParseStatus(strings.ToLower(strings.TrimSpace(value)))
					if !ok {
						return fmt.Errorf("unknown status %q (use started, in_progress, completed or failed)", value)
					}
					match = append(match, status)
				}
			default:
				match = []progress.Status{progress.StatusCompleted}
			}

			tracker, err := ctx.tracker(nil)
			if err != nil {
				return err
			}
			removed, err := tracker.Clear(match...)
			if err != nil {
				return err
			}
			noun := "operations"
			if removed == 1 {
				noun = "operation"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s\n", removed, noun)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Remove completed operations (default)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Remove operations with these statuses")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every operation")
	return cmd
}
