package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dockhand/internal/progress"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut, yamlOut bool

	cmd := &cobra.Command{
		Use:   "show <operation-id>",
		Short: "Display a tracked operation with its steps and layers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(jsonOut, yamlOut)
			if err != nil {
				return err
			}
			tracker, err := ctx.tracker(nil)
			if err != nil {
				return err
			}
			op, err := tracker.Get(args[0])
			if err != nil {
				if errors.Is(err, progress.ErrNotFound) {
					return fmt.Errorf("no tracked operation %q (see dockhand status --all)", args[0])
				}
				return err
			}
			if format != formatTable {
				return writeStructured(cmd, format, op)
			}
			out := cmd.OutOrStdout()
			renderOperationDetail(out, op, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "Output as YAML")
	return cmd
}

func renderOperationDetail(out io.Writer, op progress.Operation, colorize bool) {
	for _, line := range renderSectionHeader(op.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, label+":", value)
	}
	field("Kind", op.Kind)
	field("Image", op.Image)
	field("Command", "docker "+strings.Join(op.Command, " "))
	field("Status", renderOperationStatus(op.Status, colorize))
	field("Resumable", yesNo(op.Resumable()))
	field("Attempts", strconv.Itoa(op.Attempts))
	field("Progress", formatProgress(op))
	field("Percent", formatPercent(op))
	field("Started", formatTimestamp(op.StartedAt))
	field("Updated", formatTimestamp(op.UpdatedAt))
	if op.CompletedAt != nil {
		field("Completed", formatTimestamp(*op.CompletedAt))
	}
	if op.Status == progress.StatusFailed || op.Status == progress.StatusCompleted {
		field("Exit code", strconv.Itoa(op.ExitCode))
	}
	field("Digest", op.Progress.Digest)
	field("Image ID", op.Progress.ImageID)
	field("Last run", op.LastRunID)

	if len(op.Progress.Steps) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderSteps(op.Progress))
	}
	if len(op.Progress.Layers) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderLayers(op.Progress))
	}
	if op.Error != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, paint(statusKindColor(statusError), "Last output:", colorize))
		for _, line := range strings.Split(op.Error, "\n") {
			fmt.Fprintln(out, statusIndent+line)
		}
	}
}

func renderSteps(p progress.Progress) string {
	steps := p.OrderedSteps()
	rows := make([][]string, 0, len(steps))
	for _, step := range steps {
		label := strconv.Itoa(step.Number)
		if step.Total > 0 {
			label = fmt.Sprintf("%d/%d", step.Number, step.Total)
		}
		rows = append(rows, []string{step.Stage, label, step.Instruction})
	}
	return renderTable([]column{{header: "Stage"}, {header: "Step", align: alignRight}, {header: "Instruction"}}, rows)
}

func renderLayers(p progress.Progress) string {
	ids := make([]string, 0, len(p.Layers))
	for id := range p.Layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id, p.Layers[id]})
	}
	return renderTable([]column{{header: "Layer"}, {header: "State"}}, rows)
}
