package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockhand/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check docker, state directories and the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("dockhand doctor", colorize) {
				fmt.Fprintln(out, line)
			}
			failed := 0
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if failed > 0 {
				return fmt.Errorf("doctor found %d failing check(s)", failed)
			}
			return nil
		},
	}
}
