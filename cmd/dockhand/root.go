package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var stateFlag string
	var quietFlag bool

	ctx := newCommandContext(&configFlag, &stateFlag, &quietFlag)

	rootCmd := &cobra.Command{
		Use:           "dockhand",
		Short:         "Resumable docker build and push tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Run commands disable flag parsing so docker flags pass through;
		// traversal lets the root still parse its own flags first.
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&stateFlag, "state", "", "Progress file path (overrides config and DOCKHAND_STATE_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Do not echo docker output")

	for _, cmd := range newRunCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newForgetCommand(ctx))
	rootCmd.AddCommand(newClearCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
