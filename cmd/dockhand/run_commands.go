package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dockhand/internal/deps"
	"dockhand/internal/logging"
	"dockhand/internal/runner"
)

func newRunCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newDockerSubcommand(ctx, "build", "Run docker build with progress tracking", false),
		newDockerSubcommand(ctx, "push", "Run docker push with progress tracking", true),
		newDockerSubcommand(ctx, "pull", "Run docker pull with progress tracking", true),
		newExecCommand(ctx),
	}
}

func newDockerSubcommand(ctx *commandContext, name, short string, needsImage bool) *cobra.Command {
	return &cobra.Command{
		Use:                name + " [docker " + name + " arguments]",
		Short:              short,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			args = stripSeparator(args)
			if needsImage && len(args) == 0 {
				return fmt.Errorf("%s requires an image reference", name)
			}
			return runDocker(cmd, ctx, append([]string{name}, args...))
		},
	}
}

func newExecCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:                "exec -- <docker arguments>",
		Short:              "Run any docker command with progress tracking",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			args = stripSeparator(args)
			if len(args) == 0 {
				return errors.New("exec requires docker arguments")
			}
			return runDocker(cmd, ctx, args)
		},
	}
}

func stripSeparator(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}

func runDocker(cmd *cobra.Command, ctx *commandContext, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	if cli := deps.CheckDockerCLI(cfg.DockerBinary()); !cli.Available {
		return fmt.Errorf("docker cli unavailable: %s", cli.Detail)
	}

	tracker, err := ctx.tracker(logger)
	if err != nil {
		return err
	}

	var opts []runner.Option
	echo := cfg.Tracker.EchoOutput && !ctx.quiet()
	if echo {
		opts = append(opts, runner.WithOutput(cmd.OutOrStdout()))
	}
	store, err := ctx.openHistory(cmd.Context())
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable; continuing without it", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run dockhand doctor"),
			logging.String(logging.FieldImpact, "this attempt is not recorded in dockhand history"),
		)
	} else if store != nil {
		defer store.Close()
		opts = append(opts, runner.WithHistory(store))
	}

	r, err := runner.New(cfg, tracker, logger, opts...)
	if err != nil {
		return err
	}
	result, runErr := r.Run(cmd.Context(), args)
	if result.OperationID != "" {
		printRunSummary(cmd.ErrOrStderr(), result, runErr, !echo)
	}
	return runErr
}

func printRunSummary(out io.Writer, result runner.Result, runErr error, showTail bool) {
	label := result.OperationID
	if result.Resumed {
		label += " (resumed)"
	}
	if runErr == nil {
		fmt.Fprintf(out, "%s completed on attempt %d in %s\n", label, result.Attempt, formatDuration(result.Duration))
		return
	}
	var cmdErr *runner.CommandError
	if !errors.As(runErr, &cmdErr) {
		return
	}
	fmt.Fprintf(out, "%s failed on attempt %d (exit %d); re-run the same command to resume\n",
		label, result.Attempt, cmdErr.ExitCode)
	if showTail && len(cmdErr.Tail) > 0 {
		fmt.Fprintln(out, "Last output:")
		for _, line := range cmdErr.Tail {
			fmt.Fprintln(out, "  "+strings.TrimRight(line, " "))
		}
	}
}
