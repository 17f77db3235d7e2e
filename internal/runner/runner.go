package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dockhand/internal/config"
	"dockhand/internal/dockercmd"
	"dockhand/internal/history"
	"dockhand/internal/logging"
	"dockhand/internal/progress"
)

// HistoryRecorder persists attempts to the ledger.
type HistoryRecorder interface {
	Record(ctx context.Context, attempt history.Attempt) error
	Finish(ctx context.Context, runID, status string, exitCode int, errText string) error
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithHistory records every attempt in the supplied ledger.
func WithHistory(recorder HistoryRecorder) Option {
	return func(r *Runner) {
		r.history = recorder
	}
}

// WithOutput echoes docker output lines to w.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithRunIDs overrides the attempt id generator.
func WithRunIDs(next func() string) Option {
	return func(r *Runner) {
		if next != nil {
			r.newRunID = next
		}
	}
}

// Runner executes docker commands and tracks their progress.
type Runner struct {
	binary    string
	env       []string
	timeout   time.Duration
	tailLines int
	bucket    float64

	tracker  *progress.Tracker
	history  HistoryRecorder
	exec     Executor
	out      io.Writer
	logger   *slog.Logger
	newRunID func() string
	now      func() time.Time
}

// Result describes a finished attempt.
type Result struct {
	OperationID string
	RunID       string
	Command     dockercmd.Command
	Resumed     bool
	Attempt     int
	Status      progress.Status
	Progress    progress.Progress
	ExitCode    int
	Duration    time.Duration
}

// New constructs a runner from configuration. A nil tracker disables progress
// persistence.
func New(cfg *config.Config, tracker *progress.Tracker, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("runner requires configuration")
	}
	binary := strings.TrimSpace(cfg.DockerBinary())
	if binary == "" {
		return nil, errors.New("docker binary required")
	}
	if tracker == nil {
		tracker = progress.Open("", logger)
	}
	r := &Runner{
		binary:    binary,
		env:       append([]string(nil), cfg.Docker.ExtraEnv...),
		timeout:   time.Duration(cfg.Docker.TimeoutSeconds) * time.Second,
		tailLines: cfg.Tracker.ErrorTailLines,
		bucket:    cfg.Tracker.ProgressBucket,
		tracker:   tracker,
		exec:      commandExecutor{},
		logger:    logging.NewComponentLogger(logger, "runner"),
		newRunID:  uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes docker with args. A failed docker command is reported as a
// *CommandError after the failure has been recorded.
func (r *Runner) Run(ctx context.Context, args []string) (Result, error) {
	cmd := dockercmd.Parse(args)
	if len(cmd.Args) == 0 {
		return Result{}, errors.New("docker arguments required")
	}
	id := dockercmd.OperationID(cmd)
	runID := r.newRunID()
	ctx = logging.WithRunID(logging.WithOperationID(ctx, id), runID)
	logger := logging.WithContext(ctx, r.logger)

	previous, resumed := r.tracker.IsResumable(id)
	if resumed {
		logger.Info("resuming operation",
			logging.String(logging.FieldEventType, "operation_resume"),
			logging.String("previous_status", string(previous.Status)),
			logging.Int("previous_attempts", previous.Attempts),
			logging.Int("last_step", previous.Progress.CurrentStep),
			logging.Int("total_steps", previous.Progress.TotalSteps),
		)
	} else {
		logger.Info("starting operation",
			logging.String(logging.FieldEventType, "operation_start"),
			logging.String("kind", string(cmd.Kind)),
			logging.String("image", cmd.Image),
		)
	}

	snapshot, err := r.tracker.StartOperation(id, cmd, runID)
	if err != nil {
		return Result{}, fmt.Errorf("start operation %s: %w", id, err)
	}
	if snapshot.ID == "" {
		snapshot = progress.Operation{ID: id, Kind: string(cmd.Kind), Image: cmd.Image, Attempts: 1}
	}

	started := r.now()
	r.recordAttempt(ctx, logger, history.Attempt{
		RunID:       runID,
		OperationID: id,
		Kind:        string(cmd.Kind),
		Command:     cmd.Args,
		Status:      string(progress.StatusStarted),
		Resumed:     resumed,
		StartedAt:   started,
	})

	tail := newTailBuffer(r.tailLines)
	sampler := logging.NewProgressSampler(r.bucket)
	trackerFailed := false
	onLine := func(line string) {
		tail.Add(line)
		if r.out != nil {
			fmt.Fprintln(r.out, line)
		}
		event, ok := dockercmd.ParseLine(line)
		if !ok {
			return
		}
		// Progress-bar redraws repeat the same state; only changes reach disk.
		if !snapshot.ApplyEvent(event) {
			return
		}
		if err := r.tracker.Apply(id, event); err != nil && !trackerFailed {
			trackerFailed = true
			r.warnTracker(logger, err)
		}
		r.logProgress(logger, sampler, snapshot, event)
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	runErr := r.exec.Run(runCtx, r.binary, cmd.Args, r.env, onLine)

	result := Result{
		OperationID: id,
		RunID:       runID,
		Command:     cmd,
		Resumed:     resumed,
		Attempt:     snapshot.Attempts,
		Progress:    snapshot.Progress,
		Duration:    r.now().Sub(started),
	}

	if runErr == nil {
		result.Status = progress.StatusCompleted
		if err := r.tracker.CompleteOperation(id, 0); err != nil {
			r.warnTracker(logger, err)
		}
		r.finishAttempt(ctx, logger, runID, progress.StatusCompleted, 0, "")
		logger.Info("operation completed",
			logging.String(logging.FieldEventType, "operation_complete"),
			logging.Int("attempt", result.Attempt),
			logging.Duration("duration", result.Duration),
			logging.String("digest", snapshot.Progress.Digest),
		)
		return result, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		runErr = fmt.Errorf("timed out after %s: %w", r.timeout, runErr)
	}
	code := ExitCode(runErr)
	lines := tail.Lines()
	if len(lines) == 0 {
		lines = []string{runErr.Error()}
	}
	result.Status = progress.StatusFailed
	result.ExitCode = code
	if err := r.tracker.FailOperation(id, code, lines); err != nil {
		r.warnTracker(logger, err)
	}
	r.finishAttempt(ctx, logger, runID, progress.StatusFailed, code, strings.Join(lines, "\n"))
	logging.ErrorWithContext(logger, "operation failed", "operation_failed",
		logging.Int("exit_code", code),
		logging.Int("attempt", result.Attempt),
		logging.Error(runErr),
		logging.String(logging.FieldErrorHint, "re-run the same command to resume; docker reuses cached layers"),
	)
	return result, &CommandError{OperationID: id, ExitCode: code, Tail: lines, Err: runErr}
}

func (r *Runner) logProgress(logger *slog.Logger, sampler *logging.ProgressSampler, op progress.Operation, event dockercmd.Event) {
	var phase, message string
	switch event.Kind {
	case dockercmd.EventStep:
		phase = "build"
		message = fmt.Sprintf("step %d/%d %s", op.Progress.CurrentStep, op.Progress.TotalSteps, event.Instruction)
		if event.Stage != "" {
			message = fmt.Sprintf("step %d/%d %s (stage %s %d/%d)", op.Progress.CurrentStep, op.Progress.TotalSteps,
				event.Instruction, event.Stage, event.Step, event.TotalSteps)
		}
	case dockercmd.EventLayer:
		phase = op.Kind
		done, total := op.LayerCounts()
		message = fmt.Sprintf("%d/%d layers done", done, total)
	case dockercmd.EventDigest:
		logger.Info("image digest reported",
			logging.String(logging.FieldEventType, "image_digest"),
			logging.String("tag", event.Tag),
			logging.String("digest", event.Digest),
		)
		return
	default:
		return
	}
	percent := op.Percent()
	if !sampler.ShouldLog(percent, phase) {
		return
	}
	logger.Info("operation progress",
		logging.String(logging.FieldProgressStage, phase),
		logging.Float64(logging.FieldProgressPercent, percent),
		logging.String(logging.FieldProgressMessage, message),
	)
}

func (r *Runner) recordAttempt(ctx context.Context, logger *slog.Logger, attempt history.Attempt) {
	if r.history == nil {
		return
	}
	if err := r.history.Record(ctx, attempt); err != nil {
		r.warnHistory(logger, err)
	}
}

func (r *Runner) finishAttempt(ctx context.Context, logger *slog.Logger, runID string, status progress.Status, exitCode int, errText string) {
	if r.history == nil {
		return
	}
	// The run context may already be cancelled; the outcome is still worth keeping.
	if err := r.history.Finish(context.WithoutCancel(ctx), runID, string(status), exitCode, errText); err != nil {
		r.warnHistory(logger, err)
	}
}

func (r *Runner) warnHistory(logger *slog.Logger, err error) {
	logging.WarnWithContext(logger, "history write failed", "history_write_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run dockhand doctor to check the history database"),
		logging.String(logging.FieldImpact, "attempt missing from dockhand history"),
	)
}

func (r *Runner) warnTracker(logger *slog.Logger, err error) {
	logging.WarnWithContext(logger, "progress update failed", "progress_write_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check permissions on "+r.tracker.Path()),
		logging.String(logging.FieldImpact, "operation status in the progress file may be stale"),
	)
}
