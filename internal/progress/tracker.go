package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"dockhand/internal/dockercmd"
	"dockhand/internal/fileutil"
	"dockhand/internal/logging"
)

// ErrNotFound is returned when an operation id has no record.
var ErrNotFound = errors.New("operation not found")

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source (primarily for tests).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker reads and writes the progress file.
type Tracker struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
	mu     sync.Mutex
	now    func() time.Time
}

// Open returns a tracker bound to path. The file is created lazily on the
// first write. An empty path yields a tracker whose operations are no-ops.
func Open(path string, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		path:   strings.TrimSpace(path),
		logger: logging.NewComponentLogger(logger, "progress"),
		now:    time.Now,
	}
	if t.path != "" {
		t.lock = flock.New(t.path + ".lock")
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Path returns the progress file location.
func (t *Tracker) Path() string {
	return t.path
}

// IsResumable returns the existing record when its status marks an
// unfinished or failed attempt.
func (t *Tracker) IsResumable(id string) (Operation, bool) {
	op, err := t.Get(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.WarnWithContext(t.logger, "progress file unreadable; treating run as fresh", "progress_read_failed",
				logging.String(logging.FieldOperationID, id),
				logging.Error(err),
				logging.String(logging.FieldImpact, "previous attempt is not detected as resumable"),
			)
		}
		return Operation{}, false
	}
	return op, op.Resumable()
}

// StartOperation records a new attempt of cmd under id. An existing record is
// reused: status returns to started, the error is cleared, and the attempt
// count increases. Progress from an unfinished attempt is kept until new
// output replaces it; progress from a completed attempt is reset.
func (t *Tracker) StartOperation(id string, cmd dockercmd.Command, runID string) (Operation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Operation{}, errors.New("operation id cannot be empty")
	}
	var result Operation
	err := t.update(func(ops map[string]Operation) (bool, error) {
		now := t.now().UTC()
		op, exists := ops[id]
		if !exists {
			op = Operation{ID: id, StartedAt: now}
		} else if op.Status == StatusCompleted {
			op.Progress = Progress{}
			op.StartedAt = now
		}
		op.Kind = string(cmd.Kind)
		op.Image = cmd.Image
		op.Command = append([]string(nil), cmd.Args...)
		op.Status = StatusStarted
		op.Attempts++
		op.UpdatedAt = now
		op.CompletedAt = nil
		op.Error = ""
		op.ExitCode = 0
		op.LastRunID = runID
		ops[id] = op
		result = op.clone()
		return true, nil
	})
	if err != nil {
		return Operation{}, err
	}
	return result, nil
}

// Apply folds a parsed output event into the record and marks it in progress.
// The file is only rewritten when the event changes the record. Unknown ids
// are ignored.
func (t *Tracker) Apply(id string, event dockercmd.Event) error {
	return t.mutate(id, func(op *Operation) bool {
		return op.ApplyEvent(event)
	})
}

// CompleteOperation marks id completed. Unknown ids are ignored.
func (t *Tracker) CompleteOperation(id string, exitCode int) error {
	return t.mutate(id, func(op *Operation) bool {
		now := t.now().UTC()
		op.Status = StatusCompleted
		op.CompletedAt = &now
		op.ExitCode = exitCode
		op.Error = ""
		return true
	})
}

// FailOperation marks id failed and stores the trailing output lines as the
// error text. Unknown ids are ignored.
func (t *Tracker) FailOperation(id string, exitCode int, tail []string) error {
	return t.mutate(id, func(op *Operation) bool {
		op.Status = StatusFailed
		op.ExitCode = exitCode
		op.Error = strings.Join(tail, "\n")
		return true
	})
}

// Get returns the record for id.
func (t *Tracker) Get(id string) (Operation, error) {
	id = strings.TrimSpace(id)
	if id == "" || t.path == "" {
		return Operation{}, ErrNotFound
	}
	ops, err := t.read()
	if err != nil {
		return Operation{}, err
	}
	op, ok := ops[id]
	if !ok {
		return Operation{}, ErrNotFound
	}
	return op.clone(), nil
}

// List returns all records, most recently updated first.
func (t *Tracker) List() ([]Operation, error) {
	if t.path == "" {
		return nil, nil
	}
	ops, err := t.read()
	if err != nil {
		return nil, err
	}
	list := make([]Operation, 0, len(ops))
	for _, op := range ops {
		list = append(list, op.clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

// Remove deletes the record for id.
func (t *Tracker) Remove(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("operation id cannot be empty")
	}
	if t.path == "" {
		return nil
	}
	return t.update(func(ops map[string]Operation) (bool, error) {
		if _, ok := ops[id]; !ok {
			return false, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		delete(ops, id)
		return true, nil
	})
}

// Clear removes records whose status is in statuses, or every record when
// statuses is empty. It returns the number removed.
func (t *Tracker) Clear(statuses ...Status) (int, error) {
	if t.path == "" {
		return 0, nil
	}
	match := make(map[Status]struct{}, len(statuses))
	for _, s := range statuses {
		match[s] = struct{}{}
	}
	removed := 0
	err := t.update(func(ops map[string]Operation) (bool, error) {
		for id, op := range ops {
			if len(match) > 0 {
				if _, ok := match[op.Status]; !ok {
					continue
				}
			}
			delete(ops, id)
			removed++
		}
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// mutate applies fn to the record for id and saves it when fn reports a change.
func (t *Tracker) mutate(id string, fn func(*Operation) bool) error {
	id = strings.TrimSpace(id)
	if id == "" || t.path == "" {
		return nil
	}
	return t.update(func(ops map[string]Operation) (bool, error) {
		op, ok := ops[id]
		if !ok {
			return false, nil
		}
		if !fn(&op) {
			return false, nil
		}
		op.UpdatedAt = t.now().UTC()
		ops[id] = op
		return true, nil
	})
}

// update runs fn against the current file contents under the exclusive lock
// and persists the map when fn reports a change.
func (t *Tracker) update(fn func(map[string]Operation) (bool, error)) error {
	if t.path == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}
	if err := t.lock.Lock(); err != nil {
		return fmt.Errorf("lock progress file: %w", err)
	}
	defer func() {
		_ = t.lock.Unlock()
	}()

	ops, err := t.load()
	if err != nil {
		var corrupt *corruptError
		if !errors.As(err, &corrupt) {
			return err
		}
		ops, err = t.quarantine(err)
		if err != nil {
			return err
		}
	}

	changed, err := fn(ops)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return t.save(ops)
}

func (t *Tracker) read() (map[string]Operation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := os.Stat(filepath.Dir(t.path)); errors.Is(err, fs.ErrNotExist) {
		return map[string]Operation{}, nil
	}
	if err := t.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock progress file: %w", err)
	}
	defer func() {
		_ = t.lock.Unlock()
	}()
	return t.load()
}

type corruptError struct {
	err error
}

func (e *corruptError) Error() string { return "parse progress file: " + e.err.Error() }

func (e *corruptError) Unwrap() error { return e.err }

// load reads the progress file. A missing or empty file is an empty map.
func (t *Tracker) load() (map[string]Operation, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Operation{}, nil
		}
		return nil, fmt.Errorf("read progress file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]Operation{}, nil
	}

	var ops map[string]Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, &corruptError{err: err}
	}
	if ops == nil {
		ops = map[string]Operation{}
	}
	for key, op := range ops {
		if strings.TrimSpace(key) == "" {
			delete(ops, key)
			continue
		}
		// The map key is authoritative for hand-edited files.
		op.ID = key
		ops[key] = op
	}
	return ops, nil
}

// quarantine moves an unparsable progress file aside so tracking can resume
// with an empty map.
func (t *Tracker) quarantine(cause error) (map[string]Operation, error) {
	aside := fmt.Sprintf("%s.corrupt-%d", t.path, t.now().Unix())
	if err := os.Rename(t.path, aside); err != nil {
		return nil, fmt.Errorf("%w (move aside failed: %v)", cause, err)
	}
	logging.WarnWithContext(t.logger, "progress file unreadable; moved aside", "progress_file_corrupt",
		logging.String("path", t.path),
		logging.String("moved_to", aside),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "inspect the moved file if earlier records matter"),
		logging.String(logging.FieldImpact, "earlier attempts are no longer detected as resumable"),
	)
	return map[string]Operation{}, nil
}

// save writes the progress file atomically.
func (t *Tracker) save(ops map[string]Operation) error {
	data, err := json.MarshalIndent(ops, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(t.path, data, 0o644); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func layerDone(state string) bool {
	switch state {
	case dockercmd.LayerPushed, dockercmd.LayerExists, dockercmd.LayerMounted, dockercmd.LayerPulled:
		return true
	default:
		return false
	}
}
