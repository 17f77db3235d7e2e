package testsupport

import (
	"context"
	"testing"

	"dockhand/internal/config"
	"dockhand/internal/dockercmd"
	"dockhand/internal/history"
	"dockhand/internal/logging"
	"dockhand/internal/progress"
)

// MustOpenHistory opens the history ledger for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewTracker returns a tracker bound to the config's progress file.
func NewTracker(t testing.TB, cfg *config.Config) *progress.Tracker {
	t.Helper()
	return progress.Open(cfg.Paths.ProgressFile, logging.NewNop())
}

// StartOperation seeds a record for args and returns its id.
func StartOperation(t testing.TB, tracker *progress.Tracker, args ...string) string {
	t.Helper()

	cmd := dockercmd.Parse(args)
	id := dockercmd.OperationID(cmd)
	if _, err := tracker.StartOperation(id, cmd, "seed"); err != nil {
		t.Fatalf("StartOperation: %v", err)
	}
	return id
}
