package history_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"dockhand/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordFinishAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute)
	if err := store.Record(ctx, history.Attempt{
		RunID:       "run-1",
		OperationID: "push:example/app:1.0",
		Kind:        "push",
		Command:     []string{"push", "example/app:1.0"},
		Status:      "started",
		StartedAt:   started,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Finish(ctx, "run-1", "failed", 1, "denied: requested access"); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	if err := store.Record(ctx, history.Attempt{
		RunID:       "run-2",
		OperationID: "push:example/app:1.0",
		Kind:        "push",
		Command:     []string{"push", "example/app:1.0"},
		Status:      "started",
		Resumed:     true,
		StartedAt:   started.Add(30 * time.Second),
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	attempts, err := store.List(ctx, "push:example/app:1.0", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	latest, first := attempts[0], attempts[1]
	if latest.RunID != "run-2" || !latest.Resumed || latest.FinishedAt != nil || latest.ExitCode != nil {
		t.Fatalf("unexpected latest attempt: %+v", latest)
	}
	if first.Status != "failed" || first.ExitCode == nil || *first.ExitCode != 1 {
		t.Fatalf("unexpected first attempt: %+v", first)
	}
	if first.Error != "denied: requested access" {
		t.Fatalf("unexpected error text %q", first.Error)
	}
	if len(first.Command) != 2 || first.Command[1] != "example/app:1.0" {
		t.Fatalf("unexpected command %v", first.Command)
	}
	if first.FinishedAt == nil || first.Duration() <= 0 {
		t.Fatalf("expected finished attempt with duration, got %+v", first)
	}

	limited, err := store.List(ctx, "", 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-2" {
		t.Fatalf("expected newest attempt only, got %+v", limited)
	}
}

func TestListFiltersByOperation(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"build:a", "build:b", "build:a"} {
		attempt := history.Attempt{
			RunID:       fmt.Sprintf("run-%d", i),
			OperationID: id,
			Kind:        "build",
			Status:      "started",
			StartedAt:   base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Record(ctx, attempt); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	attempts, err := store.List(ctx, "build:a", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts for build:a, got %d", len(attempts))
	}
	for _, attempt := range attempts {
		if attempt.OperationID != "build:a" {
			t.Fatalf("unexpected operation %q", attempt.OperationID)
		}
	}
}

func TestListOrdersSubsecondStarts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	whole := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, attempt := range []history.Attempt{
		{RunID: "older", OperationID: "push:app", Kind: "push", Status: "failed", StartedAt: whole},
		{RunID: "newer", OperationID: "push:app", Kind: "push", Status: "started", StartedAt: whole.Add(500 * time.Millisecond)},
	} {
		if err := store.Record(ctx, attempt); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := store.Finish(ctx, "older", "failed", 1, "boom"); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	attempts, err := store.List(ctx, "push:app", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(attempts) != 2 || attempts[0].RunID != "newer" || attempts[1].RunID != "older" {
		t.Fatalf("expected newest first, got %+v", attempts)
	}
	if !attempts[0].StartedAt.Equal(whole.Add(500 * time.Millisecond)) {
		t.Fatalf("start time not preserved: %s", attempts[0].StartedAt)
	}

	// A cutoff inside the same second must still remove the whole-second row.
	removed, err := store.Prune(ctx, whole.Add(250*time.Millisecond))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned attempt, got %d", removed)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openStore(t)
	if err := store.Finish(context.Background(), "missing", "completed", 0, ""); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), history.Attempt{OperationID: "build:a"}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestPruneRemovesOldFinishedAttempts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	if err := store.Record(ctx, history.Attempt{RunID: "old-done", OperationID: "build:a", Status: "started", StartedAt: old}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Finish(ctx, "old-done", "completed", 0, ""); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := store.Record(ctx, history.Attempt{RunID: "old-open", OperationID: "build:a", Status: "started", StartedAt: old}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, history.Attempt{RunID: "recent", OperationID: "build:a", Status: "started"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Finish(ctx, "recent", "completed", 0, ""); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned attempt, got %d", removed)
	}
	attempts, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 remaining attempts, got %d", len(attempts))
	}
}

func TestReopenKeepsAttempts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Record(ctx, history.Attempt{RunID: "r", OperationID: "pull:alpine", Status: "started"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	attempts, err := reopened.List(ctx, "pull:alpine", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt after reopen, got %d", len(attempts))
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := history.Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(ctx, path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
