package preflight

import (
	"context"

	"dockhand/internal/config"
	"dockhand/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The history check only runs when the ledger is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckProgressFile(cfg.Paths.ProgressFile))

	if cfg.Tracker.HistoryEnabled {
		results = append(results, CheckHistoryDB(ctx, cfg.Paths.HistoryDB))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}

	return results
}

// Failed reports whether any non-passing result is present.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

func fromStatus(status deps.Status) Result {
	return Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
}
