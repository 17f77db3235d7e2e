package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"dockhand/internal/config"
	"dockhand/internal/deps"
	"dockhand/internal/history"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckProgressFile verifies the progress file parses as JSON and that its
// directory is writable. A missing file passes: it is created on first use.
func CheckProgressFile(path string) Result {
	const name = "Progress file"

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		dir := filepath.Dir(path)
		if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: directory not writable: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if len(data) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (empty)", path)}
	}
	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: corrupt: %v)", path, err)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d operations)", path, len(records))}
}

// CheckHistoryDB opens the history ledger, which also verifies its schema version.
func CheckHistoryDB(ctx context.Context, path string) Result {
	const name = "History database"

	store, err := history.Open(ctx, path)
	if err != nil {
		if errors.Is(err, history.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: schema mismatch; delete the file to reset)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema ok)", path)}
}

// CheckSystemDeps reports on the docker CLI and daemon dockhand drives.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckDocker(ctx, cfg.DockerBinary())
}
