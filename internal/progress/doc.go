// Package progress persists the record of docker command attempts in a flat
// JSON file (by default .docker_progress.json) keyed by operation id.
//
// # Storage
//
// The file is a single JSON object mapping operation ids such as
// "build:myapp:1.0" to a record holding the command, lifecycle status,
// attempt count, per-step and per-layer progress, and (after a failure) the
// trailing output lines. The format is human-readable and safe to edit by
// hand while no command is running.
//
// # Resumption
//
// A record whose status is started, in_progress, or failed is resumable: the
// next run of the same command is treated as a retry. The tracker only
// records this; the actual reuse of finished work comes from docker's own
// layer cache.
//
// # Concurrency
//
// Every mutation takes an exclusive flock on "<file>.lock", re-reads the file,
// applies the change, and replaces the file atomically, so several dockhand
// processes can share one progress file without losing updates.
package progress
