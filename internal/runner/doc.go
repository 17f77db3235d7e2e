// Package runner executes docker commands while recording their progress.
//
// A Run derives the operation id from the argv, notes whether an earlier
// attempt is resumable, starts a new attempt in the progress file, and streams
// docker output through the line parser. Parsed steps and layer states update
// the tracker as they arrive. On exit the operation is marked completed, or
// failed with the trailing output lines as its error text. When a history store
// is configured every attempt is also written to the ledger; ledger failures
// are logged and never fail the run.
//
// Resumption relies on docker's layer cache: re-running a failed push or build
// simply re-executes the command, and already uploaded layers report
// "Layer already exists".
package runner
