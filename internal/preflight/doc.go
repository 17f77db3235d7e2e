// Package preflight provides readiness checks for the docker CLI and the
// filesystem paths dockhand writes to.
//
// "dockhand doctor" runs RunAll and prints one row per check. Each check is
// independent and reports its own detail string, so a failing history
// database never hides a missing docker binary.
package preflight
