// Package history keeps a SQLite ledger of every docker command attempt.
//
// The progress file only holds the latest state per operation; the ledger
// answers "how many times did this push fail last week and why". Each row is
// one attempt keyed by its run uuid and linked to the operation id the
// progress tracker uses.
//
// Schema changes bump schemaVersion in schema.go; users delete history.db to
// adopt a new schema.
package history
