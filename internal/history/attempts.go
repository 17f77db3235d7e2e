package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Attempt is one row of the ledger.
type Attempt struct {
	RunID       string     `json:"run_id" yaml:"run_id"`
	OperationID string     `json:"operation_id" yaml:"operation_id"`
	Kind        string     `json:"kind" yaml:"kind"`
	Command     []string   `json:"command" yaml:"command"`
	Status      string     `json:"status" yaml:"status"`
	Resumed     bool       `json:"resumed" yaml:"resumed"`
	ExitCode    *int       `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Duration returns the elapsed time of a finished attempt, or zero.
func (a Attempt) Duration() time.Duration {
	if a.FinishedAt == nil {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

// Record inserts a row for an attempt that has just started.
func (s *Store) Record(ctx context.Context, attempt Attempt) error {
	if strings.TrimSpace(attempt.RunID) == "" {
		return errors.New("run id required")
	}
	command, err := json.Marshal(attempt.Command)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	started := attempt.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err = s.exec(ctx,
		`INSERT INTO attempts (run_id, operation_id, kind, command, status, resumed, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attempt.RunID,
		attempt.OperationID,
		attempt.Kind,
		string(command),
		attempt.Status,
		boolToInt(attempt.Resumed),
		formatTime(started),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Finish records the outcome of an attempt.
func (s *Store) Finish(ctx context.Context, runID, status string, exitCode int, errText string) error {
	res, err := s.exec(ctx,
		`UPDATE attempts SET status = ?, exit_code = ?, error = ?, finished_at = ? WHERE run_id = ?`,
		status,
		exitCode,
		nullableString(errText),
		formatTime(time.Now()),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish attempt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish attempt: run %q not found", runID)
	}
	return nil
}

// List returns attempts newest first. An empty operationID lists every
// operation; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, operationID string, limit int) ([]Attempt, error) {
	query := `SELECT run_id, operation_id, kind, command, status, resumed, exit_code, error, started_at, finished_at
              FROM attempts`
	var args []any
	if id := strings.TrimSpace(operationID); id != "" {
		query += " WHERE operation_id = ?"
		args = append(args, id)
	}
	query += " ORDER BY started_at DESC, run_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// Prune deletes finished attempts that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx,
		`DELETE FROM attempts WHERE finished_at IS NOT NULL AND started_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner) (Attempt, error) {
	var (
		attempt    Attempt
		command    string
		resumed    int
		exitCode   sql.NullInt64
		errText    sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(
		&attempt.RunID,
		&attempt.OperationID,
		&attempt.Kind,
		&command,
		&attempt.Status,
		&resumed,
		&exitCode,
		&errText,
		&startedAt,
		&finishedAt,
	); err != nil {
		return Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	if err := json.Unmarshal([]byte(command), &attempt.Command); err != nil {
		return Attempt{}, fmt.Errorf("decode command for run %s: %w", attempt.RunID, err)
	}
	attempt.Resumed = resumed != 0
	if exitCode.Valid {
		code := int(exitCode.Int64)
		attempt.ExitCode = &code
	}
	attempt.Error = errText.String
	attempt.StartedAt = parseTime(startedAt)
	if finishedAt.Valid && finishedAt.String != "" {
		t := parseTime(finishedAt.String)
		attempt.FinishedAt = &t
	}
	return attempt, nil
}

// timeLayout is fixed width so that text comparison in ORDER BY and Prune
// matches chronological order. RFC3339Nano trims trailing zeros and does not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts any RFC 3339 timestamp, including the fixed-width form.
func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
