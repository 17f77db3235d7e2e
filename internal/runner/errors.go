package runner

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError reports a docker command that did not exit cleanly.
type CommandError struct {
	OperationID string
	ExitCode    int
	Tail        []string
	Err         error
}

func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("docker operation %s failed", e.OperationID)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Output returns the trailing output lines joined by newlines.
func (e *CommandError) Output() string {
	if e == nil {
		return ""
	}
	return strings.Join(e.Tail, "\n")
}

// ExitCode extracts the process exit status from err: 0 for nil, the status
// carried by an *exec.ExitError, and -1 when it cannot be determined.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
