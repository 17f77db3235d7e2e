package runner

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"
)

func TestCommandExecutorScansBothStreams(t *testing.T) {
	var lines []string
	err := commandExecutor{}.Run(context.Background(), "sh",
		[]string{"-c", "echo out; echo err 1>&2; exit 2"}, nil,
		func(line string) { lines = append(lines, line) })
	if ExitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d (%v)", ExitCode(err), err)
	}
	sort.Strings(lines)
	if len(lines) != 2 || lines[0] != "err" || lines[1] != "out" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestCommandExecutorAppendsEnv(t *testing.T) {
	var lines []string
	err := commandExecutor{}.Run(context.Background(), "sh",
		[]string{"-c", "echo $DOCKHAND_TEST_VALUE"}, []string{"DOCKHAND_TEST_VALUE=present"},
		func(line string) { lines = append(lines, line) })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "present" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestCommandExecutorMissingBinary(t *testing.T) {
	err := commandExecutor{}.Run(context.Background(), "dockhand-no-such-binary", nil, nil, func(string) {})
	if err == nil {
		t.Fatal("expected start error")
	}
	if ExitCode(err) != -1 {
		t.Fatalf("expected unknown exit code, got %d", ExitCode(err))
	}
}

func TestCommandExecutorCancelKillsBackgroundChildren(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var lines []string
	started := time.Now()
	err := commandExecutor{}.Run(ctx, "sh",
		[]string{"-c", "echo start; sleep 30 & wait"}, nil,
		func(line string) { lines = append(lines, line) })
	elapsed := time.Since(started)

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if elapsed > 10*time.Second {
		t.Fatalf("child process outlived the deadline: returned after %s", elapsed)
	}
	if len(lines) != 1 || lines[0] != "start" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestKillProcessGroupReportsFinishedGroup(t *testing.T) {
	// Process ids are bounded well below this, so the group cannot exist.
	if err := killProcessGroup(1 << 30); !errors.Is(err, os.ErrProcessDone) {
		t.Fatalf("expected ErrProcessDone for missing process group, got %v", err)
	}
}

func TestTailBufferKeepsNewestLines(t *testing.T) {
	buf := newTailBuffer(3)
	for _, line := range []string{"a", "", "b", "  ", "c", "d\r"} {
		buf.Add(line)
	}
	got := buf.Lines()
	if len(got) != 3 || got[0] != "b" || got[1] != "c" || got[2] != "d" {
		t.Fatalf("unexpected tail %v", got)
	}

	short := newTailBuffer(5)
	short.Add("only")
	if got := short.Lines(); len(got) != 1 || got[0] != "only" {
		t.Fatalf("unexpected short tail %v", got)
	}
}
