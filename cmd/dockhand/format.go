package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"dockhand/internal/progress"
)

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// formatProgress summarises the most informative progress signal of op.
func formatProgress(op progress.Operation) string {
	p := op.Progress
	switch {
	case p.TotalSteps > 0:
		return fmt.Sprintf("step %d/%d", p.CurrentStep, p.TotalSteps)
	case len(p.Layers) > 0:
		done, total := op.LayerCounts()
		return fmt.Sprintf("%d/%d layers", done, total)
	case p.Digest != "":
		return "digest " + shortDigest(p.Digest)
	default:
		return "-"
	}
}

func formatPercent(op progress.Operation) string {
	percent := op.Percent()
	if percent < 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", percent)
}

func shortDigest(digest string) string {
	const keep = len("sha256:") + 12
	if len(digest) <= keep {
		return digest
	}
	return digest[:keep]
}
