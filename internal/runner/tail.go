package runner

import "strings"

// tailBuffer keeps the most recent non-blank output lines.
type tailBuffer struct {
	lines []string
	next  int
	full  bool
}

func newTailBuffer(size int) *tailBuffer {
	if size <= 0 {
		size = 10
	}
	return &tailBuffer{lines: make([]string, size)}
}

func (b *tailBuffer) Add(line string) {
	line = strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	b.lines[b.next] = line
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.full = true
	}
}

// Lines returns the buffered lines oldest first.
func (b *tailBuffer) Lines() []string {
	if !b.full {
		return append([]string(nil), b.lines[:b.next]...)
	}
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.next:]...)
	out = append(out, b.lines[:b.next]...)
	return out
}
