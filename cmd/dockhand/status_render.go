package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dockhand/internal/progress"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var titleCaser = cases.Title(language.English)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	return paint(statusKindColor(kind), base, colorize)
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) color.Attribute {
	switch kind {
	case statusOK:
		return color.FgGreen
	case statusWarn:
		return color.FgYellow
	case statusError:
		return color.FgRed
	default:
		return color.FgBlue
	}
}

// operationStatusLabel renders "in_progress" as "In Progress".
func operationStatusLabel(status progress.Status) string {
	return titleCaser.String(strings.ReplaceAll(string(status), "_", " "))
}

func operationStatusKind(status progress.Status) statusKind {
	switch status {
	case progress.StatusCompleted:
		return statusOK
	case progress.StatusFailed:
		return statusError
	case progress.StatusStarted, progress.StatusInProgress:
		return statusWarn
	default:
		return statusInfo
	}
}

func renderOperationStatus(status progress.Status, colorize bool) string {
	return paint(statusKindColor(operationStatusKind(status)), operationStatusLabel(status), colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	return []string{paint(color.FgBlue, line, colorize), paint(color.FgBlue, rule, colorize)}
}

func paint(attr color.Attribute, text string, colorize bool) string {
	c := color.New(attr)
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
