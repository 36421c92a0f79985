package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"splice/internal/deps"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// statusReport collects the sectioned lines printed by `splice status` and
// counts the problems it saw.
type statusReport struct {
	colorize bool
	lines    []string
	warnings int
	errors   int
}

func newStatusReport(w io.Writer) *statusReport {
	return &statusReport{colorize: shouldColorize(w)}
}

// section starts a titled block, separated from the previous one by a blank line.
func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	r.lines = append(r.lines, r.paint(statusInfo, header))
}

func (r *statusReport) add(label string, kind statusKind, detail string) {
	switch kind {
	case statusWarn:
		r.warnings++
	case statusError:
		r.errors++
	}
	r.lines = append(r.lines, r.paint(kind, formatStatusLine(label, kind, detail)))
}

// note appends an indented, uncolored line.
func (r *statusReport) note(text string) {
	r.lines = append(r.lines, statusIndent+text)
}

// tools renders a summary line followed by one line per tool. Missing
// required tools are errors; missing optional ones are warnings.
func (r *statusReport) tools(statuses []deps.Status) {
	if len(statuses) == 0 {
		return
	}
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	if len(missing) > 0 {
		r.add("Summary", statusError, fmt.Sprintf("%d required tool(s) missing", len(missing)))
	} else {
		r.add("Summary", statusOK, fmt.Sprintf("%d/%d available", countAvailable(statuses), len(statuses)))
	}
	for _, status := range statuses {
		switch {
		case status.Available:
			r.add(status.Name, statusOK, fmt.Sprintf("Ready (%s)", status.Path))
		case status.Optional:
			r.add(status.Name, statusWarn, status.Detail)
		default:
			r.add(status.Name, statusError, status.Detail)
		}
	}
	if len(missing) > 0 {
		r.note("Missing dependencies: " + strings.Join(missing, ", "))
	}
}

// String renders the report with a closing verdict line.
func (r *statusReport) String() string {
	lines := append([]string(nil), r.lines...)
	lines = append(lines, "")
	switch {
	case r.errors > 0:
		lines = append(lines, r.paint(statusError, fmt.Sprintf("%d problem(s), %d warning(s)", r.errors, r.warnings)))
	case r.warnings > 0:
		lines = append(lines, r.paint(statusWarn, fmt.Sprintf("Ready with %d warning(s)", r.warnings)))
	default:
		lines = append(lines, r.paint(statusOK, "Ready"))
	}
	return strings.Join(lines, "\n")
}

func (r *statusReport) paint(kind statusKind, line string) string {
	if !r.colorize {
		return line
	}
	return statusStyles[kind].color + line + ansiReset
}

func formatStatusLine(label string, kind statusKind, detail string) string {
	tag := "[" + statusStyles[kind].label + "]"
	if detail != "" {
		tag += " " + detail
	}
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", tag)
}

func countAvailable(statuses []deps.Status) int {
	n := 0
	for _, status := range statuses {
		if status.Available {
			n++
		}
	}
	return n
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
