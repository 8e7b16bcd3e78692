// Package ui renders flakeorder command output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Out is where output is written.
var Out io.Writer = os.Stdout

var (
	colorMuted   = lipgloss.Color("245")
	colorAccent  = lipgloss.Color("39")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("214")
	colorError   = lipgloss.Color("196")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorMuted)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	stepStyle    = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// PrintHeader prints a section header
func PrintHeader(title string) {
	fmt.Fprintf(Out, "\n%s\n\n", headerStyle.Render(title))
}

// PrintStep prints a step in progress
func PrintStep(message string) {
	fmt.Fprintf(Out, "%s %s\n", stepStyle.Render("▶"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(Out, "%s %s\n", successStyle.Render("✓"), message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(Out, "%s %s\n", errorStyle.Render("✗"), message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(Out, "%s %s\n", warningStyle.Render("⚠"), message)
}

// PrintInfo prints an informational message
func PrintInfo(message string) {
	fmt.Fprintf(Out, "  %s\n", message)
}

// PrintMuted prints a de-emphasized line.
func PrintMuted(message string) {
	fmt.Fprintf(Out, "  %s\n", mutedStyle.Render(message))
}

// PrintBox prints lines inside a rounded border.
func PrintBox(lines ...string) {
	fmt.Fprintln(Out, boxStyle.Render(strings.Join(lines, "\n")))
}

// PrintKeyValues prints aligned key: value lines.
func PrintKeyValues(pairs [][2]string) {
	width := 0
	for _, kv := range pairs {
		if len(kv[0]) > width {
			width = len(kv[0])
		}
	}
	for _, kv := range pairs {
		fmt.Fprintf(Out, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-*s", width+1, kv[0]+":")), kv[1])
	}
}

// PrintSchedule prints one numbered schedule, eliding long ones.
func PrintSchedule(index int, tests []string, limit int) {
	fmt.Fprintf(Out, "%s %s\n", boldStyle.Render(fmt.Sprintf("order-%d", index)),
		mutedStyle.Render(fmt.Sprintf("(%d tests)", len(tests))))
	shown := tests
	if limit > 0 && len(tests) > limit {
		shown = tests[:limit]
	}
	for _, t := range shown {
		fmt.Fprintf(Out, "    %s\n", t)
	}
	if len(shown) < len(tests) {
		PrintMuted(fmt.Sprintf("  ... and %d more", len(tests)-len(shown)))
	}
}

// PrintTable prints a simple table
func PrintTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header strings.Builder
	for i, h := range headers {
		header.WriteString(fmt.Sprintf("%-*s  ", widths[i], h))
	}
	fmt.Fprintln(Out, boldStyle.Render(strings.TrimRight(header.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w) + "  ")
	}
	fmt.Fprintln(Out, mutedStyle.Render(strings.TrimRight(sep.String(), " ")))

	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			if i < len(widths) {
				line.WriteString(fmt.Sprintf("%-*s  ", widths[i], cell))
			}
		}
		fmt.Fprintln(Out, strings.TrimRight(line.String(), " "))
	}
}

// StatusText colors a run status.
func StatusText(status string) string {
	switch status {
	case "COMPLETE":
		return successStyle.Render(status)
	case "INCOMPLETE":
		return warningStyle.Render(status)
	case "FAILED":
		return errorStyle.Render(status)
	default:
		return status
	}
}

// FormatDuration formats a duration for display
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
