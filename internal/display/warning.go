package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/goodread/internal/parser"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Lines      []string // Affected document lines (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("\x1b[33m")
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Lines) > 0 {
		b.WriteString("    ")
		if len(w.Lines) == 1 {
			b.WriteString("Affected line:\n")
		} else {
			b.WriteString("Affected lines:\n")
		}

		for _, line := range w.Lines {
			b.WriteString("      - ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	b.WriteString("\x1b[0m")

	fmt.Fprint(out, b.String())
}

// WarnLintIssues creates a warning for code blocks of path that readers see
// but the verifier does not run, or the other way round.
func WarnLintIssues(path string, issues []parser.Issue) Warning {
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}
	return Warning{
		Title:      fmt.Sprintf("Code blocks in %s may not be tested", path),
		Message:    "The rendered document and the executed examples differ",
		Lines:      lines,
		Suggestion: "Start every fence at column 0 with ``` and close it before the next one",
	}
}
