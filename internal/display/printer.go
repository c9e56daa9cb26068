package display

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/harrison/goodread/internal/executor"
	"github.com/harrison/goodread/internal/models"
)

// Category groups report events for blank-line separation.
// Passed, failed and skipped lines share CategoryTest.
type Category string

const (
	CategoryNone      Category = ""
	CategoryHeading   Category = "heading"
	CategoryTest      Category = "test"
	CategorySummary   Category = "summary"
	CategorySeparator Category = "separator"
	CategoryBlank     Category = "blank"
	CategoryScope     Category = "scope"
)

const (
	iconSuccess = "✔️"
	iconFailure = "❌"
	iconSkipped = "➖"
)

// CategoryOf returns the display category of an event kind.
func CategoryOf(kind models.EventKind) Category {
	switch kind {
	case models.EventHeading:
		return CategoryHeading
	case models.EventPassed, models.EventFailed, models.EventSkipped:
		return CategoryTest
	case models.EventSummary:
		return CategorySummary
	case models.EventSeparator:
		return CategorySeparator
	case models.EventBlank:
		return CategoryBlank
	case models.EventScope:
		return CategoryScope
	default:
		return CategoryNone
	}
}

// palette holds the colors used by the report. When disabled every color
// renders plain text.
type palette struct {
	bold     *color.Color
	success  *color.Color
	fail     *color.Color
	skip     *color.Color
	boldOK   *color.Color
	boldFail *color.Color
}

func newPalette(colorized bool) *palette {
	p := &palette{
		bold:     color.New(color.Bold),
		success:  color.New(color.FgGreen),
		fail:     color.New(color.FgRed),
		skip:     color.New(color.FgYellow),
		boldOK:   color.New(color.Bold, color.FgGreen),
		boldFail: color.New(color.Bold, color.FgRed),
	}
	for _, c := range []*color.Color{p.bold, p.success, p.fail, p.skip, p.boldOK, p.boldFail} {
		if colorized {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Render turns one event into printable text given the category of the
// previously printed event. It returns the text to write (possibly empty)
// and the category to remember for the next call.
//
// Non-empty text gets one leading blank line whenever the category differs
// from prev. Blank events print nothing and leave the category unchanged.
func Render(prev Category, e models.Event, colorized bool) (string, Category) {
	if e.Kind == models.EventBlank {
		return "", prev
	}

	category := CategoryOf(e.Kind)
	body := renderBody(e, newPalette(colorized))
	if body == "" {
		return "", category
	}
	if category != prev {
		body = "\n" + body
	}
	return body + "\n", category
}

func renderBody(e models.Event, p *palette) string {
	switch e.Kind {
	case models.EventSeparator:
		return strings.Repeat(iconSkipped, 3)
	case models.EventHeading:
		return " " + strings.Repeat("#", e.Level) + "  " + p.bold.Sprint(e.Text)
	case models.EventPassed:
		return p.success.Sprint(" "+iconSuccess+"  ") + e.Text
	case models.EventFailed:
		return p.fail.Sprint(" "+iconFailure+"  ") + e.Text + p.boldFail.Sprint("\nError: "+failureMessage(e.Err))
	case models.EventSkipped:
		return p.skip.Sprint(" "+iconSkipped+"  ") + e.Text
	case models.EventScope:
		var sb strings.Builder
		sb.WriteString("---\n\n")
		sb.WriteString("Scope (current execution scope):\n")
		sb.WriteString("[" + strings.Join(e.Keys, ", ") + "]\n")
		sb.WriteString("\n---\n")
		return sb.String()
	case models.EventSummary:
		total := e.Passed + e.Failed + e.Skipped
		line := fmt.Sprintf("%s: %d/%d\n", e.Text, e.Passed, total)
		if e.Failed+e.Skipped > 0 {
			return p.boldFail.Sprint(" "+iconFailure+"  ") + p.boldFail.Sprint(line)
		}
		return p.boldOK.Sprint(" "+iconSuccess+"  ") + p.boldOK.Sprint(line)
	default:
		return ""
	}
}

// failureMessage prefers the user-facing message of a block failure.
func failureMessage(err error) string {
	if err == nil {
		return ""
	}
	var failure *executor.Failure
	if errors.As(err, &failure) {
		return failure.Message
	}
	return err.Error()
}

// Printer writes report events to a writer, remembering the category of
// the last event so runs of the same category are grouped.
// It implements models.EventSink and is safe for concurrent use.
type Printer struct {
	writer    io.Writer
	colorized bool
	last      Category
	mu        sync.Mutex
}

// NewPrinter creates a Printer. colorized enables ANSI colors.
func NewPrinter(w io.Writer, colorized bool) *Printer {
	return &Printer{
		writer:    w,
		colorized: colorized,
	}
}

// Emit renders e and writes it.
func (p *Printer) Emit(e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text, category := Render(p.last, e, p.colorized)
	p.last = category
	if text != "" && p.writer != nil {
		io.WriteString(p.writer, text)
	}
}
