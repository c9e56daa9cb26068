// Package validation runs the code blocks of a parsed document and
// classifies every block line as passed, failed or skipped.
//
// All blocks of one Validate call share a single executor.Scope, so later
// examples can use names bound by earlier ones. Report events are emitted to
// a models.EventSink in document order; the sink decides how to render them.
package validation

import (
	"fmt"
	"strings"

	"github.com/harrison/goodread/internal/executor"
	"github.com/harrison/goodread/internal/models"
)

// Runner executes one code block against a scope.
// *executor.BlockExecutor implements it.
type Runner interface {
	Run(source string, scope *executor.Scope) executor.Outcome
}

// HaltError is returned by Validate in halt-on-first-failure mode.
// It carries the failing line and the names bound at that point. Path is
// filled in by callers that know which document was validated.
type HaltError struct {
	Path      string
	Line      string
	Failure   *executor.Failure
	ScopeKeys []string
}

// Error implements the error interface for HaltError.
func (e *HaltError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: halted at %q: %s", e.Path, e.Line, e.Failure.Message)
	}
	return fmt.Sprintf("halted at %q: %s", e.Line, e.Failure.Message)
}

// Unwrap returns the block failure.
func (e *HaltError) Unwrap() error {
	return e.Failure
}

// Validator walks document elements and drives block execution.
type Validator struct {
	runner Runner
	sink   models.EventSink
}

// NewValidator creates a Validator. A nil sink discards events.
func NewValidator(runner Runner, sink models.EventSink) *Validator {
	if sink == nil {
		sink = models.EventSinkFunc(func(models.Event) {})
	}
	return &Validator{
		runner: runner,
		sink:   sink,
	}
}

// run holds the state of one Validate call.
type run struct {
	scope       *executor.Scope
	report      models.Report
	title       string
	titleSeen   bool
	lastFailure *executor.Failure
}

// Validate executes every code block in elements and returns the counts.
//
// For a block failing at line k, lines before k are passed, line k failed
// and lines after k skipped. With haltOnFirstFailure set, the first failed
// line emits a scope snapshot and Validate returns a *HaltError at once;
// no summary is emitted and later elements are never run.
func (v *Validator) Validate(elements []models.Element, haltOnFirstFailure bool) (models.Report, error) {
	r := &run{scope: executor.NewScope()}

	for _, element := range elements {
		switch el := element.(type) {
		case models.Heading:
			v.heading(r, el)
		case models.CodeBlock:
			if err := v.codeBlock(r, el, haltOnFirstFailure); err != nil {
				r.report.Valid = false
				return r.report, err
			}
		default:
			panic(fmt.Sprintf("validation: unknown element type %T", element))
		}
	}

	if r.titleSeen {
		v.sink.Emit(models.Event{
			Kind:    models.EventSummary,
			Text:    r.title,
			Passed:  r.report.Passed,
			Failed:  r.report.Failed,
			Skipped: r.report.Skipped,
		})
	}

	r.report.Valid = r.lastFailure == nil
	return r.report, nil
}

func (v *Validator) heading(r *run, h models.Heading) {
	v.sink.Emit(models.Event{Kind: models.EventHeading, Text: h.Text, Level: h.Level})
	if !r.titleSeen {
		r.title = h.Text
		r.titleSeen = true
		v.sink.Emit(models.Event{Kind: models.EventSeparator})
	}
}

func (v *Validator) codeBlock(r *run, block models.CodeBlock, halt bool) error {
	if strings.TrimSpace(block.Source) == "" {
		return nil
	}

	outcome := v.runner.Run(block.Source, r.scope)
	if outcome.Failed() {
		r.lastFailure = outcome.Failure
	}

	for i, line := range executor.SourceLines(block.Source) {
		number := i + 1
		switch {
		case number < outcome.FailureLine:
			v.sink.Emit(models.Event{Kind: models.EventPassed, Text: line})
			r.report.Passed++
		case number == outcome.FailureLine:
			v.sink.Emit(models.Event{Kind: models.EventFailed, Text: line, Err: outcome.Failure})
			r.report.Failed++
			if halt {
				keys := r.scope.Keys()
				v.sink.Emit(models.Event{Kind: models.EventScope, Keys: keys})
				return &HaltError{
					Line:      line,
					Failure:   outcome.Failure,
					ScopeKeys: keys,
				}
			}
		default:
			v.sink.Emit(models.Event{Kind: models.EventSkipped, Text: line})
			r.report.Skipped++
		}
	}
	return nil
}
