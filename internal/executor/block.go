package executor

import (
	"errors"
	"fmt"
	"math"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// NoFailure is the FailureLine of an outcome without failure. It compares
// greater than every real line number.
const NoFailure = math.MaxInt

// fileOptions allow flat top-level scripts, the usual shape of doc examples.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Logger receives diagnostics from block execution.
type Logger interface {
	LogDebug(message string)
}

// Outcome is the result of running one code block.
type Outcome struct {
	Failure     *Failure // nil when every line succeeded
	FailureLine int      // Failure.Line, or NoFailure
}

// Failed reports whether the block raised an error.
func (o Outcome) Failed() bool {
	return o.Failure != nil
}

// BlockExecutor runs code blocks against a shared Scope.
type BlockExecutor struct {
	rewriter *Rewriter
	maxSteps uint64
	logger   Logger
	runs     int
}

// Option configures a BlockExecutor.
type Option func(*BlockExecutor)

// WithSeparator sets the assertion separator (default " // ").
func WithSeparator(separator string) Option {
	return func(e *BlockExecutor) {
		e.rewriter = NewRewriter(separator)
	}
}

// WithMaxSteps limits the Starlark computation steps of each block.
// Zero means no limit.
func WithMaxSteps(steps uint64) Option {
	return func(e *BlockExecutor) {
		e.maxSteps = steps
	}
}

// WithLogger routes print() output and diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(e *BlockExecutor) {
		e.logger = logger
	}
}

// NewBlockExecutor creates a BlockExecutor.
func NewBlockExecutor(opts ...Option) *BlockExecutor {
	e := &BlockExecutor{
		rewriter: NewRewriter(DefaultSeparator),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Run rewrites source and executes it as one program against scope.
//
// Bindings made before a failure stay in scope, including when a later
// line names something undefined. On failure, the outcome
// carries the 1-based line of the trimmed source that raised; rewriting
// never changes the line count, so it matches the original source.
func (e *BlockExecutor) Run(source string, scope *Scope) Outcome {
	e.runs++
	program := e.rewriter.RewriteBlock(source)
	lineCount := len(SourceLines(source))
	filename := fmt.Sprintf("block-%d", e.runs)

	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			e.debug("print: " + msg)
		},
	}
	if e.maxSteps > 0 {
		thread.SetMaxExecutionSteps(e.maxSteps)
	}

	err := execChunk(thread, filename, program, scope.globals)
	if err == nil {
		return Outcome{FailureLine: NoFailure}
	}

	failure := newFailure(err)
	failure.Line = clampLine(failure.Line, lineCount)
	e.debug(fmt.Sprintf("%s failed at line %d: %s", filename, failure.Line, describe(failure)))
	return Outcome{
		Failure:     failure,
		FailureLine: failure.Line,
	}
}

// execChunk executes program against globals.
//
// Starlark resolves every name of a chunk before running any of it. When a
// name cannot be resolved, the statements ending before it are executed as a
// shorter chunk, so the lines ahead of the failure really run and their
// bindings reach the scope. The resolve error is still the one reported
// unless the shorter chunk fails first.
func execChunk(thread *starlark.Thread, filename, program string, globals starlark.StringDict) error {
	var limit int32
	var pending error
	for {
		f, err := fileOptions.Parse(filename, program, 0)
		if err != nil {
			return err
		}
		if pending != nil {
			f.Stmts = stmtsBefore(f.Stmts, limit)
			if len(f.Stmts) == 0 {
				return pending
			}
		}

		err = starlark.ExecREPLChunk(f, thread, globals)
		var resolveErrs resolve.ErrorList
		if !errors.As(err, &resolveErrs) || len(resolveErrs) == 0 {
			if err == nil {
				return pending
			}
			return err
		}

		line := firstResolveError(resolveErrs).Pos.Line
		if pending != nil && line >= limit {
			return err
		}
		pending, limit = err, line
	}
}

// stmtsBefore returns the leading statements that end before line.
func stmtsBefore(stmts []syntax.Stmt, line int32) []syntax.Stmt {
	for i, stmt := range stmts {
		if _, end := stmt.Span(); end.Line >= line {
			return stmts[:i]
		}
	}
	return stmts
}

// firstResolveError returns the resolve error with the earliest line.
func firstResolveError(errs resolve.ErrorList) resolve.Error {
	first := errs[0]
	for _, e := range errs[1:] {
		if e.Pos.Line < first.Pos.Line {
			first = e
		}
	}
	return first
}

// describe formats a failure for diagnostics, showing both values of a
// failed assertion.
func describe(f *Failure) string {
	var ae *AssertionError
	if errors.As(f, &ae) {
		return fmt.Sprintf("assertion %s (got %s, want %s)", ae.Message, ae.Actual, ae.Expected)
	}
	return fmt.Sprintf("%s error: %s", f.Kind, f.Message)
}

func (e *BlockExecutor) debug(message string) {
	if e.logger != nil {
		e.logger.LogDebug(message)
	}
}

// newFailure extracts the message and originating line of an interpreter
// error from its structured position data.
func newFailure(err error) *Failure {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return &Failure{
			Kind:    KindRuntime,
			Line:    toplevelLine(evalErr.CallStack),
			Message: evalErr.Msg,
			Err:     err,
		}
	}

	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return &Failure{
			Kind:    KindSyntax,
			Line:    int(syntaxErr.Pos.Line),
			Message: syntaxErr.Msg,
			Err:     err,
		}
	}

	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) && len(resolveErrs) > 0 {
		first := firstResolveError(resolveErrs)
		return &Failure{
			Kind:    KindResolve,
			Line:    int(first.Pos.Line),
			Message: first.Msg,
			Err:     err,
		}
	}

	return &Failure{
		Kind:    KindRuntime,
		Line:    1,
		Message: err.Error(),
		Err:     err,
	}
}

// toplevelLine returns the line the block's top-level code was executing,
// which is the statement to blame even when the error came from a call.
func toplevelLine(stack starlark.CallStack) int {
	for _, frame := range stack {
		if frame.Name == "<toplevel>" {
			return int(frame.Pos.Line)
		}
	}
	if len(stack) > 0 {
		return int(stack[0].Pos.Line)
	}
	return 1
}

// clampLine keeps a reported line inside the block. Errors at end of input
// can point one past the last line.
func clampLine(line, count int) int {
	if line < 1 {
		return 1
	}
	if line > count {
		return count
	}
	return line
}
