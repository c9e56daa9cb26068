package executor

import (
	"fmt"

	"go.starlark.net/starlark"
)

// FailureKind tells which stage of block execution failed.
type FailureKind int

const (
	// KindRuntime is an error raised while the block was running.
	KindRuntime FailureKind = iota
	// KindSyntax is a parse error in the rewritten block.
	KindSyntax
	// KindResolve is a name resolution error (undefined name, bad rebinding).
	KindResolve
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	switch k {
	case KindRuntime:
		return "runtime"
	case KindSyntax:
		return "syntax"
	case KindResolve:
		return "resolve"
	default:
		return "unknown"
	}
}

// Failure is the first error raised by a code block, attributed to a line.
// Line is 1-based within the trimmed, blank-stripped block source.
type Failure struct {
	Kind    FailureKind
	Line    int
	Message string // message as reported to users
	Err     error  // underlying interpreter error
}

// Error implements the error interface for Failure.
func (f *Failure) Error() string {
	return fmt.Sprintf("line %d: %s", f.Line, f.Message)
}

// Unwrap returns the underlying interpreter error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// AssertionError is raised by an inline "expr // expected" check whose
// sides are not equal. Message is "<left> != <right>" in source form.
type AssertionError struct {
	Message  string
	Actual   starlark.Value
	Expected starlark.Value
}

// Error implements the error interface for AssertionError.
func (e *AssertionError) Error() string {
	return e.Message
}
