package executor

import (
	"fmt"
	"strings"

	"go.starlark.net/syntax"
)

// DefaultSeparator splits an assertion line into expression and expectation.
const DefaultSeparator = " // "

// expectBuiltin is the predeclared function that rewritten assertions call.
const expectBuiltin = "__expect__"

// Rewriter turns "expr // expected" lines into executable equality checks.
type Rewriter struct {
	separator string
}

// NewRewriter creates a Rewriter splitting on separator.
// An empty separator means DefaultSeparator.
func NewRewriter(separator string) *Rewriter {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &Rewriter{separator: separator}
}

// Rewrite returns the executable form of one source line.
//
// A line containing the separator is split on its first occurrence; when
// both trimmed sides are non-empty the line becomes a call that fails with
// "<left> != <right>" unless both sides evaluate equal. Leading indentation
// is kept so checks work inside indented bodies. Any other line is returned
// unchanged. The result is always a single line.
func (r *Rewriter) Rewrite(line string) string {
	left, right, found := strings.Cut(line, r.separator)
	if !found {
		return line
	}
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)
	if left == "" || right == "" {
		return line
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	message := syntax.Quote(left+" != "+right, false)
	return fmt.Sprintf("%s%s((%s), (%s), %s)", indent, expectBuiltin, left, right, message)
}

// RewriteBlock trims source, rewrites every line and rejoins them.
// The returned program has exactly as many lines as the trimmed source.
func (r *Rewriter) RewriteBlock(source string) string {
	lines := SourceLines(source)
	for i, line := range lines {
		lines[i] = r.Rewrite(line)
	}
	return strings.Join(lines, "\n")
}

// SourceLines splits a block into the lines that failures are attributed to.
func SourceLines(source string) []string {
	return strings.Split(strings.TrimSpace(source), "\n")
}
