package parser

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/goodread/internal/models"
)

// Issue describes a capture-marked block whose markdown rendering and
// execution disagree.
type Issue struct {
	Line    int // 1-based line of the opening fence
	Message string
}

// String formats the issue as "line N: message".
func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// Linter cross-checks the line parser against a CommonMark parse.
type Linter struct {
	markdown goldmark.Markdown
	opts     Options
}

// NewLinter creates a Linter for the given fence options.
func NewLinter(opts Options) *Linter {
	return &Linter{
		markdown: goldmark.New(),
		opts:     opts.withDefaults(),
	}
}

// Lint reports capture-marked fences that readers see but ParseElements
// never executes (unterminated, indented, or tilde fences), and executed
// blocks that a markdown renderer does not show as code blocks.
// Issues are sorted by line.
func (l *Linter) Lint(raw string) ([]Issue, error) {
	source := []byte(raw)
	doc := l.markdown.Parser().Parse(text.NewReader(source))

	rendered := make(map[int]bool)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok || block.Info == nil {
			return ast.WalkContinue, nil
		}
		info := string(block.Info.Segment.Value(source))
		if strings.HasPrefix(info, l.opts.Language) && strings.Contains(info, l.opts.CaptureMarker) {
			rendered[lineOf(source, block.Info.Segment.Start)] = true
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown: %w", err)
	}

	executed := make(map[int]bool)
	for _, el := range ParseElements(raw, l.opts) {
		if block, ok := el.(models.CodeBlock); ok {
			executed[block.Line] = true
		}
	}

	lines := strings.Split(raw, "\n")
	var issues []Issue
	for line := range rendered {
		if executed[line] {
			continue
		}
		issues = append(issues, Issue{Line: line, Message: unexecutedReason(lines[line-1])})
	}
	for line := range executed {
		if !rendered[line] {
			issues = append(issues, Issue{
				Line:    line,
				Message: "block is executed but does not render as a code block",
			})
		}
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Line < issues[j].Line })
	return issues, nil
}

func unexecutedReason(opener string) string {
	switch {
	case strings.HasPrefix(strings.TrimLeft(opener, " \t>"), "~~~"):
		return "tilde fences are not executed"
	case !strings.HasPrefix(opener, fence):
		return "fence does not start at column 0, the block is not executed"
	default:
		return "fence is never closed, the block is not executed"
	}
}

// lineOf converts a byte offset into a 1-based line number.
func lineOf(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
