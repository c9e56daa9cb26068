package models

// Element is one structural piece of a parsed document.
// The concrete types are Heading and CodeBlock; the set is closed.
type Element interface {
	isElement()
}

// Heading is a markdown heading line ("## Usage").
type Heading struct {
	Text  string // heading text with surrounding '#' and spaces stripped
	Level int    // number of leading '#' characters (>= 1)
}

// CodeBlock is the raw source of one capture-marked fenced block.
// Blank lines are already removed; each kept line ends with "\n".
type CodeBlock struct {
	Source string
	Line   int // 1-based document line of the opening fence
}

func (Heading) isElement()   {}
func (CodeBlock) isElement() {}
