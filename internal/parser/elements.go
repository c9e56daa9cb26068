package parser

import (
	"strings"

	"github.com/harrison/goodread/internal/models"
)

// Default fence settings used when Options fields are empty.
const (
	DefaultLanguage      = "starlark"
	DefaultCaptureMarker = "goodread"
)

const fence = "```"

// Options controls which fenced blocks the parser captures.
type Options struct {
	// Language is the fence info prefix of executable blocks ("```starlark").
	Language string
	// CaptureMarker must appear somewhere on the opening fence line for the
	// block to be captured.
	CaptureMarker string
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.CaptureMarker == "" {
		o.CaptureMarker = DefaultCaptureMarker
	}
	return o
}

// opener is the fence prefix that starts a block in the embedded language.
func (o Options) opener() string {
	return fence + o.Language
}

// ParseElements converts raw document text into headings and capturable
// code blocks, in document order.
//
// Rules:
//   - a line starting with '#' outside a fence is a heading; a heading equal
//     in text and level to the element just before it is dropped
//   - "```<language>" opens a block; it is captured only if the line also
//     contains the capture marker; opening always resets the buffer
//   - any other line starting with "```" closes the current fence, or opens
//     a foreign fence whose contents are ignored
//   - blank lines inside a captured block are dropped
//   - an unterminated block at end of input is dropped
//
// ParseElements is a pure function of its input.
func ParseElements(raw string, opts Options) []models.Element {
	opts = opts.withDefaults()

	var elements []models.Element
	var block strings.Builder
	blockLine := 0
	capture := false
	inFence := false

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		// Block opener in the embedded language
		if strings.HasPrefix(line, opts.opener()) {
			capture = strings.Contains(line, opts.CaptureMarker)
			inFence = true
			block.Reset()
			blockLine = i + 1
			continue
		}

		// Closer, or the opener of a fence in another language
		if strings.HasPrefix(line, fence) {
			if inFence {
				if capture {
					elements = append(elements, models.CodeBlock{
						Source: block.String(),
						Line:   blockLine,
					})
				}
				capture = false
				inFence = false
			} else {
				inFence = true
			}
			continue
		}

		if inFence {
			if capture && strings.TrimSpace(line) != "" {
				block.WriteString(line)
				block.WriteString("\n")
			}
			continue
		}

		if strings.HasPrefix(line, "#") {
			heading := parseHeading(line)
			if isDuplicateHeading(elements, heading) {
				continue
			}
			elements = append(elements, heading)
		}
	}

	return elements
}

// parseHeading extracts level and text from a line starting with '#'.
func parseHeading(line string) models.Heading {
	level := len(line) - len(strings.TrimLeft(line, "#"))
	return models.Heading{
		Text:  strings.Trim(line, " #\n"),
		Level: level,
	}
}

// isDuplicateHeading reports whether the last element is the same heading.
// Documents sometimes repeat a heading as an anchor; only one is kept.
func isDuplicateHeading(elements []models.Element, heading models.Heading) bool {
	if len(elements) == 0 {
		return false
	}
	prev, ok := elements[len(elements)-1].(models.Heading)
	return ok && prev == heading
}
