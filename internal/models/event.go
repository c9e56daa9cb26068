package models

// EventKind identifies what a report event describes.
type EventKind int

const (
	EventHeading EventKind = iota + 1
	EventSeparator
	EventBlank
	EventPassed
	EventFailed
	EventSkipped
	EventScope
	EventSummary
)

// String returns the lowercase name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventHeading:
		return "heading"
	case EventSeparator:
		return "separator"
	case EventBlank:
		return "blank"
	case EventPassed:
		return "success"
	case EventFailed:
		return "failure"
	case EventSkipped:
		return "skipped"
	case EventScope:
		return "scope"
	case EventSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Event is a single item of the human-readable validation report.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind  EventKind
	Text  string   // heading text, source line, or summary title
	Level int      // heading level
	Err   error    // failure cause for EventFailed
	Keys  []string // scope names for EventScope

	Passed  int
	Failed  int
	Skipped int
}

// EventSink receives report events in order.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// Emit calls f(e).
func (f EventSinkFunc) Emit(e Event) { f(e) }
