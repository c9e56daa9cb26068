package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportTotal(t *testing.T) {
	r := Report{Valid: false, Passed: 2, Failed: 1, Skipped: 4}
	assert.Equal(t, 7, r.Total())
	assert.Equal(t, 0, Report{Valid: true}.Total())
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventHeading, "heading"},
		{EventSeparator, "separator"},
		{EventBlank, "blank"},
		{EventPassed, "success"},
		{EventFailed, "failure"},
		{EventSkipped, "skipped"},
		{EventScope, "scope"},
		{EventSummary, "summary"},
		{EventKind(0), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestEventSinkFunc(t *testing.T) {
	var got []Event
	var sink EventSink = EventSinkFunc(func(e Event) { got = append(got, e) })
	sink.Emit(Event{Kind: EventHeading, Text: "Title", Level: 1})
	sink.Emit(Event{Kind: EventSeparator})

	assert.Len(t, got, 2)
	assert.Equal(t, "Title", got[0].Text)
	assert.Equal(t, EventSeparator, got[1].Kind)
}

func TestElementVariants(t *testing.T) {
	elements := []Element{
		Heading{Text: "Usage", Level: 2},
		CodeBlock{Source: "x = 1\n", Line: 3},
	}
	var headings, blocks int
	for _, el := range elements {
		switch el.(type) {
		case Heading:
			headings++
		case CodeBlock:
			blocks++
		}
	}
	assert.Equal(t, 1, headings)
	assert.Equal(t, 1, blocks)
}
