package output

import (
	"strings"

	"github.com/crimson-sun/emoshop/internal/model"
)

// Verbosity controls how much of a mood event reaches a sink.
type Verbosity int

const (
	Standard Verbosity = iota
	Minimal
)

// ParseVerbosity maps "minimal" to Minimal; anything else is Standard.
func ParseVerbosity(s string) Verbosity {
	if strings.EqualFold(strings.TrimSpace(s), "minimal") {
		return Minimal
	}
	return Standard
}

// FormatEvent returns a copy of the event with fields stripped according to verbosity.
// At Minimal: Confidence and TopProduct are zeroed (omitted from JSON via omitempty).
func FormatEvent(e model.MoodEvent, verbosity Verbosity) model.MoodEvent {
	if verbosity == Minimal {
		e.Confidence = 0
		e.TopProduct = ""
	}
	return e
}
