package timeslot

import "time"

// Window is a half-open [Start, End) interval of absolute instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowOn builds the window for a booking's stored start/end values,
// anchored to the date under test. Per-record dates on legacy rows are
// ignored on purpose: only the time-of-day matters for same-day conflicts.
// A row with either side unreadable degrades to the zero-width placeholder
// as a whole; anchoring only the readable side would span from the zero
// instant and conflict with everything.
func WindowOn(date time.Time, start, end Value) Window {
	if start.Kind() == KindUnknown || end.Kind() == KindUnknown {
		return Window{}
	}
	return Window{Start: start.On(date), End: end.On(date)}
}

// Valid reports whether the window has positive width. The lifecycle
// engine rejects inverted and zero-length requests before any conflict
// check runs.
func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Overlaps reports half-open overlap: touching endpoints do not conflict.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && w.End.After(other.Start)
}
