package timeslot

import (
	"strings"
	"time"
)

// Kind tags the shape a stored time value arrived in.
type Kind int

const (
	// KindCanonical is the "HH:MM" form every boundary emits.
	KindCanonical Kind = iota
	// KindLegacyTimestamp is an old row holding a full timestamp; the
	// embedded wall-clock time is read as stored, without zone conversion.
	KindLegacyTimestamp
	// KindUnknown is a shape we cannot interpret. Unknown values degrade
	// to a zero-width window so historical data stays queryable.
	KindUnknown
)

// Value is a stored start/end time after classification. Parsing happens
// once here; business logic never inspects raw formats.
type Value struct {
	kind Kind
	hhmm string
}

// Parse classifies a raw stored time value.
//
// Accepted shapes:
//   - "HH:MM" (returned unchanged, so Parse is idempotent)
//   - "HH:MM:SS" and longer time-of-day strings (truncated to "HH:MM")
//   - timestamp-like values such as "2024-06-01T14:30:00.000Z" (the
//     time-of-day after 'T' is extracted as stored)
func Parse(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{kind: KindUnknown}
	}

	if i := strings.IndexByte(raw, 'T'); i >= 0 {
		hhmm := truncateClock(raw[i+1:])
		if !validClock(hhmm) {
			return Value{kind: KindUnknown}
		}
		return Value{kind: KindLegacyTimestamp, hhmm: hhmm}
	}

	hhmm := truncateClock(raw)
	if !validClock(hhmm) {
		return Value{kind: KindUnknown}
	}
	return Value{kind: KindCanonical, hhmm: hhmm}
}

func (v Value) Kind() Kind { return v.kind }

// Canonical returns the "HH:MM" form, or "" for unknown shapes.
func (v Value) Canonical() string { return v.hhmm }

// On anchors the time-of-day to the given date and returns the absolute
// instant used for overlap arithmetic. Unknown values return the zero
// instant; WindowOn collapses any window touching one to the placeholder.
func (v Value) On(date time.Time) time.Time {
	if v.kind == KindUnknown {
		return time.Time{}
	}
	h := int(v.hhmm[0]-'0')*10 + int(v.hhmm[1]-'0')
	m := int(v.hhmm[3]-'0')*10 + int(v.hhmm[4]-'0')
	d := DateOnly(date)
	return d.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func truncateClock(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h < 24 && m < 60
}

// Normalize is the single ingestion point for heterogeneous time values:
// canonical input comes back unchanged, legacy timestamps are reduced to
// their embedded "HH:MM", unrecognized shapes come back empty.
func Normalize(raw string) string {
	return Parse(raw).Canonical()
}

// NormalizeDate reduces a date value in either bare "YYYY-MM-DD" form or a
// timestamp-like form to a midnight-anchored date with no zone semantics.
func NormalizeDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, 'T'); i >= 0 {
		raw = raw[:i]
	}
	return time.Parse("2006-01-02", raw)
}

// DateOnly drops the time-of-day, keeping the zero-anchored date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
