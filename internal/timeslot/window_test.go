package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func windowOn(t *testing.T, date time.Time, start, end string) Window {
	t.Helper()
	return WindowOn(date, Parse(start), Parse(end))
}

func TestWindowOverlapsHalfOpen(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a    [2]string
		b    [2]string
		want bool
	}{
		{"touching endpoints do not conflict", [2]string{"09:00", "10:00"}, [2]string{"10:00", "11:00"}, false},
		{"partial overlap conflicts", [2]string{"09:00", "10:00"}, [2]string{"09:30", "10:30"}, true},
		{"contained window conflicts", [2]string{"09:00", "12:00"}, [2]string{"10:00", "11:00"}, true},
		{"identical windows conflict", [2]string{"09:00", "10:00"}, [2]string{"09:00", "10:00"}, true},
		{"disjoint windows do not conflict", [2]string{"09:00", "10:00"}, [2]string{"14:00", "15:00"}, false},
		{"back-to-back before does not conflict", [2]string{"10:00", "11:00"}, [2]string{"09:00", "10:00"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := windowOn(t, date, tt.a[0], tt.a[1])
			b := windowOn(t, date, tt.b[0], tt.b[1])
			assert.Equal(t, tt.want, a.Overlaps(b))
			assert.Equal(t, tt.want, b.Overlaps(a))
		})
	}
}

func TestWindowValid(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, windowOn(t, date, "09:00", "10:00").Valid())
	assert.False(t, windowOn(t, date, "10:00", "10:00").Valid())
	assert.False(t, windowOn(t, date, "11:00", "10:00").Valid())
}

func TestUnknownValueNeverConflicts(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// A malformed legacy row degrades to a zero-width placeholder instead
	// of blocking the whole day.
	broken := WindowOn(date, Parse("garbage"), Parse(""))
	real := windowOn(t, date, "00:00", "23:59")

	assert.False(t, broken.Overlaps(real))
	assert.False(t, real.Overlaps(broken))
}

func TestPartiallyUnreadableWindowNeverConflicts(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	real := windowOn(t, date, "08:00", "09:00")

	// One readable side must not anchor against the zero instant and
	// swallow the whole day; the row degrades as a whole.
	tests := []struct {
		name       string
		start, end string
	}{
		{"unreadable start", "garbage", "11:00"},
		{"unreadable end", "10:00", "garbage"},
		{"empty start", "", "11:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := WindowOn(date, Parse(tt.start), Parse(tt.end))
			assert.False(t, broken.Overlaps(real))
			assert.False(t, real.Overlaps(broken))
		})
	}
}
