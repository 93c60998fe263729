package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"canonical unchanged", "14:30", "14:30"},
		{"trailing seconds truncated", "14:30:00", "14:30"},
		{"legacy iso timestamp", "2024-06-01T14:30:00.000Z", "14:30"},
		{"legacy timestamp without millis", "2024-06-01T09:05:00Z", "09:05"},
		{"midnight", "00:00", "00:00"},
		{"whitespace trimmed", " 10:00 ", "10:00"},
		{"empty", "", ""},
		{"garbage", "not-a-time", ""},
		{"hour out of range", "25:00", ""},
		{"minute out of range", "10:61", ""},
		{"missing separator", "1430", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize("2024-06-01T14:30:00.000Z")
	assert.Equal(t, "14:30", once)
	assert.Equal(t, once, Normalize(once))
}

func TestParseKinds(t *testing.T) {
	assert.Equal(t, KindCanonical, Parse("10:00").Kind())
	assert.Equal(t, KindLegacyTimestamp, Parse("2024-06-01T10:00:00Z").Kind())
	assert.Equal(t, KindUnknown, Parse("").Kind())
	assert.Equal(t, KindUnknown, Parse("later").Kind())
}

func TestValueOn(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	got := Parse("14:30").On(date)
	assert.Equal(t, time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC), got)

	// Legacy rows anchor to the date under test, not their embedded date.
	got = Parse("2023-01-15T09:00:00Z").On(date)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), got)

	assert.True(t, Parse("??").On(date).IsZero())
}

func TestNormalizeDate(t *testing.T) {
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	got, err := NormalizeDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = NormalizeDate("2024-06-01T15:04:05.000Z")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = NormalizeDate("June 1st")
	assert.Error(t, err)
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2024, 6, 1, 23, 59, 58, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), DateOnly(in))
}
