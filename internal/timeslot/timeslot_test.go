package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTimeOfDay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "colon delimited", input: "18:30", want: "18:30", ok: true},
		{name: "dot delimited", input: "18.30", want: "18:30", ok: true},
		{name: "dash delimited", input: "18-30", want: "18:30", ok: true},
		{name: "bare four digits", input: "1830", want: "18:30", ok: true},
		{name: "bare three digits", input: "830", want: "08:30", ok: true},
		{name: "hour only", input: "18", want: "18:00", ok: true},
		{name: "single digit hour", input: "9", want: "09:00", ok: true},
		{name: "japanese hour and minute", input: "18時30分", want: "18:30", ok: true},
		{name: "japanese half hour", input: "18時半", want: "18:30", ok: true},
		{name: "japanese hour only", input: "18時", want: "18:00", ok: true},
		{name: "japanese with surrounding text", input: "明日の18時半にお願いします", want: "18:30", ok: true},
		{name: "hour clamped high", input: "25:10", want: "23:10", ok: true},
		{name: "minute clamped high", input: "18:75", want: "18:59", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "no digits", input: "evening please", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeTimeOfDay(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2025-09-04T21:45:30+09:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 4, 12, 45, 30, 0, time.UTC), got)

	_, err = ParseInstant("2025-09-04 21:45")
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = ParseInstant("not a time")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestFloorToSlot(t *testing.T) {
	// 21:45 JST is 12:45 UTC; the containing 30-minute slot starts at 12:30.
	in, err := ParseInstant("2025-09-04T21:45:30+09:00")
	require.NoError(t, err)
	got := FloorToSlot(in, 30)
	assert.Equal(t, time.Date(2025, 9, 4, 12, 30, 0, 0, time.UTC), got)
}

func TestFloorToSlotIdempotent(t *testing.T) {
	instants := []string{
		"2025-09-04T21:45:30+09:00",
		"2025-01-01T00:00:00Z",
		"2024-12-31T23:59:59-05:00",
		"2025-03-09T02:30:00-08:00", // inside a US DST transition window
	}
	for _, s := range instants {
		for _, m := range []int{15, 30, 60} {
			in, err := ParseInstant(s)
			require.NoError(t, err)
			once := FloorToSlot(in, m)
			twice := FloorToSlot(once, m)
			assert.True(t, once.Equal(twice), "flooring %s at %d minutes is not idempotent", s, m)
		}
	}
}

func TestSlotEnd(t *testing.T) {
	start := time.Date(2025, 9, 4, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 4, 13, 0, 0, 0, time.UTC), SlotEnd(start, 30))
}
