// Package timeslot converts heterogeneous client-supplied times into
// canonical UTC slot boundaries.  Slots are fixed-width buckets anchored to
// the Unix epoch, so flooring an instant produces the same boundary no
// matter which timezone the caller wrote the time in.  All functions here
// are pure and safe for concurrent use.
package timeslot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidTime is returned when an input cannot be parsed into an
// absolute instant.  Handlers should translate this into an HTTP 400
// response.
var ErrInvalidTime = errors.New("invalid time")

// Accepted instant layouts.  The reservation API requires an explicit
// offset; a bare local datetime is resolved by the handler against the
// store timezone before it reaches ParseInstant.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// ParseInstant parses an ISO-8601 string carrying a timezone offset into an
// absolute instant.  The result is converted to UTC.  Inputs without an
// offset fail with ErrInvalidTime.
func ParseInstant(s string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// FloorToSlot floors an instant to the start of its containing slot.  The
// boundary is measured in whole slot widths from the Unix epoch, not from
// local midnight, which keeps boundaries stable across timezones and DST.
// FloorToSlot is idempotent: flooring an already-floored instant returns
// the same instant.
func FloorToSlot(t time.Time, slotMinutes int) time.Time {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	width := int64(slotMinutes) * 60 * 1000
	ms := t.UnixMilli()
	floored := (ms / width) * width
	return time.UnixMilli(floored).UTC()
}

// SlotEnd returns the exclusive end of the slot beginning at start.
func SlotEnd(start time.Time, slotMinutes int) time.Time {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	return start.Add(time.Duration(slotMinutes) * time.Minute).UTC()
}

// Recognized time-of-day shapes, tried in order.  Japanese phrase forms
// come first because "18時30分" also contains bare digits.
var (
	reKanjiHalf = regexp.MustCompile(`(\d{1,2})\s*時\s*半`)
	reKanji     = regexp.MustCompile(`(\d{1,2})\s*時\s*(?:(\d{1,2})\s*分)?`)
	reDelimited = regexp.MustCompile(`(\d{1,2})\s*[:.\-]\s*(\d{1,2})`)
	reBare      = regexp.MustCompile(`^\s*(\d{3,4})\s*$`)
	reHourOnly  = regexp.MustCompile(`^\s*(\d{1,2})\s*$`)
)

// NormalizeTimeOfDay extracts a time of day from free-form input and
// returns it as "HH:MM".  Supported shapes include "18:30", "18.30",
// "18-30", "1830", "18", "18時30分", "18時半" and "18時".  Hours are
// clamped to [0,23] and minutes to [0,59].  The second return value is
// false when no recognizable pattern matches.
func NormalizeTimeOfDay(input string) (string, bool) {
	if m := reKanjiHalf.FindStringSubmatch(input); m != nil {
		return formatHM(atoi(m[1]), 30), true
	}
	if m := reKanji.FindStringSubmatch(input); m != nil {
		minute := 0
		if m[2] != "" {
			minute = atoi(m[2])
		}
		return formatHM(atoi(m[1]), minute), true
	}
	if m := reDelimited.FindStringSubmatch(input); m != nil {
		return formatHM(atoi(m[1]), atoi(m[2])), true
	}
	if m := reBare.FindStringSubmatch(input); m != nil {
		digits := m[1]
		split := len(digits) - 2
		return formatHM(atoi(digits[:split]), atoi(digits[split:])), true
	}
	if m := reHourOnly.FindStringSubmatch(input); m != nil {
		return formatHM(atoi(m[1]), 0), true
	}
	return "", false
}

func formatHM(hour, minute int) string {
	if hour < 0 {
		hour = 0
	}
	if hour > 23 {
		hour = 23
	}
	if minute < 0 {
		minute = 0
	}
	if minute > 59 {
		minute = 59
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
