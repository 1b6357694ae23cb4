// Package timeutil holds the timestamp parsing and formatting
// conventions shared by the parser and the API layer.
package timeutil

import (
	"time"
)

// naiveLayout accepts ISO-8601 timestamps that carry no offset.
// Such values are interpreted as UTC.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Parse parses an ISO-8601 timestamp. A trailing "Z" is
// accepted as the UTC offset. The result is always in UTC.
// The second return value is false for empty or unparsable
// input.
func Parse(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.ParseInLocation(naiveLayout, s, time.UTC)
	}
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Format returns t as an RFC3339Nano string in UTC, or "" for
// the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Ptr is like Format but returns nil for the zero time, so
// the value marshals to JSON null.
func Ptr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := Format(t)
	return &s
}

// Seconds converts a millisecond count to fractional seconds.
func Seconds(ms int64) float64 {
	return float64(ms) / 1000
}
