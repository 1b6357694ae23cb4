package analytics

import (
	"testing"

	"github.com/wesm/subtle/internal/parser"
)

const (
	ts0  = "2024-01-01T12:00:00Z"
	ts1  = "2024-01-01T12:00:01Z"
	ts2  = "2024-01-01T12:00:02Z"
	ts5  = "2024-01-01T12:00:05Z"
	ts10 = "2024-01-01T12:00:10Z"
	ts30 = "2024-01-01T12:30:00Z"
)

// decodeAll decodes fixture lines, failing on any rejection.
func decodeAll(t *testing.T, lines ...string) []parser.Event {
	t.Helper()
	events := make([]parser.Event, 0, len(lines))
	for _, l := range lines {
		e, ok := parser.Decode(l)
		if !ok {
			t.Fatalf("Decode rejected %q", l)
		}
		events = append(events, e)
	}
	return events
}
