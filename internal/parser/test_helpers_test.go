package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wesm/subtle/internal/testjsonl"
)

// Timestamp constants for test data.
const (
	tsZero    = "2024-01-01T00:00:00Z"
	tsZeroS1  = "2024-01-01T00:00:01Z"
	tsZeroS2  = "2024-01-01T00:00:02Z"
	tsEarly   = "2024-01-01T10:00:00Z"
	tsEarlyS5 = "2024-01-01T10:00:05Z"
)

// --- Data Generators ---

func generateLargeString(size int) string {
	return strings.Repeat("x", size)
}

func createTestFile(
	t *testing.T, name, content string,
) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(
		path, []byte(content), 0o644,
	); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return path
}

// mustDecode decodes a fixture line and fails the test when it
// is rejected.
func mustDecode(t *testing.T, line string) Event {
	t.Helper()
	e, ok := Decode(line)
	if !ok {
		t.Fatalf("Decode rejected %q", line)
	}
	return e
}

// assistantWith builds an assistant event with the given blocks.
func assistantWith(t *testing.T, blocks ...map[string]any) Event {
	t.Helper()
	return mustDecode(t, testjsonl.ClaudeAssistantJSON(
		testjsonl.Blocks(blocks...), tsZero,
	))
}

// userWith builds a user event with the given blocks.
func userWith(t *testing.T, blocks ...map[string]any) Event {
	t.Helper()
	return mustDecode(t, testjsonl.ClaudeUserBlocksJSON(
		testjsonl.Blocks(blocks...), tsZero,
	))
}

// --- Assertions ---

func assertTimestamp(t *testing.T, got time.Time, want time.Time) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("timestamp = %v, want %v", got, want)
	}
}
