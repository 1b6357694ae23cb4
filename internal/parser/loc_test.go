package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wesm/subtle/internal/testjsonl"
)

func editEvent(t *testing.T, oldStr, newStr string) Event {
	t.Helper()
	return assistantWith(t, testjsonl.ToolUseBlock("e1", "Edit", map[string]any{
		"file_path":  "main.go",
		"old_string": oldStr,
		"new_string": newStr,
	}))
}

func TestEditLines(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want LineDelta
	}{
		{"single word swap", "hello", "world", LineDelta{Added: 1, Removed: 1}},
		{"two to three", "line1\nline2", "new1\nnew2\nnew3", LineDelta{Added: 3, Removed: 2}},
		{"one changed line in a block", "a\nb\nc\nd", "a\nB\nc\nd", LineDelta{Added: 1, Removed: 1}},
		{"pure insertion", "a\nc", "a\nb\nc", LineDelta{Added: 1}},
		{"pure deletion", "a\nb\nc", "a\nc", LineDelta{Removed: 1}},
		{"identical", "same\n", "same", LineDelta{}},
		{"from empty", "", "x\ny\n", LineDelta{Added: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := editEvent(t, tt.old, tt.new).EditLines()
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEditLinesAbsent(t *testing.T) {
	_, ok := assistantWith(t, testjsonl.ToolUseBlock("b", "Bash", nil)).EditLines()
	assert.False(t, ok)
}

func TestEditLinesSumsMultipleEdits(t *testing.T) {
	e := assistantWith(t,
		testjsonl.ToolUseBlock("e1", "Edit", map[string]any{"old_string": "a", "new_string": "b"}),
		testjsonl.ToolUseBlock("e2", "Edit", map[string]any{"old_string": "", "new_string": "x\ny"}),
	)
	got, ok := e.EditLines()
	assert.True(t, ok)
	assert.Equal(t, LineDelta{Added: 3, Removed: 1}, got)
}

func TestWriteLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
		{"\n\n", 2},
	}
	for _, tt := range tests {
		e := assistantWith(t, testjsonl.ToolUseBlock("w", "Write", map[string]any{
			"file_path": "f.txt",
			"content":   tt.content,
		}))
		got, ok := e.WriteLines()
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "content %q", tt.content)
	}

	_, ok := assistantWith(t, testjsonl.TextBlock("no tools")).WriteLines()
	assert.False(t, ok)
}

func TestEditSummaryOf(t *testing.T) {
	e := editEvent(t, "a\nb", "c")
	s, ok := EditSummaryOf(e.ToolUses()[0].Input)
	assert.True(t, ok)
	assert.Equal(t, EditSummary{OldLines: 2, NewLines: 1}, s)

	w := assistantWith(t, testjsonl.ToolUseBlock("w", "Write", map[string]any{"content": "x"}))
	_, ok = EditSummaryOf(w.ToolUses()[0].Input)
	assert.False(t, ok)
}

func TestWriteLinesOf(t *testing.T) {
	w := assistantWith(t, testjsonl.ToolUseBlock("w", "Write", map[string]any{
		"file_path": "a.txt",
		"content":   "1\n2\n3",
	}))
	n, ok := WriteLinesOf(w.ToolUses()[0].Input)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	noPath := assistantWith(t, testjsonl.ToolUseBlock("w", "Write", map[string]any{"content": "x"}))
	_, ok = WriteLinesOf(noPath.ToolUses()[0].Input)
	assert.False(t, ok)
}
