package parser

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/tidwall/gjson"
)

// LineDelta counts lines of code added and removed.
type LineDelta struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Add returns the element-wise sum of d and o.
func (d LineDelta) Add(o LineDelta) LineDelta {
	return LineDelta{Added: d.Added + o.Added, Removed: d.Removed + o.Removed}
}

// EditSummary is the raw line count on each side of an edit.
type EditSummary struct {
	OldLines int `json:"old_lines"`
	NewLines int `json:"new_lines"`
}

// EditLines diffs old_string against new_string for every Edit
// tool use on the event and sums the changed lines. Only lines
// the diff marks as inserted or deleted count, so replacing
// one line inside a block of ten yields 1/1, not 10/10.
func (e Event) EditLines() (LineDelta, bool) {
	var (
		total LineDelta
		found bool
	)
	for _, tu := range e.ToolUses() {
		if tu.Name != "Edit" {
			continue
		}
		found = true
		total = total.Add(diffLines(
			tu.Input.Get("old_string").Str,
			tu.Input.Get("new_string").Str,
		))
	}
	return total, found
}

// WriteLines counts the lines written by Write tool uses.
func (e Event) WriteLines() (int, bool) {
	var (
		total int
		found bool
	)
	for _, tu := range e.ToolUses() {
		if tu.Name != "Write" {
			continue
		}
		found = true
		total += countLines(tu.Input.Get("content").Str)
	}
	return total, found
}

// EditSummaryOf reports raw old/new line counts for tool
// inputs that carry both old_string and new_string.
func EditSummaryOf(input gjson.Result) (EditSummary, bool) {
	oldStr, newStr := input.Get("old_string"), input.Get("new_string")
	if !oldStr.Exists() || !newStr.Exists() {
		return EditSummary{}, false
	}
	return EditSummary{
		OldLines: countLines(oldStr.Str),
		NewLines: countLines(newStr.Str),
	}, true
}

func diffLines(oldStr, newStr string) LineDelta {
	m := difflib.NewMatcher(splitLines(oldStr), splitLines(newStr))
	var d LineDelta
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			d.Removed += op.I2 - op.I1
			d.Added += op.J2 - op.J1
		case 'd':
			d.Removed += op.I2 - op.I1
		case 'i':
			d.Added += op.J2 - op.J1
		}
	}
	return d
}

// splitLines splits s into newline-terminated lines. The final
// line gets a newline when it lacks one so "a" and "a\n"
// compare equal. Empty input has no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	last := len(lines) - 1
	if !strings.HasSuffix(lines[last], "\n") {
		lines[last] += "\n"
	}
	return lines
}

// countLines counts newline-delimited lines, including a final
// unterminated one.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// WriteLinesOf counts the lines of a tool input that writes a
// whole file (content plus file_path).
func WriteLinesOf(input gjson.Result) (int, bool) {
	content := input.Get("content")
	if !content.Exists() || !input.Get("file_path").Exists() {
		return 0, false
	}
	return countLines(content.Str), true
}
