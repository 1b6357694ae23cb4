package parser

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	previewMaxLen       = 100
	resultPreviewMaxLen = 200
	commandMaxLen       = 100
)

// ToolUse is a tool_use content block.
type ToolUse struct {
	ID    string
	Name  string
	Input gjson.Result
}

// ToolResult is a tool_result content block.
type ToolResult struct {
	ToolUseID string
	IsError   bool
	Content   gjson.Result
}

// Text renders the result payload as plain text. String
// payloads are used as-is; block arrays contribute the text of
// each block, one per line.
func (r ToolResult) Text() string {
	if r.Content.Type == gjson.String {
		return r.Content.Str
	}
	if r.Content.IsArray() {
		var parts []string
		r.Content.ForEach(func(_, block gjson.Result) bool {
			if t := block.Get("text"); t.Type == gjson.String {
				parts = append(parts, t.Str)
			}
			return true
		})
		return strings.Join(parts, "\n")
	}
	if !r.Content.Exists() {
		return ""
	}
	return r.Content.String()
}

// ToolUses returns the tool_use blocks in content order.
func (e Event) ToolUses() []ToolUse {
	var uses []ToolUse
	e.blocks(func(block gjson.Result) bool {
		if block.Get("type").Str != blockToolUse {
			return true
		}
		uses = append(uses, ToolUse{
			ID:    block.Get("id").Str,
			Name:  block.Get("name").Str,
			Input: block.Get("input"),
		})
		return true
	})
	return uses
}

// ToolResults returns the tool_result blocks in content order.
func (e Event) ToolResults() []ToolResult {
	var results []ToolResult
	e.blocks(func(block gjson.Result) bool {
		if block.Get("type").Str != blockToolResult {
			return true
		}
		results = append(results, ToolResult{
			ToolUseID: block.Get("tool_use_id").Str,
			IsError:   block.Get("is_error").Bool(),
			Content:   block.Get("content"),
		})
		return true
	})
	return results
}

// Tools returns the names of all tools used, in order,
// duplicates included.
func (e Event) Tools() []string {
	var names []string
	for _, tu := range e.ToolUses() {
		if tu.Name != "" {
			names = append(names, tu.Name)
		}
	}
	return names
}

// Preview returns a single-line rendering of the message
// content, truncated to 100 characters plus "...".
func (e Event) Preview() string {
	content := e.Content()
	var text string
	switch {
	case content.Type == gjson.String:
		text = content.Str
	case content.IsArray():
		var parts []string
		content.ForEach(func(_, item gjson.Result) bool {
			if item.Type == gjson.String {
				parts = append(parts, item.Str)
				return true
			}
			if !item.IsObject() {
				return true
			}
			switch item.Get("type").Str {
			case blockText:
				parts = append(parts, item.Get("text").Str)
			case blockToolUse:
				name := item.Get("name").Str
				if name == "" {
					name = "unknown"
				}
				parts = append(parts, "[Tool: "+name+"]")
			case blockToolResult:
				parts = append(parts, "[Tool Result]")
			}
			return true
		})
		text = strings.Join(parts, " ")
	case content.Exists() && content.Type != gjson.Null:
		text = content.String()
	}
	return truncateRunes(strings.Join(strings.Fields(text), " "), previewMaxLen)
}

// TextContent returns the string content, or the text blocks
// joined by blank lines.
func (e Event) TextContent() string {
	content := e.Content()
	if content.Type == gjson.String {
		return content.Str
	}
	var parts []string
	e.blocks(func(block gjson.Result) bool {
		if block.Get("type").Str == blockText {
			parts = append(parts, block.Get("text").Str)
		}
		return true
	})
	return strings.Join(parts, "\n\n")
}

// Thinking returns the first thinking block's text.
func (e Event) Thinking() (string, bool) {
	var (
		text  string
		found bool
	)
	e.blocks(func(block gjson.Result) bool {
		if block.Get("type").Str != blockThinking {
			return true
		}
		text, found = block.Get("thinking").Str, true
		return false
	})
	return text, found
}

// SearchText concatenates every searchable fragment of the
// message: string content, thinking and text fields, tool
// names and serialized tool inputs.
func (e Event) SearchText() string {
	content := e.Content()
	if content.Type == gjson.String {
		return content.Str
	}
	var parts []string
	e.blocks(func(block gjson.Result) bool {
		for _, key := range [...]string{"thinking", "text", "name"} {
			if v := block.Get(key); v.Exists() {
				parts = append(parts, v.String())
			}
		}
		if in := block.Get("input"); in.Exists() {
			if in.IsObject() || in.IsArray() {
				parts = append(parts, in.Raw)
			} else {
				parts = append(parts, in.String())
			}
		}
		return true
	})
	return strings.Join(parts, " ")
}

// truncateRunes cuts s to maxLen characters and appends "..."
// when anything was removed.
func truncateRunes(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// TruncateResultPreview shortens a tool result payload for
// message listings.
func TruncateResultPreview(s string) string {
	return truncateRunes(s, resultPreviewMaxLen)
}

// TruncateCommand shortens a shell command for message
// listings.
func TruncateCommand(s string) string {
	return truncateRunes(s, commandMaxLen)
}
