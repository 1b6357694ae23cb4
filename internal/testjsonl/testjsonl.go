// Package testjsonl provides shared JSONL fixture builders for
// Claude Code session test data. Used by the parser, analytics,
// catalog, search and server test packages.
package testjsonl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ClaudeUserJSON returns a Claude user message with string
// content as a JSON string.
func ClaudeUserJSON(content, timestamp string) string {
	m := map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "user",
			"content": content,
		},
	}
	return mustMarshal(m)
}

// ClaudeUserBlocksJSON returns a Claude user message whose
// content is a block array.
func ClaudeUserBlocksJSON(blocks []map[string]any, timestamp string) string {
	m := map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "user",
			"content": blocks,
		},
	}
	return mustMarshal(m)
}

// ClaudeAssistantJSON returns a Claude assistant message as a
// JSON string.
func ClaudeAssistantJSON(content any, timestamp string) string {
	m := map[string]any{
		"type":      "assistant",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "assistant",
			"content": content,
		},
	}
	return mustMarshal(m)
}

// Usage holds token counts for assistant fixtures.
type Usage struct {
	Input         int
	Output        int
	CacheCreation int
	CacheRead     int
}

// ClaudeAssistantUsageJSON returns an assistant message with a
// model and a usage object.
func ClaudeAssistantUsageJSON(
	content any, timestamp, model string, u Usage,
) string {
	m := map[string]any{
		"type":      "assistant",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "assistant",
			"model":   model,
			"content": content,
			"usage": map[string]any{
				"input_tokens":                u.Input,
				"output_tokens":               u.Output,
				"cache_creation_input_tokens": u.CacheCreation,
				"cache_read_input_tokens":     u.CacheRead,
			},
		},
	}
	return mustMarshal(m)
}

// ClaudeSystemJSON returns a system record with a subtype.
func ClaudeSystemJSON(subtype, timestamp string) string {
	return mustMarshal(map[string]any{
		"type":      "system",
		"subtype":   subtype,
		"timestamp": timestamp,
	})
}

// ClaudeTurnDurationJSON returns a system turn_duration record.
func ClaudeTurnDurationJSON(durationMs int, timestamp string) string {
	return mustMarshal(map[string]any{
		"type":       "system",
		"subtype":    "turn_duration",
		"durationMs": durationMs,
		"timestamp":  timestamp,
	})
}

// TextBlock returns a text content block.
func TextBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

// ThinkingBlock returns a thinking content block.
func ThinkingBlock(text string) map[string]any {
	return map[string]any{"type": "thinking", "thinking": text}
}

// ToolUseBlock returns a tool_use content block.
func ToolUseBlock(id, name string, input map[string]any) map[string]any {
	if input == nil {
		input = map[string]any{}
	}
	return map[string]any{
		"type":  "tool_use",
		"id":    id,
		"name":  name,
		"input": input,
	}
}

// ToolResultBlock returns a tool_result content block.
func ToolResultBlock(toolUseID string, content any, isError bool) map[string]any {
	b := map[string]any{
		"type":        "tool_result",
		"tool_use_id": toolUseID,
		"content":     content,
	}
	if isError {
		b["is_error"] = true
	}
	return b
}

// Blocks is shorthand for a content block slice.
func Blocks(blocks ...map[string]any) []map[string]any {
	return blocks
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// SessionBuilder constructs JSONL session content using a
// fluent API.
type SessionBuilder struct {
	lines []string
}

// NewSessionBuilder returns a new empty SessionBuilder.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{}
}

// AddClaudeUser appends a Claude user message line.
func (b *SessionBuilder) AddClaudeUser(
	timestamp, content string,
) *SessionBuilder {
	b.lines = append(b.lines, ClaudeUserJSON(content, timestamp))
	return b
}

// AddClaudeAssistant appends a Claude assistant text message.
func (b *SessionBuilder) AddClaudeAssistant(
	timestamp, text string,
) *SessionBuilder {
	b.lines = append(b.lines, ClaudeAssistantJSON(
		Blocks(TextBlock(text)), timestamp,
	))
	return b
}

// AddClaudeToolUse appends an assistant message that calls a
// single tool.
func (b *SessionBuilder) AddClaudeToolUse(
	timestamp, id, name string, input map[string]any,
) *SessionBuilder {
	b.lines = append(b.lines, ClaudeAssistantJSON(
		Blocks(ToolUseBlock(id, name, input)), timestamp,
	))
	return b
}

// AddClaudeToolResult appends a user message carrying a single
// tool result.
func (b *SessionBuilder) AddClaudeToolResult(
	timestamp, toolUseID string, content any, isError bool,
) *SessionBuilder {
	b.lines = append(b.lines, ClaudeUserBlocksJSON(
		Blocks(ToolResultBlock(toolUseID, content, isError)), timestamp,
	))
	return b
}

// AddRaw appends an arbitrary raw line.
func (b *SessionBuilder) AddRaw(line string) *SessionBuilder {
	b.lines = append(b.lines, line)
	return b
}

// String returns the JSONL content with a trailing newline.
func (b *SessionBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// StringNoTrailingNewline returns the JSONL content without a
// trailing newline.
func (b *SessionBuilder) StringNoTrailingNewline() string {
	return strings.Join(b.lines, "\n")
}

// WriteSession writes content to <root>/<project>/<id>.jsonl,
// creating the project directory, and returns the file path.
func WriteSession(
	t testing.TB, root, project, id, content string,
) string {
	t.Helper()
	dir := filepath.Join(root, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating project dir: %v", err)
	}
	path := filepath.Join(dir, id+".jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing session %s: %v", id, err)
	}
	return path
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
