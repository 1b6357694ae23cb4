package analytics

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wesm/subtle/internal/parser"
	"github.com/wesm/subtle/internal/timeutil"
)

// ErrMessageNotFound is returned for an index outside the
// session's events.
var ErrMessageNotFound = errors.New("message not found")

// ToolUseInfo summarizes a tool call for the message list.
type ToolUseInfo struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	FilePath    string              `json:"file_path,omitempty"`
	Pattern     string              `json:"pattern,omitempty"`
	Query       string              `json:"query,omitempty"`
	Command     string              `json:"command,omitempty"`
	EditSummary *parser.EditSummary `json:"edit_summary,omitempty"`
	WriteLines  *int                `json:"write_lines,omitempty"`
}

// ToolResultInfo summarizes a tool result for the message list.
type ToolResultInfo struct {
	ToolUseID string `json:"tool_use_id"`
	IsError   bool   `json:"is_error"`
	Preview   string `json:"preview"`
}

// MessageRow is one event with all of its derived facets.
type MessageRow struct {
	Index            int                     `json:"index"`
	Type             string                  `json:"type"`
	Preview          string                  `json:"preview"`
	TextContent      string                  `json:"text_content"`
	Thinking         *string                 `json:"thinking"`
	ToolUses         []ToolUseInfo           `json:"tool_uses"`
	ToolResults      []ToolResultInfo        `json:"tool_results"`
	Timestamp        *string                 `json:"timestamp"`
	Model            *string                 `json:"model"`
	InputTokens      *int64                  `json:"input_tokens"`
	OutputTokens     *int64                  `json:"output_tokens"`
	DurationSeconds  *float64                `json:"duration_seconds"`
	IsCommit         bool                    `json:"is_commit"`
	CommitInfo       *parser.CommitInfo      `json:"commit_info"`
	EditLOC          *parser.LineDelta       `json:"edit_loc"`
	WriteLOC         *int                    `json:"write_loc"`
	GitDiffLOC       *parser.LineDelta       `json:"git_diff_loc"`
	IsRejection      bool                    `json:"is_rejection"`
	IsToolError      bool                    `json:"is_tool_error"`
	IsCommandFailure bool                    `json:"is_command_failure"`
	Category         *parser.MessageCategory `json:"category"`
}

// Messages builds the message list. An assistant message's
// duration is the time since the previous user turn; a user
// message that closes open tool calls gets the elapsed time
// of the last call it closes.
func Messages(events []parser.Event) []MessageRow {
	rows := make([]MessageRow, 0, len(events))
	pairer := newToolPairer()

	var (
		prevUser    time.Time
		hasPrevUser bool
	)
	for i, e := range events {
		var duration *float64
		if spans := pairer.observe(e); len(spans) > 0 {
			duration = ptr(timeutil.Seconds(spans[len(spans)-1].ms))
		}

		ts, hasTS := e.Timestamp()
		if e.Kind() == parser.KindAssistant && hasTS && hasPrevUser {
			duration = ptr(ts.Sub(prevUser).Seconds())
		}
		if e.Kind() == parser.KindUser && hasTS {
			prevUser, hasPrevUser = ts, true
		}

		row := buildRow(i, e)
		row.DurationSeconds = duration
		rows = append(rows, row)
	}
	return rows
}

// RawMessage returns the verbatim record at index.
func RawMessage(events []parser.Event, index int) (json.RawMessage, error) {
	if index < 0 || index >= len(events) {
		return nil, ErrMessageNotFound
	}
	return events[index].Raw(), nil
}

func buildRow(index int, e parser.Event) MessageRow {
	row := MessageRow{
		Index:            index,
		Type:             e.Kind(),
		Preview:          e.Preview(),
		TextContent:      e.TextContent(),
		ToolUses:         []ToolUseInfo{},
		ToolResults:      []ToolResultInfo{},
		IsCommit:         e.IsCommit(),
		IsRejection:      e.IsRejection(),
		IsToolError:      e.IsToolError(),
		IsCommandFailure: e.IsCommandFailure(),
	}

	if s, ok := e.Thinking(); ok {
		row.Thinking = &s
	}
	if ts, ok := e.Timestamp(); ok {
		row.Timestamp = timeutil.Ptr(ts)
	}
	if m, ok := e.Model(); ok {
		row.Model = &m
	}
	if n, ok := e.InputTokens(); ok {
		row.InputTokens = &n
	}
	if n, ok := e.OutputTokens(); ok {
		row.OutputTokens = &n
	}
	if c, ok := e.Commit(); ok {
		row.CommitInfo = &c
	}
	if d, ok := e.EditLines(); ok {
		row.EditLOC = &d
	}
	if n, ok := e.WriteLines(); ok {
		row.WriteLOC = &n
	}
	if d, ok := e.GitDiffLines(); ok {
		row.GitDiffLOC = &d
	}
	if c, ok := e.Category(); ok {
		row.Category = &c
	}

	for _, tu := range e.ToolUses() {
		row.ToolUses = append(row.ToolUses, toolUseInfo(tu))
	}
	for _, tr := range e.ToolResults() {
		row.ToolResults = append(row.ToolResults, ToolResultInfo{
			ToolUseID: tr.ToolUseID,
			IsError:   tr.IsError,
			Preview:   parser.TruncateResultPreview(tr.Text()),
		})
	}
	return row
}

func toolUseInfo(tu parser.ToolUse) ToolUseInfo {
	in := tu.Input
	info := ToolUseInfo{
		ID:       tu.ID,
		Name:     tu.Name,
		FilePath: stringField(in, "file_path"),
		Pattern:  stringField(in, "pattern"),
		Query:    stringField(in, "query"),
	}
	if cmd := stringField(in, "command"); cmd != "" {
		info.Command = parser.TruncateCommand(cmd)
	}
	if s, ok := parser.EditSummaryOf(in); ok {
		info.EditSummary = &s
	}
	if n, ok := parser.WriteLinesOf(in); ok {
		info.WriteLines = &n
	}
	return info
}

func stringField(in gjson.Result, key string) string {
	return in.Get(key).String()
}

func ptr[T any](v T) *T {
	return &v
}
