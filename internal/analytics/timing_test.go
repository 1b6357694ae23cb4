package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	tj "github.com/wesm/subtle/internal/testjsonl"
)

func TestExecution(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  ExecutionBreakdown
	}{
		{
			name: "empty",
			want: ExecutionBreakdown{ToolBreakdown: map[string]int64{}},
		},
		{
			name: "user then assistant",
			lines: []string{
				tj.ClaudeUserJSON("hi", ts0),
				tj.ClaudeAssistantJSON("hello", ts5),
			},
			want: ExecutionBreakdown{
				AgentMs:       5000,
				ToolBreakdown: map[string]int64{},
			},
		},
		{
			name: "tool call paired with result",
			lines: []string{
				tj.ClaudeUserJSON("run it", ts0),
				tj.ClaudeAssistantJSON(tj.Blocks(
					tj.ToolUseBlock("t1", "Bash", map[string]any{"command": "ls"}),
				), ts1),
				tj.ClaudeUserBlocksJSON(tj.Blocks(
					tj.ToolResultBlock("t1", "ok", false),
				), ts5),
				tj.ClaudeAssistantJSON("done", ts10),
			},
			want: ExecutionBreakdown{
				AgentMs:       1000 + 5000,
				ToolMs:        4000,
				ToolBreakdown: map[string]int64{"Bash": 4000},
			},
		},
		{
			name: "assistant to assistant gap counts",
			lines: []string{
				tj.ClaudeUserJSON("go", ts0),
				tj.ClaudeAssistantJSON("a", ts1),
				tj.ClaudeAssistantJSON("b", ts5),
			},
			want: ExecutionBreakdown{
				AgentMs:       5000,
				ToolBreakdown: map[string]int64{},
			},
		},
		{
			name: "system events are skipped",
			lines: []string{
				tj.ClaudeUserJSON("go", ts0),
				tj.ClaudeSystemJSON("info", ts2),
				tj.ClaudeAssistantJSON("a", ts5),
			},
			want: ExecutionBreakdown{
				AgentMs:       5000,
				ToolBreakdown: map[string]int64{},
			},
		},
		{
			name: "turn durations override gaps",
			lines: []string{
				tj.ClaudeUserJSON("go", ts0),
				tj.ClaudeAssistantJSON("a", ts10),
				tj.ClaudeTurnDurationJSON(1500, ts10),
				tj.ClaudeTurnDurationJSON(500, ts10),
			},
			want: ExecutionBreakdown{
				AgentMs:       2000,
				ToolBreakdown: map[string]int64{},
			},
		},
		{
			name: "duplicate result adds nothing",
			lines: []string{
				tj.ClaudeAssistantJSON(tj.Blocks(
					tj.ToolUseBlock("t1", "Read", nil),
				), ts0),
				tj.ClaudeUserBlocksJSON(tj.Blocks(
					tj.ToolResultBlock("t1", "x", false),
				), ts2),
				tj.ClaudeUserBlocksJSON(tj.Blocks(
					tj.ToolResultBlock("t1", "x", false),
				), ts10),
			},
			want: ExecutionBreakdown{
				ToolMs:        2000,
				ToolBreakdown: map[string]int64{"Read": 2000},
			},
		},
		{
			name: "question prompts are not tool time",
			lines: []string{
				tj.ClaudeAssistantJSON(tj.Blocks(
					tj.ToolUseBlock("q1", "AskUserQuestion", nil),
				), ts0),
				tj.ClaudeUserBlocksJSON(tj.Blocks(
					tj.ToolResultBlock("q1", "yes", false),
				), ts30),
			},
			want: ExecutionBreakdown{ToolBreakdown: map[string]int64{}},
		},
		{
			name: "unmatched result is ignored",
			lines: []string{
				tj.ClaudeUserBlocksJSON(tj.Blocks(
					tj.ToolResultBlock("nope", "x", false),
				), ts2),
			},
			want: ExecutionBreakdown{ToolBreakdown: map[string]int64{}},
		},
		{
			name: "missing timestamps skip contributions",
			lines: []string{
				`{"type":"user","message":{"content":"hi"}}`,
				tj.ClaudeAssistantJSON("a", ts5),
				`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"t9","name":"Bash","input":{}}]}}`,
				tj.ClaudeUserBlocksJSON(tj.Blocks(
					tj.ToolResultBlock("t9", "x", false),
				), ts10),
			},
			want: ExecutionBreakdown{ToolBreakdown: map[string]int64{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Execution(decodeAll(t, tt.lines...))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Execution mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecutionIdempotent(t *testing.T) {
	events := decodeAll(t,
		tj.ClaudeUserJSON("go", ts0),
		tj.ClaudeAssistantJSON(tj.Blocks(
			tj.ToolUseBlock("t1", "Grep", nil),
		), ts1),
		tj.ClaudeUserBlocksJSON(tj.Blocks(
			tj.ToolResultBlock("t1", "x", false),
		), ts2),
	)
	assert.Equal(t, Execution(events), Execution(events))
}
