package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wesm/subtle/internal/testjsonl"
)

func resultEvent(t *testing.T, content string, isError bool) Event {
	t.Helper()
	return userWith(t, testjsonl.ToolResultBlock("t1", content, isError))
}

func TestCommit(t *testing.T) {
	t.Run("detects commit output", func(t *testing.T) {
		e := resultEvent(t, "[main abc1234] feat: add login feature\n 2 files changed", false)
		info, ok := e.Commit()
		assert.True(t, ok)
		assert.Equal(t, CommitInfo{Hash: "abc1234", Message: "feat: add login feature"}, info)
		assert.True(t, e.IsCommit())
	})
	t.Run("error result is not a commit", func(t *testing.T) {
		e := resultEvent(t, "[main abc1234] feat: add login feature\n 2 files changed", true)
		_, ok := e.Commit()
		assert.False(t, ok)
		assert.False(t, e.IsCommit())
	})
	t.Run("root commit", func(t *testing.T) {
		info, ok := resultEvent(t, "[main (root-commit) 0a1b2c3d] Initial commit", false).Commit()
		assert.True(t, ok)
		assert.Equal(t, "0a1b2c3d", info.Hash)
		assert.Equal(t, "Initial commit", info.Message)
	})
	t.Run("short hash ignored", func(t *testing.T) {
		_, ok := resultEvent(t, "[main abc12] too short", false).Commit()
		assert.False(t, ok)
	})
	t.Run("first match wins", func(t *testing.T) {
		e := userWith(t,
			testjsonl.ToolResultBlock("a", "nothing here", false),
			testjsonl.ToolResultBlock("b", "[dev 1111111] first", false),
			testjsonl.ToolResultBlock("c", "[dev 2222222] second", false),
		)
		info, ok := e.Commit()
		assert.True(t, ok)
		assert.Equal(t, "1111111", info.Hash)
	})
	t.Run("string content without tool result", func(t *testing.T) {
		e := mustDecode(t, testjsonl.ClaudeUserJSON("[main abc1234] typed by user", tsZero))
		assert.False(t, e.IsCommit())
	})
}

func TestGitDiffLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    LineDelta
		wantOK  bool
	}{
		{"full stat", " 3 files changed, 10 insertions(+), 4 deletions(-)", LineDelta{Added: 10, Removed: 4}, true},
		{"singular", " 1 file changed, 1 insertion(+)", LineDelta{Added: 1}, true},
		{"deletions only", " 2 files changed, 7 deletions(-)", LineDelta{Removed: 7}, true},
		{"no clauses", " 2 files changed", LineDelta{}, true},
		{"with commit header", "[main abc1234] msg\n 1 file changed, 2 insertions(+), 1 deletion(-)", LineDelta{Added: 2, Removed: 1}, true},
		{"no stat", "nothing to commit", LineDelta{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resultEvent(t, tt.content, false).GitDiffLines()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResultFlags(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		isError    bool
		rejection  bool
		toolError  bool
		cmdFailure bool
	}{
		{
			name:      "rejection",
			content:   "The user doesn't want to proceed with this tool use.",
			isError:   true,
			rejection: true,
		},
		{
			name:      "tool error",
			content:   "<tool_use_error>File does not exist.</tool_use_error>",
			isError:   true,
			toolError: true,
		},
		{
			name:       "command failure",
			content:    "Exit code 1\nFAIL",
			isError:    true,
			cmdFailure: true,
		},
		{
			name:    "markers ignored without error flag",
			content: "Exit code 1 <tool_use_error>",
		},
		{
			name:    "plain error",
			content: "something else",
			isError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := resultEvent(t, tt.content, tt.isError)
			assert.Equal(t, tt.rejection, e.IsRejection(), "rejection")
			assert.Equal(t, tt.toolError, e.IsToolError(), "tool error")
			assert.Equal(t, tt.cmdFailure, e.IsCommandFailure(), "command failure")
		})
	}
}
