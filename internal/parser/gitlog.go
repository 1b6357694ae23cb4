package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// commitRe matches git commit output such as
	// "[main abc1234] feat: add login" or
	// "[main (root-commit) abc1234] init".
	commitRe = regexp.MustCompile(
		`\[[^\]\n]+ ([0-9a-fA-F]{7,})\] ([^\n]+)`,
	)

	// diffStatRe matches the git shortstat summary line.
	diffStatRe = regexp.MustCompile(
		`(\d+) files? changed` +
			`(?:, (\d+) insertions?\(\+\))?` +
			`(?:, (\d+) deletions?\(-\))?`,
	)
)

const (
	rejectionPrefix      = "The user doesn't want to proceed"
	toolErrorMarker      = "<tool_use_error>"
	commandFailurePrefix = "Exit code"
)

// CommitInfo identifies a commit made during the session.
type CommitInfo struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
}

// Commit returns the first commit announced by a successful
// tool result on this event.
func (e Event) Commit() (CommitInfo, bool) {
	for _, tr := range e.ToolResults() {
		if tr.IsError {
			continue
		}
		m := commitRe.FindStringSubmatch(tr.Text())
		if m == nil {
			continue
		}
		return CommitInfo{
			Hash:    m[1],
			Message: strings.TrimSpace(m[2]),
		}, true
	}
	return CommitInfo{}, false
}

// IsCommit reports whether the event announces a commit.
func (e Event) IsCommit() bool {
	_, ok := e.Commit()
	return ok
}

// GitDiffLines returns insertions and deletions from the first
// "N files changed" summary in a successful tool result.
// Missing clauses count as zero.
func (e Event) GitDiffLines() (LineDelta, bool) {
	for _, tr := range e.ToolResults() {
		if tr.IsError {
			continue
		}
		m := diffStatRe.FindStringSubmatch(tr.Text())
		if m == nil {
			continue
		}
		return LineDelta{
			Added:   atoiOrZero(m[2]),
			Removed: atoiOrZero(m[3]),
		}, true
	}
	return LineDelta{}, false
}

// IsRejection reports whether the user declined a tool call.
func (e Event) IsRejection() bool {
	return e.anyErrorResult(func(text string) bool {
		return strings.HasPrefix(text, rejectionPrefix)
	})
}

// IsToolError reports whether a tool call failed inside the
// tool itself (bad arguments, missing file, ...).
func (e Event) IsToolError() bool {
	return e.anyErrorResult(func(text string) bool {
		return strings.Contains(text, toolErrorMarker)
	})
}

// IsCommandFailure reports whether a shell command exited
// with a non-zero status.
func (e Event) IsCommandFailure() bool {
	return e.anyErrorResult(func(text string) bool {
		return strings.HasPrefix(text, commandFailurePrefix)
	})
}

func (e Event) anyErrorResult(match func(string) bool) bool {
	for _, tr := range e.ToolResults() {
		if tr.IsError && match(strings.TrimSpace(tr.Text())) {
			return true
		}
	}
	return false
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
