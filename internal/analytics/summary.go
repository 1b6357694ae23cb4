package analytics

import (
	"time"

	"github.com/wesm/subtle/internal/parser"
)

// Summary holds the derived attributes of one session.
type Summary struct {
	StartTime    time.Time
	EndTime      time.Time
	InputTokens  int64
	OutputTokens int64
	Commits      []parser.CommitInfo
	ToolLOC      parser.LineDelta
	// GitLOC is nil when no event carried a git diff summary,
	// which differs from a summary that netted to zero.
	GitLOC     *parser.LineDelta
	ErrorCount int
	Execution  ExecutionBreakdown
}

// HasTimes reports whether any event carried a timestamp.
func (s Summary) HasTimes() bool {
	return !s.StartTime.IsZero()
}

// Duration is EndTime - StartTime. ok is false for sessions
// without timestamps.
func (s Summary) Duration() (time.Duration, bool) {
	if !s.HasTimes() {
		return 0, false
	}
	return s.EndTime.Sub(s.StartTime), true
}

// CommitCount returns the number of detected commits.
func (s Summary) CommitCount() int {
	return len(s.Commits)
}

// Summarize aggregates a session's events.
func Summarize(events []parser.Event) Summary {
	var (
		s      Summary
		gitLOC parser.LineDelta
		hasGit bool
	)
	for _, e := range events {
		if ts, ok := e.Timestamp(); ok {
			if s.StartTime.IsZero() || ts.Before(s.StartTime) {
				s.StartTime = ts
			}
			if s.EndTime.IsZero() || ts.After(s.EndTime) {
				s.EndTime = ts
			}
		}

		if n, ok := e.InputTokens(); ok {
			s.InputTokens += n
		}
		if n, ok := e.OutputTokens(); ok {
			s.OutputTokens += n
		}

		if c, ok := e.Commit(); ok {
			s.Commits = append(s.Commits, c)
		}

		if d, ok := e.EditLines(); ok {
			s.ToolLOC = s.ToolLOC.Add(d)
		}
		if n, ok := e.WriteLines(); ok {
			s.ToolLOC.Added += n
		}

		if d, ok := e.GitDiffLines(); ok {
			gitLOC = gitLOC.Add(d)
			hasGit = true
		}

		if e.IsToolError() || e.IsCommandFailure() {
			s.ErrorCount++
		}
	}
	if hasGit {
		s.GitLOC = &gitLOC
	}
	s.Execution = Execution(events)
	return s
}
