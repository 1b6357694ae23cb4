// Package analytics derives session-level metrics from the
// decoded events of one session log: tool and agent time,
// token and line-of-code totals, commits, errors and the
// message-type breakdown. Every function is a pure pass over
// its input; nothing is cached between calls.
package analytics

import (
	"time"

	"github.com/wesm/subtle/internal/parser"
)

// ExecutionBreakdown splits session time into agent thinking
// and tool execution.
type ExecutionBreakdown struct {
	AgentMs       int64            `json:"agent_ms"`
	ToolMs        int64            `json:"tool_ms"`
	ToolBreakdown map[string]int64 `json:"tool_breakdown"`
}

// openCall is a tool_use still waiting for its result.
type openCall struct {
	name  string
	start time.Time
}

// toolSpan is one paired call and result.
type toolSpan struct {
	name string
	ms   int64
}

// toolPairer matches tool results to earlier tool uses by
// call id. Each id is closed at most once.
type toolPairer struct {
	open map[string]openCall
}

func newToolPairer() *toolPairer {
	return &toolPairer{open: make(map[string]openCall)}
}

// observe registers the event's tool uses and closes any
// calls its tool results answer. Tool uses without an id or
// without an event timestamp are not tracked, and neither are
// tools whose elapsed time is human wait time.
func (p *toolPairer) observe(e parser.Event) []toolSpan {
	ts, ok := e.Timestamp()
	if !ok {
		return nil
	}
	for _, tu := range e.ToolUses() {
		if tu.ID == "" || parser.IsTimingExcluded(tu.Name) {
			continue
		}
		p.open[tu.ID] = openCall{name: tu.Name, start: ts}
	}

	var spans []toolSpan
	for _, tr := range e.ToolResults() {
		call, ok := p.open[tr.ToolUseID]
		if !ok {
			continue
		}
		delete(p.open, tr.ToolUseID)
		spans = append(spans, toolSpan{
			name: call.name,
			ms:   ts.Sub(call.start).Milliseconds(),
		})
	}
	return spans
}

// Execution computes tool time per tool and agent time in a
// single forward pass. Agent time comes from the recorder's
// turn_duration records when the session has any, and from
// inter-turn gaps otherwise.
func Execution(events []parser.Event) ExecutionBreakdown {
	out := ExecutionBreakdown{ToolBreakdown: make(map[string]int64)}
	pairer := newToolPairer()

	var (
		gapMs       int64
		turnMs      int64
		hasTurns    bool
		prevTurn    time.Time
		hasPrevTurn bool
	)
	for _, e := range events {
		for _, span := range pairer.observe(e) {
			out.ToolBreakdown[span.name] += span.ms
			out.ToolMs += span.ms
		}

		if ms, ok := e.TurnDuration(); ok {
			turnMs += ms
			hasTurns = true
			continue
		}

		kind := e.Kind()
		if kind != parser.KindUser && kind != parser.KindAssistant {
			continue
		}
		ts, ok := e.Timestamp()
		if !ok {
			continue
		}
		if kind == parser.KindAssistant && hasPrevTurn {
			gapMs += ts.Sub(prevTurn).Milliseconds()
		}
		prevTurn, hasPrevTurn = ts, true
	}

	out.AgentMs = gapMs
	if hasTurns {
		out.AgentMs = turnMs
	}
	return out
}
