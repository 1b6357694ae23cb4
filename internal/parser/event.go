package parser

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wesm/subtle/internal/timeutil"
)

// Kind values seen in the "type" field of a session record.
// The set is open; unknown values pass through unchanged.
const (
	KindUser      = "user"
	KindAssistant = "assistant"
	KindSystem    = "system"
	KindSnapshot  = "file-history-snapshot"
	KindUnknown   = "unknown"
)

// Content block types inside message.content.
const (
	blockText       = "text"
	blockThinking   = "thinking"
	blockToolUse    = "tool_use"
	blockToolResult = "tool_result"
)

// Event is one decoded record from a session log. It keeps the
// original line so the record can be returned verbatim; every
// facet is derived from it on demand.
type Event struct {
	raw   string
	kind  string
	ts    time.Time
	hasTS bool
	msg   gjson.Result
}

// Decode parses one JSONL line. Blank lines, invalid JSON and
// JSON values that are not objects yield ok == false.
func Decode(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}
	if !gjson.Valid(line) {
		return Event{}, false
	}
	root := gjson.Parse(line)
	if !root.IsObject() {
		return Event{}, false
	}

	e := Event{
		raw:  line,
		kind: KindUnknown,
		msg:  root.Get("message"),
	}
	if k := root.Get("type"); k.Exists() {
		e.kind = k.String()
	}
	e.ts, e.hasTS = timeutil.Parse(root.Get("timestamp").Str)
	return e, true
}

// Raw returns the record exactly as it appeared in the log.
func (e Event) Raw() json.RawMessage {
	return json.RawMessage(e.raw)
}

// Get reads an arbitrary top-level path from the record.
func (e Event) Get(path string) gjson.Result {
	return gjson.Get(e.raw, path)
}

// Kind returns the record type ("user", "assistant", ...), or
// "unknown" when the record has none.
func (e Event) Kind() string {
	return e.kind
}

// Timestamp returns the record time in UTC. ok is false when
// the record has no parsable timestamp.
func (e Event) Timestamp() (time.Time, bool) {
	return e.ts, e.hasTS
}

// Model returns message.model when present.
func (e Event) Model() (string, bool) {
	m := e.msg.Get("model")
	if m.Type != gjson.String {
		return "", false
	}
	return m.Str, true
}

func (e Event) usage() (gjson.Result, bool) {
	u := e.msg.Get("usage")
	if !u.IsObject() || len(u.Map()) == 0 {
		return gjson.Result{}, false
	}
	return u, true
}

// InputTokens returns input plus cache-creation plus
// cache-read tokens. ok is false when the record carries no
// usage object, which is distinct from a usage of zero.
func (e Event) InputTokens() (int64, bool) {
	u, ok := e.usage()
	if !ok {
		return 0, false
	}
	return u.Get("input_tokens").Int() +
		u.Get("cache_creation_input_tokens").Int() +
		u.Get("cache_read_input_tokens").Int(), true
}

// OutputTokens returns usage.output_tokens, with the same
// absence rule as InputTokens.
func (e Event) OutputTokens() (int64, bool) {
	u, ok := e.usage()
	if !ok {
		return 0, false
	}
	return u.Get("output_tokens").Int(), true
}

// Content returns message.content, which is either a string or
// an array of blocks.
func (e Event) Content() gjson.Result {
	return e.msg.Get("content")
}

// blocks calls fn for every object inside an array content.
// String content has no blocks.
func (e Event) blocks(fn func(block gjson.Result) bool) {
	content := e.Content()
	if !content.IsArray() {
		return
	}
	content.ForEach(func(_, block gjson.Result) bool {
		if !block.IsObject() {
			return true
		}
		return fn(block)
	})
}

// TurnDuration returns durationMs of a system turn_duration
// record emitted by the recording process.
func (e Event) TurnDuration() (int64, bool) {
	if e.kind != KindSystem {
		return 0, false
	}
	if e.Get("subtype").Str != "turn_duration" {
		return 0, false
	}
	return e.Get("durationMs").Int(), true
}
