package analytics

import (
	"sort"

	"github.com/wesm/subtle/internal/parser"
	"github.com/wesm/subtle/internal/timeutil"
)

// kindOrder sorts breakdown entries: tools first, then
// assistant, then user.
var kindOrder = map[parser.CategoryKind]int{
	parser.CategoryTool:      0,
	parser.CategoryAssistant: 1,
	parser.CategoryUser:      2,
}

// BreakdownEntry is one category's tally.
type BreakdownEntry struct {
	Category string              `json:"category"`
	Count    int                 `json:"count"`
	Kind     parser.CategoryKind `json:"type"`
	// ToolSeconds is set for tool categories only.
	ToolSeconds *float64 `json:"tool_time_seconds,omitempty"`
}

// Breakdown is the categorized message count for a session.
type Breakdown struct {
	Entries []BreakdownEntry `json:"breakdown"`
	Total   int              `json:"total"`
}

// MessageBreakdown counts events per (category, kind), attaches
// tool time to tool categories and orders the result by kind,
// then by descending count. Ties keep first-seen order.
func MessageBreakdown(events []parser.Event) Breakdown {
	toolMs := Execution(events).ToolBreakdown

	index := make(map[parser.MessageCategory]int)
	entries := []BreakdownEntry{}
	for _, e := range events {
		cat, ok := e.Category()
		if !ok {
			continue
		}
		i, seen := index[cat]
		if !seen {
			i = len(entries)
			index[cat] = i
			entries = append(entries, BreakdownEntry{
				Category: cat.Category,
				Kind:     cat.Kind,
			})
		}
		entries[i].Count++
	}

	total := 0
	for i := range entries {
		total += entries[i].Count
		if entries[i].Kind == parser.CategoryTool {
			secs := timeutil.Seconds(toolMs[entries[i].Category])
			entries[i].ToolSeconds = &secs
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		ka, kb := kindOrder[entries[a].Kind], kindOrder[entries[b].Kind]
		if ka != kb {
			return ka < kb
		}
		return entries[a].Count > entries[b].Count
	})

	return Breakdown{Entries: entries, Total: total}
}
