// Package search implements case-insensitive substring search
// over session messages.
package search

import (
	"context"
	"log"
	"runtime"
	"strings"

	"github.com/wesm/subtle/internal/catalog"
	"github.com/wesm/subtle/internal/parser"
)

const maxWorkers = 8

// matcher holds a lowercased query.
type matcher struct {
	needle string
}

func newMatcher(query string) matcher {
	return matcher{needle: strings.ToLower(query)}
}

func (m matcher) match(e parser.Event) bool {
	return strings.Contains(strings.ToLower(e.SearchText()), m.needle)
}

// Messages returns the indices of events whose searchable text
// contains query.
func Messages(events []parser.Event, query string) []int {
	m := newMatcher(query)
	indices := []int{}
	for i, e := range events {
		if m.match(e) {
			indices = append(indices, i)
		}
	}
	return indices
}

// sessionHasMatch streams a session file and stops at the first
// matching event.
func sessionHasMatch(path string, m matcher) (bool, error) {
	found := false
	err := parser.ScanFile(path, func(_ int, e parser.Event) bool {
		if m.match(e) {
			found = true
			return false
		}
		return true
	})
	return found, err
}

type searchJob struct {
	idx     int
	matched bool
}

// Sessions returns the ids of sessions with at least one
// matching message, in the order they were given. Files are
// scanned by a bounded pool of workers; workers <= 0 picks a
// default from the CPU count. Unreadable files are skipped.
func Sessions(
	ctx context.Context, sessions []catalog.Session,
	query string, workers int,
) ([]string, error) {
	if workers <= 0 {
		workers = min(max(runtime.NumCPU(), 2), maxWorkers)
	}
	workers = min(workers, max(len(sessions), 1))
	m := newMatcher(query)

	jobs := make(chan int, len(sessions))
	results := make(chan searchJob, len(sessions))

	for range workers {
		go func() {
			for idx := range jobs {
				if ctx.Err() != nil {
					results <- searchJob{idx: idx}
					continue
				}
				ok, err := sessionHasMatch(sessions[idx].Path, m)
				if err != nil {
					log.Printf("search: %v", err)
				}
				results <- searchJob{idx: idx, matched: ok}
			}
		}()
	}

	for i := range sessions {
		jobs <- i
	}
	close(jobs)

	matched := make([]bool, len(sessions))
	for range sessions {
		r := <-results
		matched[r.idx] = r.matched
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := []string{}
	for i, s := range sessions {
		if matched[i] {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}
