package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/wesm/subtle/internal/analytics"
	"github.com/wesm/subtle/internal/catalog"
	"github.com/wesm/subtle/internal/config"
	"github.com/wesm/subtle/internal/parser"
	"github.com/wesm/subtle/internal/timeutil"
)

// sessionSummary is one row of the session listing.
type sessionSummary struct {
	ID              string            `json:"id"`
	ProjectName     string            `json:"project_name"`
	ProjectPath     string            `json:"project_path"`
	StartTime       *string           `json:"start_time"`
	EndTime         *string           `json:"end_time"`
	DurationSeconds *float64          `json:"duration_seconds"`
	AgentSeconds    float64           `json:"agent_time_seconds"`
	ToolSeconds     float64           `json:"tool_time_seconds"`
	InputTokens     int64             `json:"input_tokens"`
	OutputTokens    int64             `json:"output_tokens"`
	CommitCount     int               `json:"commit_count"`
	ErrorCount      int               `json:"error_count"`
	ToolLOC         parser.LineDelta  `json:"tool_loc"`
	GitLOC          *parser.LineDelta `json:"git_loc"`
	ModifiedAt      string            `json:"modified_at"`
}

// sessionDetail adds the per-tool time split and the commit
// list to the summary.
type sessionDetail struct {
	sessionSummary
	ToolBreakdown map[string]float64  `json:"tool_breakdown_seconds"`
	Commits       []parser.CommitInfo `json:"commits"`
	MessageCount  int                 `json:"message_count"`
}

type sessionListResponse struct {
	Sessions []sessionSummary `json:"sessions"`
	Total    int              `json:"total"`
}

type messageListResponse struct {
	SessionID string                 `json:"session_id"`
	Messages  []analytics.MessageRow `json:"messages"`
	Count     int                    `json:"count"`
}

func summarize(s catalog.Session, events []parser.Event) sessionSummary {
	sum := analytics.Summarize(events)
	out := sessionSummary{
		ID:           s.ID,
		ProjectName:  s.ProjectName(),
		ProjectPath:  s.ProjectPath(),
		StartTime:    timeutil.Ptr(sum.StartTime),
		EndTime:      timeutil.Ptr(sum.EndTime),
		AgentSeconds: timeutil.Seconds(sum.Execution.AgentMs),
		ToolSeconds:  timeutil.Seconds(sum.Execution.ToolMs),
		InputTokens:  sum.InputTokens,
		OutputTokens: sum.OutputTokens,
		CommitCount:  sum.CommitCount(),
		ErrorCount:   sum.ErrorCount,
		ToolLOC:      sum.ToolLOC,
		GitLOC:       sum.GitLOC,
		ModifiedAt:   timeutil.Format(s.ModTime),
	}
	if d, ok := sum.Duration(); ok {
		secs := d.Seconds()
		out.DurationSeconds = &secs
	}
	return out
}

func detail(s catalog.Session, events []parser.Event) sessionDetail {
	sum := analytics.Summarize(events)
	breakdown := make(map[string]float64, len(sum.Execution.ToolBreakdown))
	for name, ms := range sum.Execution.ToolBreakdown {
		breakdown[name] = timeutil.Seconds(ms)
	}
	commits := sum.Commits
	if commits == nil {
		commits = []parser.CommitInfo{}
	}
	return sessionDetail{
		sessionSummary: summarize(s, events),
		ToolBreakdown:  breakdown,
		Commits:        commits,
		MessageCount:   len(events),
	}
}

// listSummaries summarizes the limit most recently modified
// sessions. Sessions whose log cannot be read are skipped.
func (s *Server) listSummaries(
	ctx context.Context, limit int,
) ([]sessionSummary, error) {
	sessions, err := catalog.List(s.projectsDir())
	if err != nil {
		return nil, err
	}
	sessions = catalog.Limit(sessions, limit)

	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, err := sess.Events()
		if err != nil {
			log.Printf("skipping session %s: %v", sess.ID, err)
			continue
		}
		out = append(out, summarize(sess, events))
	}
	return out, nil
}

// sessionLimit reads ?limit= against the configured default.
func (s *Server) sessionLimit(
	w http.ResponseWriter, r *http.Request,
) (int, bool) {
	limit, ok := parseIntParam(w, r, "limit")
	if !ok {
		return 0, false
	}
	return clampLimit(
		limit, s.cfg.SessionLimit, config.MaxSessionLimit,
	), true
}

// loadSession resolves the {id} path value and reads its
// events, writing the error response itself when it fails.
func (s *Server) loadSession(
	w http.ResponseWriter, r *http.Request,
) (catalog.Session, []parser.Event, bool) {
	if handleContextError(w, r.Context().Err()) {
		return catalog.Session{}, nil, false
	}
	sess, err := catalog.Find(s.projectsDir(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return catalog.Session{}, nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return catalog.Session{}, nil, false
	}
	events, err := sess.Events()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return catalog.Session{}, nil, false
	}
	return sess, events, true
}

func (s *Server) handleListSessions(
	w http.ResponseWriter, r *http.Request,
) {
	limit, ok := s.sessionLimit(w, r)
	if !ok {
		return
	}
	if handleContextError(w, r.Context().Err()) {
		return
	}

	summaries, err := s.listSummaries(r.Context(), limit)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sessionListResponse{
		Sessions: summaries,
		Total:    len(summaries),
	})
}

func (s *Server) handleGetSession(
	w http.ResponseWriter, r *http.Request,
) {
	sess, events, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, detail(sess, events))
}

func (s *Server) handleGetMessages(
	w http.ResponseWriter, r *http.Request,
) {
	sess, events, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	rows := analytics.Messages(events)
	writeJSON(w, http.StatusOK, messageListResponse{
		SessionID: sess.ID,
		Messages:  rows,
		Count:     len(rows),
	})
}

func (s *Server) handleMessageBreakdown(
	w http.ResponseWriter, r *http.Request,
) {
	_, events, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.MessageBreakdown(events))
}

// handleGetMessage returns one record exactly as logged. An
// index that does not parse addresses no message and is a 404.
func (s *Server) handleGetMessage(
	w http.ResponseWriter, r *http.Request,
) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	_, events, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	raw, err := analytics.RawMessage(events, index)
	if err != nil {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		log.Printf("writing message: %v", err)
	}
}
