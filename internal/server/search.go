package server

import (
	"net/http"
	"strings"

	"github.com/wesm/subtle/internal/catalog"
	"github.com/wesm/subtle/internal/search"
)

type sessionSearchResponse struct {
	Query      string   `json:"query"`
	SessionIDs []string `json:"matching_session_ids"`
	Count      int      `json:"count"`
}

type messageSearchResponse struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Indices   []int  `json:"matching_indices"`
	Count     int    `json:"count"`
}

// queryParam returns the trimmed q parameter, writing a 400
// when it is empty.
func queryParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return "", false
	}
	return query, true
}

func (s *Server) handleSearchSessions(
	w http.ResponseWriter, r *http.Request,
) {
	query, ok := queryParam(w, r)
	if !ok {
		return
	}
	limit, ok := s.sessionLimit(w, r)
	if !ok {
		return
	}

	sessions, err := catalog.List(s.projectsDir())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sessions = catalog.Limit(sessions, limit)

	ids, err := search.Sessions(
		r.Context(), sessions, query, s.cfg.SearchWorkers,
	)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.RecordSearch(r.Context(), "sessions", len(ids))

	writeJSON(w, http.StatusOK, sessionSearchResponse{
		Query:      query,
		SessionIDs: ids,
		Count:      len(ids),
	})
}

func (s *Server) handleSearchMessages(
	w http.ResponseWriter, r *http.Request,
) {
	query, ok := queryParam(w, r)
	if !ok {
		return
	}
	sess, events, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	indices := search.Messages(events, query)
	s.metrics.RecordSearch(r.Context(), "messages", len(indices))

	writeJSON(w, http.StatusOK, messageSearchResponse{
		Query:     query,
		SessionID: sess.ID,
		Indices:   indices,
		Count:     len(indices),
	})
}
