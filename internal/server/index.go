package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
)

const indexStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%}
th,td{text-align:left;padding:.35rem .6rem;border-bottom:1px solid #ddd}
th{background:#f5f5f5}
td.num{text-align:right;font-variant-numeric:tabular-nums}
.muted{color:#888}`

// indexData is what the index page renders.
type indexData struct {
	Version  string
	Sessions []sessionSummary
}

// indexPage renders the session table.
func indexPage(data indexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!DOCTYPE html><html lang=\"en\"><head>"+
			"<meta charset=\"utf-8\"><title>subtle</title><style>"+indexStyle+
			"</style></head><body><h1>Sessions</h1>"); err != nil {
			return err
		}
		if len(data.Sessions) == 0 {
			if _, err := io.WriteString(w,
				"<p class=\"muted\">No sessions found.</p>"); err != nil {
				return err
			}
		} else if err := sessionTable(data.Sessions).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w,
			"<footer class=\"muted\">subtle %s</footer></body></html>",
			templ.EscapeString(data.Version))
		return err
	})
}

func sessionTable(sessions []sessionSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<table><thead><tr>"+
			"<th>Session</th><th>Project</th><th>Started</th>"+
			"<th>Duration</th><th>Tokens in/out</th><th>Commits</th>"+
			"<th>Errors</th></tr></thead><tbody>"); err != nil {
			return err
		}
		for _, s := range sessions {
			if err := sessionRow(s).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</tbody></table>")
		return err
	})
}

func sessionRow(s sessionSummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		href := templ.URL("/api/sessions/" + s.ID + "/messages")
		_, err := fmt.Fprintf(w,
			"<tr><td><a href=\"%s\">%s</a></td>"+
				"<td title=\"%s\">%s</td><td>%s</td>"+
				"<td class=\"num\">%s</td><td class=\"num\">%d / %d</td>"+
				"<td class=\"num\">%d</td><td class=\"num\">%d</td></tr>",
			templ.EscapeString(string(href)),
			templ.EscapeString(s.ID),
			templ.EscapeString(s.ProjectPath),
			templ.EscapeString(s.ProjectName),
			templ.EscapeString(formatStart(s.StartTime)),
			formatDuration(s.DurationSeconds),
			s.InputTokens, s.OutputTokens,
			s.CommitCount, s.ErrorCount,
		)
		return err
	})
}

func formatStart(ts *string) string {
	if ts == nil {
		return "-"
	}
	t, err := time.Parse(time.RFC3339Nano, *ts)
	if err != nil {
		return *ts
	}
	return t.Format("Jan 2, 15:04")
}

func formatDuration(secs *float64) string {
	if secs == nil {
		return "-"
	}
	return (time.Duration(*secs * float64(time.Second))).
		Round(time.Second).String()
}

func (s *Server) handleIndex(
	w http.ResponseWriter, r *http.Request,
) {
	summaries, err := s.listSummaries(r.Context(), s.cfg.SessionLimit)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	page := indexPage(indexData{
		Version:  s.version.Version,
		Sessions: summaries,
	})
	templ.Handler(page).ServeHTTP(w, r)
}
