package main

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wesm/subtle/internal/analytics"
	"github.com/wesm/subtle/internal/catalog"
	"github.com/wesm/subtle/internal/config"
)

var (
	colorBlue      = lipgloss.Color("#58a6ff")
	colorTextMuted = lipgloss.Color("#6e7681")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

const columnGap = 2

// sessionLine is one rendered row of the sessions table.
type sessionLine struct {
	id       string
	project  string
	started  string
	duration string
	tokens   string
	commits  string
	errors   string
}

func (l sessionLine) cells() []string {
	return []string{
		l.id, l.project, l.started, l.duration,
		l.tokens, l.commits, l.errors,
	}
}

var sessionHeaders = []string{
	"ID", "PROJECT", "STARTED", "DURATION",
	"TOKENS IN/OUT", "COMMITS", "ERRORS",
}

func newSessionsCmd() *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent sessions",
		Long: `List the most recently modified sessions with their summary.

Examples:
  subtle sessions          # Last 10 sessions
  subtle sessions -n 25    # Last 25 sessions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadMinimal()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runSessions(cmd.OutOrStdout(), cfg.ProjectsDir, last)
		},
	}
	cmd.Flags().IntVarP(&last, "last", "n", 10, "Number of sessions to show")
	return cmd
}

func runSessions(w io.Writer, projectsDir string, n int) error {
	if n <= 0 {
		return fmt.Errorf("invalid -n %d: must be positive", n)
	}
	sessions, err := catalog.List(projectsDir)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	sessions = catalog.Limit(sessions, n)
	if len(sessions) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No sessions found"))
		return nil
	}

	lines := make([]sessionLine, 0, len(sessions))
	for _, s := range sessions {
		events, err := s.Events()
		if err != nil {
			log.Printf("skipping session %s: %v", s.ID, err)
			continue
		}
		lines = append(lines, newSessionLine(s, analytics.Summarize(events)))
	}
	renderTable(w, lines)
	return nil
}

func newSessionLine(s catalog.Session, sum analytics.Summary) sessionLine {
	line := sessionLine{
		id:       s.ID,
		project:  s.ProjectName(),
		started:  "-",
		duration: "-",
		tokens:   fmt.Sprintf("%d / %d", sum.InputTokens, sum.OutputTokens),
		commits:  fmt.Sprint(sum.CommitCount()),
		errors:   fmt.Sprint(sum.ErrorCount),
	}
	if sum.HasTimes() {
		line.started = sum.StartTime.Local().Format("2006-01-02 15:04")
	}
	if d, ok := sum.Duration(); ok {
		line.duration = d.Round(time.Second).String()
	}
	return line
}

// renderTable pads columns by their display width so styled
// headers stay aligned with plain cells.
func renderTable(w io.Writer, lines []sessionLine) {
	widths := make([]int, len(sessionHeaders))
	for i, h := range sessionHeaders {
		widths[i] = lipgloss.Width(h)
	}
	for _, l := range lines {
		for i, c := range l.cells() {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	row := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style.Width(widths[i] + columnGap).Render(c)
		}
		return strings.TrimRight(strings.Join(parts, ""), " ")
	}

	fmt.Fprintln(w, row(sessionHeaders, headerStyle))
	plain := lipgloss.NewStyle()
	for _, l := range lines {
		fmt.Fprintln(w, row(l.cells(), plain))
	}
}
