package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/wesm/subtle/internal/server"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const (
	logFileName     = "debug.log"
	maxLogFileBytes = 10 << 20
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "subtle",
		Short: "Local dashboard for Claude Code session logs",
		Long: `subtle reads the JSONL session logs Claude Code writes under
~/.claude/projects and serves per-session analytics (duration, agent
and tool time, tokens, commits, lines changed) as a JSON API and a
small HTML page.

Environment variables:
  CLAUDE_PROJECTS_DIR          Claude Code projects directory
  SUBTLE_DATA_DIR              Data directory (config.json, debug.log)
  PORT                         Port to listen on
  SUBTLE_BROWSER               Command used to open the browser
  OTEL_EXPORTER_OTLP_ENDPOINT  OTLP/gRPC metrics endpoint

Data is stored in ~/.subtle/ by default.`,
		Version:       displayVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := newServeCmd()
	root.AddCommand(
		serve,
		newSessionsCmd(),
		newVersionCmd(),
		newConfigCmd(),
	)

	// Bare "subtle" behaves like "subtle serve".
	root.Flags().AddFlagSet(serve.Flags())
	root.RunE = serve.RunE
	return root
}

// canonicalVersion normalizes a release tag to its semver
// canonical form. Dev builds and other non-semver strings are
// returned unchanged.
func canonicalVersion(v string) string {
	if semver.IsValid(v) {
		return semver.Canonical(v)
	}
	if semver.IsValid("v" + v) {
		return semver.Canonical("v" + v)
	}
	return v
}

func displayVersion() string {
	return fmt.Sprintf("%s (commit %s, built %s)",
		canonicalVersion(version), commit, buildDate)
}

func versionInfo() server.VersionInfo {
	return server.VersionInfo{
		Version:   canonicalVersion(version),
		Commit:    commit,
		BuildDate: buildDate,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "subtle %s\n", displayVersion())
		},
	}
}

// setupLogFile tees the standard logger into debug.log under
// dataDir. The file is emptied first when it has grown past
// maxLogFileBytes.
func setupLogFile(dataDir string) {
	path := filepath.Join(dataDir, logFileName)
	truncateLogFile(path, maxLogFileBytes)

	f, err := os.OpenFile(
		path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600,
	)
	if err != nil {
		log.Printf("warning: cannot open log file: %v", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

// truncateLogFile empties path when it is a regular file larger
// than limit. Symlinks are left alone.
func truncateLogFile(path string, limit int64) {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	if info.Size() <= limit {
		return
	}
	if err := os.Truncate(path, 0); err != nil {
		log.Printf("warning: truncating log file: %v", err)
	}
}
