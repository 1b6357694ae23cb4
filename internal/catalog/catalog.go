// Package catalog enumerates Claude Code session logs under a
// projects root and resolves sessions by id. The layout is one
// directory per project, named after the slug-encoded project
// path, holding one <session-id>.jsonl file per session.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wesm/subtle/internal/parser"
)

// ErrSessionNotFound is returned when no log file exists for a
// session id.
var ErrSessionNotFound = errors.New("session not found")

const sessionExt = ".jsonl"

// Session is one session log file on disk.
type Session struct {
	ID         string
	Path       string
	ProjectDir string // encoded project directory name
	ModTime    time.Time
}

// ProjectName is the last dash-separated segment of the project
// directory name.
func (s Session) ProjectName() string {
	return ProjectName(s.ProjectDir)
}

// ProjectPath is the decoded filesystem path of the project.
func (s Session) ProjectPath() string {
	return DecodeProjectPath(s.ProjectDir)
}

// Events reads and decodes the session's log.
func (s Session) Events() ([]parser.Event, error) {
	return parser.ReadEvents(s.Path)
}

// DecodeProjectPath turns an encoded project directory name
// back into a path: "-Users-alice-code-app" becomes
// "/Users/alice/code/app". Dashes that were part of the original
// path are indistinguishable from separators and also decode
// to "/".
func DecodeProjectPath(dirName string) string {
	if rest, ok := strings.CutPrefix(dirName, "-"); ok {
		return "/" + strings.ReplaceAll(rest, "-", "/")
	}
	return strings.ReplaceAll(dirName, "-", "/")
}

// ProjectName returns the last dash-separated segment of an
// encoded project directory name.
func ProjectName(dirName string) string {
	if i := strings.LastIndexByte(dirName, '-'); i >= 0 {
		return dirName[i+1:]
	}
	return dirName
}

// IsValidSessionID reports whether id contains only
// alphanumeric characters, dashes, and underscores.
func IsValidSessionID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		if !isAlphanumOrDashUnderscore(c) {
			return false
		}
	}
	return true
}

func isAlphanumOrDashUnderscore(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isDirOrSymlink reports whether the entry is a directory or a
// symlink that resolves to a directory.
func isDirOrSymlink(entry os.DirEntry, parentDir string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parentDir, entry.Name()))
	return err == nil && fi.IsDir()
}

// List returns every session under root, most recently
// modified first. A missing root yields an empty list.
func List(root string) ([]Session, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Session{}, nil
		}
		return nil, fmt.Errorf("reading projects dir: %w", err)
	}

	sessions := []Session{}
	for _, entry := range entries {
		if isHidden(entry.Name()) || !isDirOrSymlink(entry, root) {
			continue
		}
		found, err := listProject(root, entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, found...)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].ModTime.Equal(sessions[j].ModTime) {
			return sessions[i].ModTime.After(sessions[j].ModTime)
		}
		return sessions[i].Path < sessions[j].Path
	})
	return sessions, nil
}

func listProject(root, project string) ([]Session, error) {
	dir := filepath.Join(root, project)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var sessions []Session
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || isHidden(name) || !strings.HasSuffix(name, sessionExt) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		sessions = append(sessions, Session{
			ID:         strings.TrimSuffix(name, sessionExt),
			Path:       filepath.Join(dir, name),
			ProjectDir: project,
			ModTime:    info.ModTime(),
		})
	}
	return sessions, nil
}

// Find resolves a session id to its log file. Ids that could
// escape the projects root are rejected as not found.
func Find(root, id string) (Session, error) {
	if !IsValidSessionID(id) {
		return Session{}, ErrSessionNotFound
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return Session{}, ErrSessionNotFound
	}

	target := id + sessionExt
	for _, entry := range entries {
		if isHidden(entry.Name()) || !isDirOrSymlink(entry, root) {
			continue
		}
		path := filepath.Join(root, entry.Name(), target)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return Session{
			ID:         id,
			Path:       path,
			ProjectDir: entry.Name(),
			ModTime:    info.ModTime(),
		}, nil
	}
	return Session{}, ErrSessionNotFound
}

// Limit returns at most n sessions; n <= 0 means no limit.
func Limit(sessions []Session, n int) []Session {
	if n <= 0 || len(sessions) <= n {
		return sessions
	}
	return sessions[:n]
}
