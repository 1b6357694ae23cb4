package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	gosync "sync"
	"time"

	"github.com/wesm/subtle/internal/config"
	"github.com/wesm/subtle/internal/telemetry"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server that serves the index page and
// the JSON API.
type Server struct {
	mu      gosync.RWMutex
	cfg     config.Config
	mux     *http.ServeMux
	httpSrv *http.Server
	version VersionInfo
	metrics *telemetry.Metrics

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
}

// New creates a new Server.
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithMetrics records request and search metrics. Nil is
// ignored.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

func (s *Server) routes() {
	s.mux.Handle("GET /api/sessions", s.withTimeout(s.handleListSessions))
	// The literal "search" segment outranks {id}.
	s.mux.Handle(
		"GET /api/sessions/search", s.withTimeout(s.handleSearchSessions),
	)
	s.mux.Handle("GET /api/sessions/{id}", s.withTimeout(s.handleGetSession))
	s.mux.Handle(
		"GET /api/sessions/{id}/messages", s.withTimeout(s.handleGetMessages),
	)
	s.mux.Handle(
		"GET /api/sessions/{id}/messages/search",
		s.withTimeout(s.handleSearchMessages),
	)
	s.mux.Handle(
		"GET /api/sessions/{id}/message_breakdown",
		s.withTimeout(s.handleMessageBreakdown),
	)
	s.mux.Handle(
		"GET /api/messages/{id}/{index}", s.withTimeout(s.handleGetMessage),
	)
	s.mux.Handle("GET /api/version", s.withTimeout(s.handleGetVersion))

	s.mux.Handle("GET /{$}", s.withTimeout(s.handleIndex))
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

// SetPort updates the listen port (for testing).
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// projectsDir returns the configured projects root.
func (s *Server) projectsDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ProjectsDir
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(
		requestIDMiddleware(
			logMiddleware(
				s.metricsMiddleware(s.mux),
			),
		),
	)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.mu.RLock()
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	s.mu.RUnlock()

	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}

// URL returns the base URL the server listens on.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("http://%s", net.JoinHostPort(
		s.cfg.Host, strconv.Itoa(s.cfg.Port),
	))
}
