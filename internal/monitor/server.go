package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sluice/internal/coordination"
	"sluice/internal/logging"
)

// Status is the node summary served at /api/status.
type Status struct {
	NodeID            string         `json:"node_id"`
	Phase             string         `json:"phase"`
	Hostname          string         `json:"hostname"`
	UptimeSeconds     int64          `json:"uptime_seconds"`
	Workers           map[string]int `json:"workers"`
	QueueDepths       map[string]int `json:"queue_depths"`
	AssignmentVersion int64          `json:"assignment_version"`
}

// StatusSource supplies the data the monitoring endpoints serve.
type StatusSource interface {
	Status() Status
	Assignment(ctx context.Context) (*coordination.Assignment, error)
}

// Server is the supervisor monitoring HTTP server.
type Server struct {
	bind   string
	logger *slog.Logger
	source StatusSource

	listener net.Listener
	server   *http.Server
}

// NewServer constructs a monitoring server bound to bind. Collectors may be
// nil, in which case /metrics is absent.
func NewServer(bind string, source StatusSource, metrics *Collectors, logger *slog.Logger) *Server {
	logger = logging.NewComponentLogger(logger, "monitor")

	srv := &Server{
		bind:   bind,
		logger: logger,
		source: source,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", srv.handleHealthz)
	r.Get("/api/status", srv.handleStatus)
	r.Get("/api/assignment", srv.handleAssignment)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	}

	srv.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start binds the listener and begins serving in the background. A bind
// failure is returned synchronously so bootstrap can treat it as fatal.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("bind monitoring server on %s: %w", s.bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("monitoring server stopped unexpectedly", logging.Error(err))
		}
	}()

	s.logger.Info("monitoring server listening", logging.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, useful when the configured port is 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Status())
}

func (s *Server) handleAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, err := s.source.Assignment(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
