package health

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// ErrConflict is returned by an EngineControl that cannot apply a change right now.
var ErrConflict = errors.New("conflict")

// Snapshotter is satisfied by Aggregator.
type Snapshotter interface {
	Check(ctx context.Context, includeDetail bool) domain.HealthSnapshot
}

// EngineControl exposes the engine to HTTP handlers.
type EngineControl interface {
	State() domain.EngineState
	EnableAutoRestart(ctx context.Context) error
}

// ServerConfig configures Server.
type ServerConfig struct {
	Port       int
	AdminToken string
	// ReadinessChecks are served on /ready next to the built-in checks.
	ReadinessChecks map[string]healthcheck.Check
}

// Server provides the status, admin, metrics and probe endpoints.
type Server struct {
	snapshots Snapshotter
	engine    EngineControl
	token     string
	server    *http.Server
	log       *slog.Logger
}

// NewServer creates a new status server.
func NewServer(cfg ServerConfig, snapshots Snapshotter, engine EngineControl) *Server {
	mux := http.NewServeMux()
	s := &Server{
		snapshots: snapshots,
		engine:    engine,
		token:     cfg.AdminToken,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           withCORS(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: slog.Default().With("component", "http"),
	}

	probes := healthcheck.NewHandler()
	probes.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	for name, check := range cfg.ReadinessChecks {
		probes.AddReadinessCheck(name, check)
	}

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/admin/autorestart", s.handleEnableAutoRestart)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/live", probes.LiveEndpoint)
	mux.HandleFunc("/ready", probes.ReadyEndpoint)

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Stop.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// FlattenStatus builds the /status body: process names at the top level,
// then isError, sysStatus, ethStatus, agentStartTime (unix ms) and mode.
func FlattenStatus(snap domain.HealthSnapshot, state domain.EngineState) map[string]any {
	body := make(map[string]any, len(snap.Processes.Running)+6)
	for name, up := range snap.Processes.Running {
		body[name] = up
	}
	if snap.Processes.Err != "" {
		body["error"] = snap.Processes.Err
	}
	body["isError"] = snap.Processes.IsError
	body["sysStatus"] = snap.Syscoin
	body["ethStatus"] = snap.Ethereum
	body["agentStartTime"] = state.AgentStartTime.UnixMilli()
	body["mode"] = state.Mode
	return body
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	s.log.Debug("status requested", "remote", r.RemoteAddr)
	snap := s.snapshots.Check(r.Context(), false)
	writeJSON(w, http.StatusOK, FlattenStatus(snap, s.engine.State()))
}

func (s *Server) handleEnableAutoRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := s.engine.EnableAutoRestart(r.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrConflict) {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	s.log.Info("automatic restart re-enabled by operator", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
