// Package web provides an HTTP status server for the dht20-agent.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sweeney/dht20-agent/internal/metrics"
	"github.com/sweeney/dht20-agent/internal/status"
)

// Server serves the status page, metrics and health over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	staleAfter time.Duration
	now        func() time.Time
}

// New creates a Server that reads state from the given tracker. The agent
// reports unhealthy when no reading has succeeded within staleAfter;
// zero disables the check. m may be nil.
func New(addr string, tracker *status.Tracker, m *metrics.Metrics, staleAfter time.Duration) *Server {
	s := &Server{tracker: tracker, staleAfter: staleAfter, now: time.Now}

	r := mux.NewRouter()
	r.Handle("/", m.WrapHandler("/", http.HandlerFunc(s.handleIndex))).Methods(http.MethodGet)
	r.Handle("/index.html", m.WrapHandler("/index.html", http.HandlerFunc(s.handleIndex))).Methods(http.MethodGet)
	r.Handle("/index.json", m.WrapHandler("/index.json", http.HandlerFunc(s.handleJSON))).Methods(http.MethodGet)
	r.Handle("/healthz", m.WrapHandler("/healthz", http.HandlerFunc(s.handleHealth))).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

type healthJSON struct {
	Status      string `json:"status"`
	LastReading string `json:"last_reading,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	h := healthJSON{Status: "ok"}
	code := http.StatusOK

	if snap.HasReading {
		h.LastReading = snap.Reading.Timestamp.UTC().Format(time.RFC3339)
	}
	if s.staleAfter > 0 {
		since := snap.StartTime
		if snap.HasReading {
			since = snap.Reading.Timestamp
		}
		if s.now().Sub(since) > s.staleAfter {
			h.Status = "stale"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(h)
}
