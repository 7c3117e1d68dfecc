// Package web provides an HTTP status server for the ecg-monitor daemon.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/ecg-monitor/internal/qrs"
	"github.com/sweeney/ecg-monitor/internal/status"
)

// DiagFunc returns a consistent snapshot of the detector internals. The
// sample loop owns the detector, so the function must do its own locking.
type DiagFunc func() qrs.Diagnostics

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	diag       DiagFunc
}

// New creates a Server that reads state from the given tracker. diag may be
// nil, in which case /diag.json responds 404.
func New(addr string, tracker *status.Tracker, diag DiagFunc) *Server {
	s := &Server{tracker: tracker, diag: diag}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/diag.json", s.handleDiag)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
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
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	if s.diag == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatDiagJSON(s.diag()))
}
