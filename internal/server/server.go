// Package server exposes the read API over stored outbreak records and the
// on-demand sync trigger.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"edccmon/internal/database"
	"edccmon/internal/extract"
	"edccmon/internal/pipeline"
)

// clock is a package-level time source so tests can freeze time via SetClock.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock swaps the time source for query cutoffs. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Syncer triggers one sync pass on demand.
type Syncer interface {
	RunSync(ctx context.Context) *pipeline.Result
}

// Server is the HTTP server for querying outbreak records.
type Server struct {
	db     *database.DB
	syncer Syncer
	mux    *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB, syncer Syncer) *Server {
	s := &Server{db: db, syncer: syncer, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/outbreaks", s.handleOutbreaks)
	s.mux.HandleFunc("/outbreaks/", s.handleOutbreak)
	s.mux.HandleFunc("/admin/sync-edcc", s.handleSync)
}

func (s *Server) handleOutbreaks(w http.ResponseWriter, r *http.Request) {
	var since *time.Time
	if raw := r.URL.Query().Get("sinceHours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("sinceHours must be a positive integer, got %q", raw))
			return
		}
		cutoff := clock.Now().UTC().Add(-time.Duration(hours) * time.Hour)
		since = &cutoff
	}

	alerts, err := s.db.GetAlerts(since)
	if err != nil {
		log.Printf("listing outbreaks: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if alerts == nil {
		alerts = []extract.Record{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleOutbreak(w http.ResponseWriter, r *http.Request) {
	alertID := strings.TrimPrefix(r.URL.Path, "/outbreaks/")
	if alertID == "" || strings.Contains(alertID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	rec, err := s.db.GetAlertByAlertID(alertID)
	if err != nil {
		log.Printf("looking up outbreak %s: %v", alertID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no outbreak with alert id %q", alertID))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result := s.syncer.RunSync(r.Context())
	if result == nil {
		writeError(w, http.StatusInternalServerError, "sync pass failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"discovered": result.Discovered,
		"stored":     result.Stored,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, syncer Syncer, port int) error {
	srv := New(db, syncer)
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
