package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/estates/internal/core"
	"github.com/JonMunkholm/estates/internal/logging"
)

var errIngestDisabled = errors.New("ingestion disabled")

// handleIngestRun runs an ingestion pass now and returns its summary.
// A run already in progress yields 409.
func (s *Server) handleIngestRun(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		s.respondError(w, r, errIngestDisabled)
		return
	}

	summary, err := s.ingest.TriggerNow(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("manual ingestion run finished",
		"actor", core.ActorFromContext(r.Context()),
		"run_id", summary.RunID,
		"files_processed", summary.FilesProcessed,
		"files_errored", summary.FilesErrored,
	)
	writeJSON(w, r, http.StatusOK, summary)
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth pings the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.buildings.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: core.MapError(err).Message})
		return
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
}
