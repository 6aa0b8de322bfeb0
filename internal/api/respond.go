package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/citypulse/citypulse/internal/discovery"
	"github.com/citypulse/citypulse/internal/pipeline"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps pipeline and discovery failures onto HTTP statuses.
// Conditions caused by the user's own data state come back as 4xx with
// the human-readable reason; upstream and infrastructure failures are
// 5xx-class.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNoCity), errors.Is(err, pipeline.ErrNoProfile):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, pipeline.ErrNoEvents):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		var derr *discovery.Error
		if errors.As(err, &derr) {
			logger.Error("discovery failure", "kind", derr.Kind, "error", err)
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Error: "event discovery is currently unavailable",
				Kind:  string(derr.Kind),
			})
			return
		}
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

// pathSuffix returns the path segment after the given prefix, e.g. the
// rule ID in /api/exclusions/{id}.
func pathSuffix(path, prefix string) string {
	if len(path) <= len(prefix) {
		return ""
	}
	return path[len(prefix):]
}
