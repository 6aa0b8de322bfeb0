package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/models"
)

// SourceStore is the event-source persistence surface the handler needs.
type SourceStore interface {
	List(ctx context.Context, userID string) ([]models.EventSource, error)
	Add(ctx context.Context, source *models.EventSource) error
	Delete(ctx context.Context, userID, sourceID string) error
}

// ProfileInvalidator marks the synthesized profile stale after the user's
// source list changes.
type ProfileInvalidator interface {
	MarkDirty(ctx context.Context, userID string) error
}

// SourceHandler manages a subscriber's custom event sources.
type SourceHandler struct {
	sources  SourceStore
	profiles ProfileInvalidator
	logger   *slog.Logger
}

func NewSourceHandler(sources SourceStore, profiles ProfileInvalidator, logger *slog.Logger) *SourceHandler {
	return &SourceHandler{sources: sources, profiles: profiles, logger: logger}
}

// Collection handles GET and POST on /api/sources
func (h *SourceHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles DELETE on /api/sources/{id}
func (h *SourceHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sourceID := pathSuffix(r.URL.Path, "/api/sources/")
	if sourceID == "" {
		http.Error(w, "Source ID required", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.sources.Delete(r.Context(), userID, sourceID); err != nil {
		h.logger.Warn("failed to delete event source", "source_id", sourceID, "error", err)
		http.Error(w, "Event source not found", http.StatusNotFound)
		return
	}
	if err := h.profiles.MarkDirty(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SourceHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	sources, err := h.sources.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": sources, "count": len(sources)})
}

func (h *SourceHandler) add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rawURL := strings.TrimSpace(req.URL)
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		http.Error(w, "A valid http(s) URL is required", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	source := &models.EventSource{UserID: userID, URL: rawURL}
	if name := strings.TrimSpace(req.Name); name != "" {
		source.Name = &name
	}

	if err := h.sources.Add(r.Context(), source); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.profiles.MarkDirty(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("event source added", "user_id", userID, "url", rawURL)
	writeJSON(w, http.StatusCreated, source)
}
