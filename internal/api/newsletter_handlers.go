package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/models"
	"github.com/citypulse/citypulse/internal/newsletter"
)

// DigestGenerator generates one user's newsletter.
type DigestGenerator interface {
	Generate(ctx context.Context, userID string, send bool) (*newsletter.Result, error)
}

// NewsletterStore is the read surface for stored newsletters.
type NewsletterStore interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Newsletter, error)
	LatestForUser(ctx context.Context, userID string) (*models.Newsletter, error)
}

// EventLister returns a user's upcoming persisted events.
type EventLister interface {
	ListForUser(ctx context.Context, userID string, from time.Time) ([]models.Event, error)
}

// NewsletterHandler exposes digest generation and history.
type NewsletterHandler struct {
	generator   DigestGenerator
	newsletters NewsletterStore
	events      EventLister
	logger      *slog.Logger
}

func NewNewsletterHandler(generator DigestGenerator, newsletters NewsletterStore,
	events EventLister, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		generator:   generator,
		newsletters: newsletters,
		events:      events,
		logger:      logger,
	}
}

type generateResponse struct {
	Newsletter *models.Newsletter `json:"newsletter"`
	Events     []models.Event     `json:"events"`
	Dump       string             `json:"dump,omitempty"`
}

// Generate handles POST /api/newsletters/generate.
// Query flags: send=1 delivers the digest by email, showDump=1 includes
// the raw city-search response for debugging.
func (h *NewsletterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	send := r.URL.Query().Get("send") == "1"
	showDump := r.URL.Query().Get("showDump") == "1"

	result, err := h.generator.Generate(r.Context(), userID, send)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := generateResponse{Newsletter: result.Newsletter, Events: result.Events}
	if showDump {
		resp.Dump = result.RawResponse
	}
	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /api/newsletters
func (h *NewsletterHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	newsletters, err := h.newsletters.ListForUser(r.Context(), userID, 20)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"newsletters": newsletters, "count": len(newsletters)})
}

// Latest handles GET /api/newsletters/latest
func (h *NewsletterHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	latest, err := h.newsletters.LatestForUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if latest == nil {
		http.Error(w, "No newsletters yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// Events handles GET /api/events: the user's upcoming persisted events,
// best scored first.
func (h *NewsletterHandler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	events, err := h.events.ListForUser(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events, "count": len(events)})
}
