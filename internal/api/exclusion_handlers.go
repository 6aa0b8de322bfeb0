package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/models"
)

// ExclusionStore is the rule persistence surface the handler needs.
type ExclusionStore interface {
	List(ctx context.Context, userID string) ([]models.ExclusionRule, error)
	Add(ctx context.Context, rule *models.ExclusionRule) error
	Delete(ctx context.Context, userID, ruleID string) error
}

// ExclusionHandler manages a subscriber's exclusion rules.
type ExclusionHandler struct {
	exclusions ExclusionStore
	logger     *slog.Logger
}

func NewExclusionHandler(exclusions ExclusionStore, logger *slog.Logger) *ExclusionHandler {
	return &ExclusionHandler{exclusions: exclusions, logger: logger}
}

// Collection handles GET and POST on /api/exclusions
func (h *ExclusionHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles DELETE on /api/exclusions/{id}
func (h *ExclusionHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ruleID := pathSuffix(r.URL.Path, "/api/exclusions/")
	if ruleID == "" {
		http.Error(w, "Rule ID required", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.exclusions.Delete(r.Context(), userID, ruleID); err != nil {
		h.logger.Warn("failed to delete exclusion rule", "rule_id", ruleID, "error", err)
		http.Error(w, "Exclusion rule not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ExclusionHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	rules, err := h.exclusions.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exclusions": rules, "count": len(rules)})
}

func (h *ExclusionHandler) add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ruleType := models.ExclusionType(strings.TrimSpace(req.Type))
	if !models.ValidExclusionType(ruleType) {
		http.Error(w, "Type must be organizer, artist, venue, or event", http.StatusBadRequest)
		return
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		http.Error(w, "Value is required", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	rule := &models.ExclusionRule{UserID: userID, Type: ruleType, Value: value}
	if err := h.exclusions.Add(r.Context(), rule); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("exclusion rule added", "user_id", userID, "type", ruleType)
	writeJSON(w, http.StatusCreated, rule)
}
