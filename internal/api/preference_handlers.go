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

// UserSettingsStore is the account-settings surface the handler needs.
type UserSettingsStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetCity(ctx context.Context, userID, city string) error
}

// PreferenceStore is the preference/profile surface the handler needs.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	SetPreferences(ctx context.Context, userID, preferences string) error
	MarkDirty(ctx context.Context, userID string) error
}

// PreferenceHandler manages the subscriber's city and preference text.
// Any change marks the synthesized profile dirty so it is regenerated
// before the next discovery run.
type PreferenceHandler struct {
	users    UserSettingsStore
	profiles PreferenceStore
	logger   *slog.Logger
}

func NewPreferenceHandler(users UserSettingsStore, profiles PreferenceStore, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{users: users, profiles: profiles, logger: logger}
}

type accountResponse struct {
	User        *models.User `json:"user"`
	Preferences *string      `json:"preferences,omitempty"`
	Dirty       bool         `json:"profile_dirty"`
}

// Account handles GET /api/account
func (h *PreferenceHandler) Account(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := accountResponse{User: user}
	if profile != nil {
		resp.Preferences = profile.Preferences
		resp.Dirty = profile.Dirty
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetCity handles PUT /api/account/city
func (h *PreferenceHandler) SetCity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		City string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	city := strings.TrimSpace(req.City)
	if city == "" {
		http.Error(w, "City is required", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.users.SetCity(r.Context(), userID, city); err != nil {
		writeError(w, h.logger, err)
		return
	}
	// City changes invalidate the synthesized profile.
	if err := h.profiles.MarkDirty(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("city updated", "user_id", userID, "city", city)
	writeJSON(w, http.StatusOK, map[string]string{"city": city})
}

// SetPreferences handles PUT /api/account/preferences
func (h *PreferenceHandler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Preferences string `json:"preferences"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	preferences := strings.TrimSpace(req.Preferences)
	if preferences == "" {
		http.Error(w, "Preferences text is required", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.profiles.SetPreferences(r.Context(), userID, preferences); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("preferences updated", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}
