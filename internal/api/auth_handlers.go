package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/models"
)

// UserAccountStore is the subscriber account surface the auth handler needs.
type UserAccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AuthHandler handles subscriber registration and login.
type AuthHandler struct {
	users  UserAccountStore
	config auth.Config
	logger *slog.Logger
}

func NewAuthHandler(users UserAccountStore, config auth.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, config: config, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	City     string `json:"city"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "A valid email is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing != nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Active:       true,
	}
	if city := strings.TrimSpace(req.City); city != "" {
		user.City = &city
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	h.issueToken(w, user.ID, http.StatusCreated)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
		// Use a generic error message to prevent account enumeration
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	h.logger.Info("successful login", "user_id", user.ID)
	h.issueToken(w, user.ID, http.StatusOK)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, userID string, status int) {
	token, err := auth.GenerateToken(userID, h.config.JWTSecret, h.config.TokenDuration)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, status, tokenResponse{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(h.config.TokenDuration),
	})
}
