package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/citypulse/citypulse/internal/models"
)

// ProfileRepository persists the per-user preference/profile state.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns (nil, nil) when the user has no profile row.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	var preferences, text sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, preferences, profile_text, dirty, updated_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&profile.UserID, &preferences, &text, &profile.Dirty, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.Preferences = stringPtr(preferences)
	profile.Text = stringPtr(text)
	return &profile, nil
}

// SetPreferences stores raw preference text and marks the profile dirty so
// the synthesized text gets regenerated before the next run.
func (r *ProfileRepository) SetPreferences(ctx context.Context, userID, preferences string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET preferences = $1, dirty = TRUE, updated_at = NOW()
		WHERE user_id = $2
	`, preferences, userID)
	if err != nil {
		return fmt.Errorf("failed to set preferences: %w", err)
	}
	return requireRow(result, userID)
}

// SetText stores freshly synthesized profile text and clears the dirty flag.
func (r *ProfileRepository) SetText(ctx context.Context, userID, text string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET profile_text = $1, dirty = FALSE, updated_at = NOW()
		WHERE user_id = $2
	`, text, userID)
	if err != nil {
		return fmt.Errorf("failed to set profile text: %w", err)
	}
	return requireRow(result, userID)
}

// MarkDirty flags the profile for regeneration, e.g. after the user's city
// or sources change.
func (r *ProfileRepository) MarkDirty(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET dirty = TRUE, updated_at = NOW() WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark profile dirty: %w", err)
	}
	return requireRow(result, userID)
}

func requireRow(result sql.Result, userID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("profile for user %s not found", userID)
	}
	return nil
}
