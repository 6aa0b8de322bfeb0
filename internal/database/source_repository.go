package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/models"
)

// SourceRepository persists user-registered event source URLs.
type SourceRepository struct {
	db *sql.DB
}

func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// List returns a user's sources, oldest first.
func (r *SourceRepository) List(ctx context.Context, userID string) ([]models.EventSource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, url, name, created_at
		FROM event_sources WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event sources: %w", err)
	}
	defer rows.Close()

	sources := []models.EventSource{}
	for rows.Next() {
		var source models.EventSource
		var name sql.NullString
		if err := rows.Scan(&source.ID, &source.UserID, &source.URL, &name, &source.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event source: %w", err)
		}
		source.Name = stringPtr(name)
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event sources: %w", err)
	}
	return sources, nil
}

// Add inserts a source; duplicate URLs for a user are ignored.
func (r *SourceRepository) Add(ctx context.Context, source *models.EventSource) error {
	if source.ID == "" {
		source.ID = uuid.New().String()
	}
	source.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_sources (id, user_id, url, name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, url) DO NOTHING
	`, source.ID, source.UserID, source.URL, nullString(source.Name), source.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add event source: %w", err)
	}
	return nil
}

// Delete removes a source owned by the user.
func (r *SourceRepository) Delete(ctx context.Context, userID, sourceID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM event_sources WHERE id = $1 AND user_id = $2
	`, sourceID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event source: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event source %s not found", sourceID)
	}
	return nil
}
