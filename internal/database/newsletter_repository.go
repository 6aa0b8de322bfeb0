package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/citypulse/citypulse/internal/models"
)

// NewsletterRepository persists generated digests.
type NewsletterRepository struct {
	db *sql.DB
}

func NewNewsletterRepository(db *sql.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// Create stores a generated newsletter.
func (r *NewsletterRepository) Create(ctx context.Context, n *models.Newsletter) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletters (id, user_id, subject, html, event_ids, created_at, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.Subject, n.HTML, pq.Array(n.EventIDs), n.CreatedAt, nullTime(n.SentAt))
	if err != nil {
		return fmt.Errorf("failed to create newsletter: %w", err)
	}
	return nil
}

// MarkSent records the delivery time.
func (r *NewsletterRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE newsletters SET sent_at = $1 WHERE id = $2
	`, sentAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark newsletter sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("newsletter %s not found", id)
	}
	return nil
}

// LatestForUser returns the most recent newsletter, or (nil, nil) when the
// user has none.
func (r *NewsletterRepository) LatestForUser(ctx context.Context, userID string) (*models.Newsletter, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, subject, html, event_ids, created_at, sent_at
		FROM newsletters WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, userID)

	n, err := scanNewsletter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest newsletter: %w", err)
	}
	return n, nil
}

// ListForUser returns a user's newsletters, newest first.
func (r *NewsletterRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.Newsletter, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, subject, html, event_ids, created_at, sent_at
		FROM newsletters WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list newsletters: %w", err)
	}
	defer rows.Close()

	newsletters := []models.Newsletter{}
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan newsletter: %w", err)
		}
		newsletters = append(newsletters, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read newsletters: %w", err)
	}
	return newsletters, nil
}

// SentSince reports whether the user received a newsletter at or after the
// given time. The weekly scheduler uses this to avoid double sends.
func (r *NewsletterRepository) SentSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM newsletters
		WHERE user_id = $1 AND sent_at IS NOT NULL AND sent_at >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sent newsletters: %w", err)
	}
	return count > 0, nil
}

func scanNewsletter(row rowScanner) (*models.Newsletter, error) {
	var n models.Newsletter
	var sentAt sql.NullTime
	var eventIDs pq.StringArray

	err := row.Scan(&n.ID, &n.UserID, &n.Subject, &n.HTML, &eventIDs, &n.CreatedAt, &sentAt)
	if err != nil {
		return nil, err
	}

	n.EventIDs = []string(eventIDs)
	if sentAt.Valid {
		t := sentAt.Time
		n.SentAt = &t
	}
	return &n, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
