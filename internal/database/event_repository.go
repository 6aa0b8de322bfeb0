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

// EventRepository persists curated events per user.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, user_id, title, description, event_date, event_time, location, category,
	source_url, image_url, score, organizer, artist, venue, created_at, updated_at`

// FindByIdentity looks up an event by its (title, date, location) identity.
// Returns (nil, nil) when no event matches.
func (r *EventRepository) FindByIdentity(ctx context.Context, userID, title string, date time.Time, location string) (*models.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE user_id = $1 AND title = $2 AND event_date = $3 AND location = $4
	`, eventColumns)

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, userID, title, date, location))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return event, nil
}

// Create inserts a new event, assigning an ID and timestamps.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `
		INSERT INTO events (id, user_id, title, description, event_date, event_time, location,
			category, source_url, image_url, score, organizer, artist, venue, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.UserID, event.Title, nullString(event.Description),
		event.Date, nullString(event.Time), event.Location, nullString(event.Category),
		event.SourceURL, nullString(event.ImageURL), event.Score,
		nullString(event.Organizer), nullString(event.Artist), nullString(event.Venue),
		event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// Update rewrites an existing event's mutable fields.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now()

	query := `
		UPDATE events SET
			description = $1, event_time = $2, category = $3, source_url = $4,
			image_url = $5, score = $6, organizer = $7, artist = $8, venue = $9,
			updated_at = $10
		WHERE id = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		nullString(event.Description), nullString(event.Time), nullString(event.Category),
		event.SourceURL, nullString(event.ImageURL), event.Score,
		nullString(event.Organizer), nullString(event.Artist), nullString(event.Venue),
		event.UpdatedAt, event.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event %s not found", event.ID)
	}
	return nil
}

// Upsert stores an incoming event under its (title, date, location)
// identity. New events are inserted; for existing events each optional
// field is replaced only when the incoming value is set, so a later run
// that knows less never erases what an earlier run knew. The score is
// always replaced.
func (r *EventRepository) Upsert(ctx context.Context, incoming *models.Event) (*models.Event, error) {
	existing, err := r.FindByIdentity(ctx, incoming.UserID, incoming.Title, incoming.Date, incoming.Location)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if err := r.Create(ctx, incoming); err != nil {
			return nil, err
		}
		return incoming, nil
	}

	existing.Description = mergeField(incoming.Description, existing.Description)
	existing.Time = mergeField(incoming.Time, existing.Time)
	existing.Category = mergeField(incoming.Category, existing.Category)
	existing.ImageURL = mergeField(incoming.ImageURL, existing.ImageURL)
	existing.Organizer = mergeField(incoming.Organizer, existing.Organizer)
	existing.Artist = mergeField(incoming.Artist, existing.Artist)
	existing.Venue = mergeField(incoming.Venue, existing.Venue)
	if incoming.SourceURL != "" {
		existing.SourceURL = incoming.SourceURL
	}
	existing.Score = incoming.Score

	if err := r.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// ListForUser returns a user's events on or after the given date, best
// scored first.
func (r *EventRepository) ListForUser(ctx context.Context, userID string, from time.Time) ([]models.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE user_id = $1 AND event_date >= $2
		ORDER BY score DESC, event_date ASC
	`, eventColumns)

	rows, err := r.db.QueryContext(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ListByIDs fetches events by ID, preserving the order of ids.
func (r *EventRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = ANY($1)`, eventColumns)
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list events by id: %w", err)
	}
	defer rows.Close()

	fetched, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Event, len(fetched))
	for _, e := range fetched {
		byID[e.ID] = e
	}
	ordered := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return ordered, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var event models.Event
	var description, eventTime, category, imageURL, organizer, artist, venue sql.NullString

	err := row.Scan(&event.ID, &event.UserID, &event.Title, &description,
		&event.Date, &eventTime, &event.Location, &category,
		&event.SourceURL, &imageURL, &event.Score,
		&organizer, &artist, &venue, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}

	event.Description = stringPtr(description)
	event.Time = stringPtr(eventTime)
	event.Category = stringPtr(category)
	event.ImageURL = stringPtr(imageURL)
	event.Organizer = stringPtr(organizer)
	event.Artist = stringPtr(artist)
	event.Venue = stringPtr(venue)
	return &event, nil
}

func collectEvents(rows *sql.Rows) ([]models.Event, error) {
	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func mergeField(incoming, existing *string) *string {
	if incoming != nil && *incoming != "" {
		return incoming
	}
	return existing
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
