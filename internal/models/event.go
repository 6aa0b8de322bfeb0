package models

import (
	"time"
)

// Event represents a curated local event persisted for a user's newsletter.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Time        *string   `json:"time,omitempty"` // free-text, e.g. "19:30" or "doors 8pm"
	Location    string    `json:"location"`
	Category    *string   `json:"category,omitempty"`
	SourceURL   string    `json:"source_url"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Score       int       `json:"score"` // 0-100 relevance score
	Organizer   *string   `json:"organizer,omitempty"`
	Artist      *string   `json:"artist,omitempty"`
	Venue       *string   `json:"venue,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Identity returns the (title, date, location) triple that acts as the
// operational identity for upserts. Date is compared at day precision.
func (e *Event) Identity() (string, time.Time, string) {
	return e.Title, e.Date.Truncate(24 * time.Hour), e.Location
}
