package models

import (
	"strings"
	"time"
)

// CandidateEvent is an unvalidated event record returned by a discovery
// call, before filtering, dedup, and persistence. Absent optional fields
// stay nil so the upsert never erases a stored value with an empty one.
type CandidateEvent struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Date        string   `json:"date"` // "2006-01-02"
	Time        *string  `json:"time,omitempty"`
	Location    string   `json:"location"`
	Category    *string  `json:"category,omitempty"`
	SourceURL   string   `json:"sourceUrl"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	Organizer   *string  `json:"organizer,omitempty"`
	Artist      *string  `json:"artist,omitempty"`
	Venue       *string  `json:"venue,omitempty"`
}

// ParsedDate parses the candidate's date field as a calendar day.
func (c *CandidateEvent) ParsedDate() (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(c.Date))
}

// CategoryOrDefault returns the candidate's category, or the implicit
// bucket used when discovery returned none.
func (c *CandidateEvent) CategoryOrDefault() string {
	if c.Category == nil || strings.TrimSpace(*c.Category) == "" {
		return UncategorizedBucket
	}
	return strings.TrimSpace(*c.Category)
}

// UncategorizedBucket groups candidates without a category for the
// per-category cap.
const UncategorizedBucket = "(uncategorized)"
