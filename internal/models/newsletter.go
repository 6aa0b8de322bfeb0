package models

import (
	"time"
)

// Newsletter is one generated digest: rendered HTML plus the ordered set
// of event IDs it references.
type Newsletter struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Subject   string     `json:"subject"`
	HTML      string     `json:"html"`
	EventIDs  []string   `json:"event_ids"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}
