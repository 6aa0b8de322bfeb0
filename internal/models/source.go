package models

import (
	"time"
)

// EventSource is a user-supplied URL crawled by source-scoped discovery,
// e.g. a local venue's program page.
type EventSource struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the source's name when set, else its URL.
func (s *EventSource) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	return s.URL
}
