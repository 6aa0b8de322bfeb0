package models

import (
	"strings"
	"time"
)

// ExclusionRule is a user-defined signal to suppress or penalize events
// matching an organizer, artist, venue, or event pattern.
type ExclusionRule struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Type      ExclusionType `json:"type"`
	Value     string        `json:"value"`
	CreatedAt time.Time     `json:"created_at"`
}

// ExclusionType categorizes what an exclusion rule matches against.
type ExclusionType string

const (
	ExclusionOrganizer ExclusionType = "organizer"
	ExclusionArtist    ExclusionType = "artist"
	ExclusionVenue     ExclusionType = "venue"
	ExclusionEvent     ExclusionType = "event"
)

// ValidExclusionType reports whether t is one of the known rule types.
func ValidExclusionType(t ExclusionType) bool {
	switch t {
	case ExclusionOrganizer, ExclusionArtist, ExclusionVenue, ExclusionEvent:
		return true
	}
	return false
}

// Phrase returns the human-readable part of an event-type rule's value.
// Event rules encode "title|metadata"; only the part before the first
// separator is meant for prompt guidance.
func (r *ExclusionRule) Phrase() string {
	if idx := strings.Index(r.Value, "|"); idx >= 0 {
		return strings.TrimSpace(r.Value[:idx])
	}
	return strings.TrimSpace(r.Value)
}

// EventRulePromptLimit caps how many event-type rules are folded into the
// effective profile. Only the most recently created rules are used.
const EventRulePromptLimit = 15
