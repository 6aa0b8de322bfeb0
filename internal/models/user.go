package models

import (
	"time"
)

// User is a newsletter subscriber.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	City         *string   `json:"city,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile holds the synthesized free-text preference description used to
// drive discovery. It becomes dirty whenever preferences, city, or event
// sources change and must be regenerated before the next discovery run.
type Profile struct {
	UserID      string    `json:"user_id"`
	Preferences *string   `json:"preferences,omitempty"` // raw user-entered preference text
	Text        *string   `json:"text,omitempty"`        // synthesized profile blob
	Dirty       bool      `json:"dirty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
