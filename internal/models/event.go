package models

import "time"

// Event represents an entry in a user's activity log.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CharacterID *string   `json:"characterId,omitempty"` // Nullable for account-level events
	Type        string    `json:"type"`                  // e.g., "character.create", "character.levelup"
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}
