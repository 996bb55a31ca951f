package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/charsheet-be/internal/database"
	"github.com/isdelr/charsheet-be/internal/models"
)

const (
	EventUserRegister     = "user.register"
	EventCharacterCreate  = "character.create"
	EventCharacterUpdate  = "character.update"
	EventCharacterDelete  = "character.delete"
	EventCharacterLevelUp = "character.levelup"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, userID, eventType, message string, characterID *string) error
	GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// EventService records and lists per-user activity.
type EventService struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, userID, eventType, message string, characterID *string) error {
	event := models.Event{
		ID:          uuid.New().String(),
		UserID:      userID,
		CharacterID: characterID,
		Type:        eventType,
		Message:     message,
		CreatedAt:   s.now(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, user_id, character_id, type, message, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.UserID, event.CharacterID, event.Type, event.Message, database.ToMillis(event.CreatedAt),
	)
	return err
}

// GetRecentEvents retrieves the most recent events of a user, newest first.
func (s *EventService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, character_id, type, message, created_at
		FROM events WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var characterID sql.NullString
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.UserID, &characterID, &event.Type, &event.Message, &createdAt); err != nil {
			return nil, err
		}
		if characterID.Valid {
			event.CharacterID = &characterID.String
		}
		event.CreatedAt = database.FromMillis(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}
