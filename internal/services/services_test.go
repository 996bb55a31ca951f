package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/isdelr/charsheet-be/internal/database"
	"github.com/isdelr/charsheet-be/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	db         *sql.DB
	events     *EventService
	users      *UserService
	characters *CharacterService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	events := NewEventService(db)
	return &fixture{
		db:         db,
		events:     events,
		users:      NewUserService(db, events, bcrypt.MinCost),
		characters: NewCharacterService(db, events),
	}
}

// failingEvents is an EventServiceProvider whose writes always fail.
type failingEvents struct{}

func (failingEvents) CreateEvent(context.Context, string, string, string, *string) error {
	return errors.New("event store unavailable")
}

func (failingEvents) GetRecentEvents(context.Context, string, int) ([]models.Event, error) {
	return nil, errors.New("event store unavailable")
}

func (f *fixture) register(t *testing.T, name, email string) models.Identity {
	t.Helper()
	user, err := f.users.Register(context.Background(), name, email, "hunter2")
	require.NoError(t, err)
	return user.Identity()
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func validCharacter() models.NewCharacter {
	return models.NewCharacter{
		Name:       "Thorin",
		Race:       "Dwarf",
		Class:      "Fighter",
		Background: "Soldier",
		Alignment:  "Lawful Good",
		HitDie:     10,
		Stats: &models.StatsInput{
			Strength:     intPtr(16),
			Constitution: intPtr(14),
		},
		Proficiencies: []string{"Athletics"},
	}
}
