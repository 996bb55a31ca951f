package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/charsheet-be/internal/common"
	"github.com/isdelr/charsheet-be/internal/database"
	"github.com/isdelr/charsheet-be/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	minAbilityScore = 1
	maxAbilityScore = 30
)

// CharacterServiceProvider defines the interface for character services.
// Every operation acts on behalf of owner, the identity resolved for the request.
type CharacterServiceProvider interface {
	CreateCharacter(ctx context.Context, owner models.Identity, in models.NewCharacter) (models.Character, error)
	GetCharactersForUser(ctx context.Context, owner models.Identity) ([]models.Character, error)
	GetCharacter(ctx context.Context, owner models.Identity, id string) (models.Character, error)
	UpdateCharacter(ctx context.Context, owner models.Identity, id string, patch models.CharacterPatch) (models.Character, error)
	DeleteCharacter(ctx context.Context, owner models.Identity, id string) error
	LevelUpCharacter(ctx context.Context, owner models.Identity, id string, hpRoll int) (models.Character, error)
}

// CharacterService provides business logic for character management.
type CharacterService struct {
	db           *sql.DB
	eventService EventServiceProvider
	now          func() time.Time
}

// NewCharacterService creates a new CharacterService.
func NewCharacterService(db *sql.DB, eventService EventServiceProvider) *CharacterService {
	return &CharacterService{
		db:           db,
		eventService: eventService,
		now:          time.Now,
	}
}

const characterColumns = `id, user_id, name, race, class,
	strength, dexterity, constitution, intelligence, wisdom, charisma,
	proficiencies_json, spells_json, background, alignment, level, max_hp, created_at, updated_at`

// CreateCharacter validates the payload and stores a level 1 character.
// Starting HP is the hit die plus the constitution modifier, unclamped.
func (s *CharacterService) CreateCharacter(ctx context.Context, owner models.Identity, in models.NewCharacter) (models.Character, error) {
	if err := validateNewCharacter(in); err != nil {
		return models.Character{}, err
	}

	stats := in.Stats.Resolve()
	if err := validateStats(stats); err != nil {
		return models.Character{}, err
	}

	now := s.now()
	character := models.Character{
		ID:            uuid.New().String(),
		UserID:        owner.ID,
		Name:          strings.TrimSpace(in.Name),
		Race:          in.Race,
		Class:         in.Class,
		Stats:         stats,
		Proficiencies: listOrEmpty(in.Proficiencies),
		Spells:        listOrEmpty(in.Spells),
		Background:    in.Background,
		Alignment:     in.Alignment,
		Level:         1,
		MaxHP:         in.HitDie + models.AbilityModifier(stats.Constitution),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	proficiencies, spells, err := encodeLists(character)
	if err != nil {
		return models.Character{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO characters (`+characterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		character.ID, character.UserID, character.Name, character.Race, character.Class,
		stats.Strength, stats.Dexterity, stats.Constitution, stats.Intelligence, stats.Wisdom, stats.Charisma,
		proficiencies, spells, character.Background, character.Alignment, character.Level, character.MaxHP,
		database.ToMillis(now), database.ToMillis(now),
	)
	if err != nil {
		return models.Character{}, fmt.Errorf("failed to insert character: %w", err)
	}

	s.recordEvent(ctx, owner.ID, character.ID, EventCharacterCreate,
		fmt.Sprintf("Character '%s' the %s %s created.", character.Name, character.Race, character.Class))
	return character, nil
}

// GetCharactersForUser retrieves all characters owned by owner.
func (s *CharacterService) GetCharactersForUser(ctx context.Context, owner models.Identity) ([]models.Character, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+characterColumns+" FROM characters WHERE user_id = ? ORDER BY created_at, rowid", owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCharacters(rows)
}

// GetCharacter retrieves a character owned by owner.
func (s *CharacterService) GetCharacter(ctx context.Context, owner models.Identity, id string) (models.Character, error) {
	return s.getOwnedCharacter(ctx, owner, id)
}

// UpdateCharacter overwrites the fields set in patch. Owner, level and max HP
// cannot be changed here.
func (s *CharacterService) UpdateCharacter(ctx context.Context, owner models.Identity, id string, patch models.CharacterPatch) (models.Character, error) {
	character, err := s.getOwnedCharacter(ctx, owner, id)
	if err != nil {
		return models.Character{}, err
	}

	patch.Apply(&character)
	if patch.Stats != nil {
		if err := validateStats(character.Stats); err != nil {
			return models.Character{}, err
		}
	}

	if err := s.saveCharacter(ctx, &character); err != nil {
		return models.Character{}, err
	}

	s.recordEvent(ctx, owner.ID, character.ID, EventCharacterUpdate, fmt.Sprintf("Character '%s' updated.", character.Name))
	return character, nil
}

// DeleteCharacter removes a character owned by owner.
func (s *CharacterService) DeleteCharacter(ctx context.Context, owner models.Identity, id string) error {
	character, err := s.getOwnedCharacter(ctx, owner, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM characters WHERE id = ?", id); err != nil {
		return err
	}

	s.recordEvent(ctx, owner.ID, character.ID, EventCharacterDelete, fmt.Sprintf("Character '%s' was deleted.", character.Name))
	return nil
}

// LevelUpCharacter advances a character one level. The HP gain is the
// client-supplied roll plus the constitution modifier and may be negative.
func (s *CharacterService) LevelUpCharacter(ctx context.Context, owner models.Identity, id string, hpRoll int) (models.Character, error) {
	character, err := s.getOwnedCharacter(ctx, owner, id)
	if err != nil {
		return models.Character{}, err
	}

	if character.Level >= models.MaxLevel {
		return models.Character{}, fmt.Errorf("%w: '%s' is level %d", common.ErrMaxLevelReached, character.Name, character.Level)
	}

	gain, ok := addInts(hpRoll, models.AbilityModifier(character.Stats.Constitution))
	if !ok {
		return models.Character{}, fmt.Errorf("%w: hpRoll %d is out of range", common.ErrValidation, hpRoll)
	}
	maxHP, ok := addInts(character.MaxHP, gain)
	if !ok {
		return models.Character{}, fmt.Errorf("%w: hpRoll %d is out of range", common.ErrValidation, hpRoll)
	}
	character.Level++
	character.MaxHP = maxHP

	if err := s.saveCharacter(ctx, &character); err != nil {
		return models.Character{}, err
	}

	s.recordEvent(ctx, owner.ID, character.ID, EventCharacterLevelUp,
		fmt.Sprintf("Character '%s' reached level %d (%+d HP).", character.Name, character.Level, gain))
	return character, nil
}

// getOwnedCharacter loads a character and checks ownership. Existence is
// checked first so a missing id is NotFound even for a foreign caller.
func (s *CharacterService) getOwnedCharacter(ctx context.Context, owner models.Identity, id string) (models.Character, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+characterColumns+" FROM characters WHERE id = ?", id)
	character, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Character{}, fmt.Errorf("%w: character %s", common.ErrNotFound, id)
		}
		return models.Character{}, err
	}

	if character.UserID != owner.ID {
		return models.Character{}, fmt.Errorf("%w: character %s belongs to another user", common.ErrForbidden, id)
	}
	return character, nil
}

func (s *CharacterService) saveCharacter(ctx context.Context, character *models.Character) error {
	proficiencies, spells, err := encodeLists(*character)
	if err != nil {
		return err
	}

	character.UpdatedAt = s.now()
	stats := character.Stats
	_, err = s.db.ExecContext(ctx, `
		UPDATE characters
		SET name = ?, race = ?, class = ?,
		    strength = ?, dexterity = ?, constitution = ?, intelligence = ?, wisdom = ?, charisma = ?,
		    proficiencies_json = ?, spells_json = ?, background = ?, alignment = ?,
		    level = ?, max_hp = ?, updated_at = ?
		WHERE id = ?`,
		character.Name, character.Race, character.Class,
		stats.Strength, stats.Dexterity, stats.Constitution, stats.Intelligence, stats.Wisdom, stats.Charisma,
		proficiencies, spells, character.Background, character.Alignment,
		character.Level, character.MaxHP, database.ToMillis(character.UpdatedAt),
		character.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update character: %w", err)
	}
	return nil
}

// recordEvent appends to the activity log. Failures are logged only.
func (s *CharacterService) recordEvent(ctx context.Context, userID, characterID, eventType, message string) {
	if err := s.eventService.CreateEvent(ctx, userID, eventType, message, &characterID); err != nil {
		log.Error().Err(err).Str("character_id", characterID).Str("event", eventType).Msg("Failed to record character event")
	}
}

func validateNewCharacter(in models.NewCharacter) error {
	var missing []string
	required := []struct {
		field string
		value string
	}{
		{"name", in.Name},
		{"race", in.Race},
		{"class", in.Class},
		{"background", in.Background},
		{"alignment", in.Alignment},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if in.Stats == nil {
		missing = append(missing, "stats")
	}
	if in.HitDie == 0 {
		missing = append(missing, "hitDie")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", common.ErrValidation, strings.Join(missing, ", "))
	}
	if in.HitDie < 1 {
		return fmt.Errorf("%w: hitDie must be positive", common.ErrValidation)
	}
	return nil
}

func validateStats(stats models.Stats) error {
	scores := []struct {
		name  string
		value int
	}{
		{"strength", stats.Strength},
		{"dexterity", stats.Dexterity},
		{"constitution", stats.Constitution},
		{"intelligence", stats.Intelligence},
		{"wisdom", stats.Wisdom},
		{"charisma", stats.Charisma},
	}
	for _, sc := range scores {
		if sc.value < minAbilityScore || sc.value > maxAbilityScore {
			return fmt.Errorf("%w: %s must be between %d and %d", common.ErrValidation, sc.name, minAbilityScore, maxAbilityScore)
		}
	}
	return nil
}

func listOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func encodeLists(c models.Character) (string, string, error) {
	proficiencies, err := json.Marshal(listOrEmpty(c.Proficiencies))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode proficiencies: %w", err)
	}
	spells, err := json.Marshal(listOrEmpty(c.Spells))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode spells: %w", err)
	}
	return string(proficiencies), string(spells), nil
}

// scanCharacters is a helper function to scan multiple rows into a slice of Characters.
func scanCharacters(rows *sql.Rows) ([]models.Character, error) {
	characters := []models.Character{}
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, character)
	}
	return characters, rows.Err()
}

// scanCharacter is a helper function to scan a single row into a Character struct.
func scanCharacter(scanner interface{ Scan(...interface{}) error }) (models.Character, error) {
	var c models.Character
	var proficiencies, spells string
	var createdAt, updatedAt int64
	err := scanner.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Race, &c.Class,
		&c.Stats.Strength, &c.Stats.Dexterity, &c.Stats.Constitution,
		&c.Stats.Intelligence, &c.Stats.Wisdom, &c.Stats.Charisma,
		&proficiencies, &spells, &c.Background, &c.Alignment,
		&c.Level, &c.MaxHP, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Character{}, err
	}
	if err := json.Unmarshal([]byte(proficiencies), &c.Proficiencies); err != nil {
		return models.Character{}, fmt.Errorf("failed to decode proficiencies of character %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(spells), &c.Spells); err != nil {
		return models.Character{}, fmt.Errorf("failed to decode spells of character %s: %w", c.ID, err)
	}
	c.CreatedAt = database.FromMillis(createdAt)
	c.UpdatedAt = database.FromMillis(updatedAt)
	return c, nil
}

// addInts returns a+b and false when the sum overflows int.
func addInts(a, b int) (int, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}
