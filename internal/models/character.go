package models

import "time"

const (
	// MaxLevel is the highest level a character can reach.
	MaxLevel = 20
	// DefaultAbilityScore is used for any ability score the client leaves out.
	DefaultAbilityScore = 10
)

// Stats holds the six ability scores of a character.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Character represents a player character owned by a single user.
type Character struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user"`
	Name          string    `json:"name"`
	Race          string    `json:"race"`
	Class         string    `json:"class"`
	Stats         Stats     `json:"stats"`
	Proficiencies []string  `json:"proficiencies"`
	Spells        []string  `json:"spells"`
	Background    string    `json:"background"`
	Alignment     string    `json:"alignment"`
	Level         int       `json:"level"`
	MaxHP         int       `json:"maxHp"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AbilityModifier derives the bonus of an ability score: floor((score-10)/2).
// Go integer division truncates toward zero, so odd negative offsets are
// shifted down by one before halving.
func AbilityModifier(score int) int {
	d := score - DefaultAbilityScore
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// StatsInput is an ability score block as sent by a client. Nil scores fall
// back to DefaultAbilityScore.
type StatsInput struct {
	Strength     *int `json:"strength"`
	Dexterity    *int `json:"dexterity"`
	Constitution *int `json:"constitution"`
	Intelligence *int `json:"intelligence"`
	Wisdom       *int `json:"wisdom"`
	Charisma     *int `json:"charisma"`
}

// Resolve fills in defaults for any omitted score.
func (in StatsInput) Resolve() Stats {
	pick := func(v *int) int {
		if v == nil {
			return DefaultAbilityScore
		}
		return *v
	}
	return Stats{
		Strength:     pick(in.Strength),
		Dexterity:    pick(in.Dexterity),
		Constitution: pick(in.Constitution),
		Intelligence: pick(in.Intelligence),
		Wisdom:       pick(in.Wisdom),
		Charisma:     pick(in.Charisma),
	}
}

// NewCharacter is the payload for creating a character.
type NewCharacter struct {
	Name          string      `json:"name"`
	Race          string      `json:"race"`
	Class         string      `json:"class"`
	Stats         *StatsInput `json:"stats"`
	Proficiencies []string    `json:"proficiencies"`
	Spells        []string    `json:"spells"`
	Background    string      `json:"background"`
	Alignment     string      `json:"alignment"`
	HitDie        int         `json:"hitDie"`
}

// CharacterPatch is a partial update. A nil field leaves the stored value
// untouched; any non-nil value, including "" or an empty list, overwrites it.
type CharacterPatch struct {
	Name          *string     `json:"name"`
	Race          *string     `json:"race"`
	Class         *string     `json:"class"`
	Stats         *StatsInput `json:"stats"`
	Proficiencies *[]string   `json:"proficiencies"`
	Spells        *[]string   `json:"spells"`
	Background    *string     `json:"background"`
	Alignment     *string     `json:"alignment"`
}

// Apply overwrites the fields of c that are set in p.
func (p CharacterPatch) Apply(c *Character) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Race != nil {
		c.Race = *p.Race
	}
	if p.Class != nil {
		c.Class = *p.Class
	}
	if p.Stats != nil {
		c.Stats = p.Stats.Resolve()
	}
	if p.Proficiencies != nil {
		c.Proficiencies = nonNil(*p.Proficiencies)
	}
	if p.Spells != nil {
		c.Spells = nonNil(*p.Spells)
	}
	if p.Background != nil {
		c.Background = *p.Background
	}
	if p.Alignment != nil {
		c.Alignment = *p.Alignment
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
