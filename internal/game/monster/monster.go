// Package monster models battle combatants and generates them at random.
package monster

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monsterbattle/internal/game/move"
)

// Stats are the mutable battle numbers of a combatant.
//
// Invariant: Health >= 0 once floored by the resolver.
type Stats struct {
	Health  float64 `json:"health"`
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
	// Speed is meaningful only when HasSpeed is true.
	Speed    float64 `json:"speed,omitempty"`
	HasSpeed bool    `json:"has_speed,omitempty"`
	Stunned  bool    `json:"stunned,omitempty"`
}

// Combatant is a monster as it enters a battle.
type Combatant struct {
	Name     string   `json:"name"`
	Rarity   Rarity   `json:"rarity"`
	Stats    Stats    `json:"stats"`
	Moves    []string `json:"moves"`
	ImageRef string   `json:"image_ref,omitempty"`
}

// New builds a combatant, clamping a non-positive defense to 1.
//
// Postcondition: result.Stats.Defense >= 1 and result.Moves is a copy of moves.
func New(name string, rarity Rarity, stats Stats, moves []string) Combatant {
	if stats.Defense <= 0 {
		stats.Defense = 1
	}
	return Combatant{
		Name:   name,
		Rarity: rarity,
		Stats:  stats,
		Moves:  append([]string(nil), moves...),
	}
}

// HasMove reports whether name is in the combatant's move set.
func (c Combatant) HasMove(name string) bool {
	for _, m := range c.Moves {
		if m == name {
			return true
		}
	}
	return false
}

// CreatureType is the art archetype of a monster.
type CreatureType string

const (
	Dragon CreatureType = "dragon"
	Tiger  CreatureType = "tiger"
)

// CreatureTypes lists every archetype.
var CreatureTypes = []CreatureType{Dragon, Tiger}

// ParseCreatureType converts a name into a CreatureType.
func ParseCreatureType(s string) (CreatureType, error) {
	switch CreatureType(strings.ToLower(strings.TrimSpace(s))) {
	case Dragon:
		return Dragon, nil
	case Tiger:
		return Tiger, nil
	}
	return "", fmt.Errorf("unknown creature type %q", s)
}

// CreatureTypeOf infers the archetype from a generated monster name.
func CreatureTypeOf(name string) CreatureType {
	if strings.Contains(name, "Tiger") {
		return Tiger
	}
	return Dragon
}

// Faction is the team an account plays for. Values match the ledger's ids.
type Faction int

const (
	NoFaction Faction = 0
	Dragons   Faction = 1
	Tigers    Faction = 2
)

// String returns the faction's display name.
func (f Faction) String() string {
	switch f {
	case Dragons:
		return "dragons"
	case Tigers:
		return "tigers"
	default:
		return "none"
	}
}

// Valid reports whether f is a selectable faction.
func (f Faction) Valid() bool {
	return f == Dragons || f == Tigers
}

// Pool returns the faction-exclusive move pool.
func (f Faction) Pool() move.Pool {
	if f == Tigers {
		return move.PoolTiger
	}
	return move.PoolDragon
}

// CreatureType returns the archetype a faction's starter is drawn as.
func (f Faction) CreatureType() CreatureType {
	if f == Tigers {
		return Tiger
	}
	return Dragon
}

// ParseFaction accepts a faction name ("dragons", "dragon") or its ledger id.
func ParseFaction(s string) (Faction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dragons", "dragon", "1":
		return Dragons, nil
	case "tigers", "tiger", "2":
		return Tigers, nil
	}
	return NoFaction, fmt.Errorf("unknown faction %q", s)
}

// Record is a monster as held by the ledger.
type Record struct {
	TokenID  string   `json:"token_id"`
	Name     string   `json:"name"`
	Rarity   Rarity   `json:"rarity"`
	Attack   int      `json:"attack"`
	Defense  int      `json:"defense"`
	Health   int      `json:"health"`
	Moves    []string `json:"moves"`
	ImageRef string   `json:"image_ref,omitempty"`
}

// Combatant converts the record into a combatant using its stored moves.
func (r Record) Combatant() Combatant {
	c := New(r.Name, r.Rarity, Stats{
		Health:  float64(r.Health),
		Attack:  float64(r.Attack),
		Defense: float64(r.Defense),
	}, r.Moves)
	c.ImageRef = r.ImageRef
	return c
}

// RecordOf converts a combatant into the shape stored by the ledger.
func RecordOf(c Combatant) Record {
	return Record{
		Name:     c.Name,
		Rarity:   c.Rarity,
		Attack:   int(c.Stats.Attack),
		Defense:  int(c.Stats.Defense),
		Health:   int(c.Stats.Health),
		Moves:    append([]string(nil), c.Moves...),
		ImageRef: c.ImageRef,
	}
}
