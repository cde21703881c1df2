package monster

import (
	"fmt"
	"strings"
)

// Rarity is the ordered scarcity tier of a monster.
type Rarity int

// Rarity tiers in ascending order. The numeric values match the ledger's
// rarity enum.
const (
	Common Rarity = iota
	Rare
	Epic
	Legendary
)

// Rarities lists every tier in ascending order.
var Rarities = []Rarity{Common, Rare, Epic, Legendary}

// String returns the lowercase tier name.
func (r Rarity) String() string {
	switch r {
	case Common:
		return "common"
	case Rare:
		return "rare"
	case Epic:
		return "epic"
	case Legendary:
		return "legendary"
	default:
		return fmt.Sprintf("rarity(%d)", int(r))
	}
}

// Valid reports whether r is one of the four tiers.
func (r Rarity) Valid() bool {
	return r >= Common && r <= Legendary
}

// Multiplier returns the stat multiplier applied at generation time.
//
// Postcondition: Returns 1, 1.2, 1.5 or 2 for a valid tier, 1 otherwise.
func (r Rarity) Multiplier() float64 {
	switch r {
	case Rare:
		return 1.2
	case Epic:
		return 1.5
	case Legendary:
		return 2
	default:
		return 1
	}
}

// ParseRarity converts a tier name (case-insensitive) into a Rarity.
func ParseRarity(s string) (Rarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common":
		return Common, nil
	case "rare":
		return Rare, nil
	case "epic":
		return Epic, nil
	case "legendary":
		return Legendary, nil
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rarity) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rarity) UnmarshalText(text []byte) error {
	parsed, err := ParseRarity(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
