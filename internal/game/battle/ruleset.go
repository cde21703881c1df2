// Package battle implements the turn-based battle engine: formula resolution,
// the per-battle session state machine, move choosers and the session registry.
package battle

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monsterbattle/internal/game/move"
)

// Ruleset selects the formula family a session resolves moves with. The two
// families have different damage scales and are never mixed in one session.
type Ruleset int

const (
	// Effects applies the per-move formula set over the faction catalog.
	Effects Ruleset = iota
	// Simple applies power × attack/defense × jitter over the arena catalog.
	Simple
)

// String returns the ruleset's configuration name.
func (r Ruleset) String() string {
	switch r {
	case Effects:
		return "effects"
	case Simple:
		return "simple"
	default:
		return fmt.Sprintf("ruleset(%d)", int(r))
	}
}

// Catalog returns the built-in move catalog the ruleset resolves against.
func (r Ruleset) Catalog() *move.Catalog {
	if r == Simple {
		return move.Arena()
	}
	return move.Faction()
}

// ParseRuleset converts a configuration name into a Ruleset.
func ParseRuleset(s string) (Ruleset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "effects":
		return Effects, nil
	case "simple":
		return Simple, nil
	}
	return 0, fmt.Errorf("unknown ruleset %q", s)
}
