// Package move defines battle moves and the catalogs that hold them.
package move

import "fmt"

// Pool identifies which combatants may learn a move.
type Pool string

const (
	// PoolCommon moves are available to every faction.
	PoolCommon Pool = "common"
	// PoolDragon moves are exclusive to the Dragons faction.
	PoolDragon Pool = "dragon"
	// PoolTiger moves are exclusive to the Tigers faction.
	PoolTiger Pool = "tiger"
)

// Valid reports whether p is a known pool.
func (p Pool) Valid() bool {
	switch p {
	case PoolCommon, PoolDragon, PoolTiger:
		return true
	}
	return false
}

// Effect tags the per-move formula applied by the effect ruleset.
type Effect string

// Effect kinds. EffectNone marks moves that only carry a power value.
const (
	EffectNone          Effect = "none"
	EffectFireBlast     Effect = "fire_blast"
	EffectWingShield    Effect = "wing_shield"
	EffectAncientRoar   Effect = "ancient_roar"
	EffectSkyStrike     Effect = "sky_strike"
	EffectInfernoSurge  Effect = "inferno_surge"
	EffectTigerClaw     Effect = "tiger_claw"
	EffectShadowLeap    Effect = "shadow_leap"
	EffectPounceStrike  Effect = "pounce_strike"
	EffectFerociousHowl Effect = "ferocious_howl"
	EffectLunarAmbush   Effect = "lunar_ambush"
	EffectBasicAttack   Effect = "basic_attack"
	EffectDefend        Effect = "defend"
	EffectQuickStrike   Effect = "quick_strike"
	EffectChargeUp      Effect = "charge_up"
	EffectRecover       Effect = "recover"
)

var knownEffects = map[Effect]bool{
	EffectNone: true, EffectFireBlast: true, EffectWingShield: true,
	EffectAncientRoar: true, EffectSkyStrike: true, EffectInfernoSurge: true,
	EffectTigerClaw: true, EffectShadowLeap: true, EffectPounceStrike: true,
	EffectFerociousHowl: true, EffectLunarAmbush: true, EffectBasicAttack: true,
	EffectDefend: true, EffectQuickStrike: true, EffectChargeUp: true,
	EffectRecover: true,
}

// Valid reports whether e is a known effect kind.
func (e Effect) Valid() bool {
	return knownEffects[e]
}

// Move is a single named action a combatant may take on its turn.
type Move struct {
	Name        string  `yaml:"name" json:"name"`
	Power       float64 `yaml:"power" json:"power"`
	Color       string  `yaml:"color" json:"color,omitempty"`
	Pool        Pool    `yaml:"pool" json:"pool"`
	Effect      Effect  `yaml:"effect" json:"effect"`
	Description string  `yaml:"description" json:"description,omitempty"`
}

// Validate checks the move's own invariants.
//
// Postcondition: Returns nil iff Name is non-empty, Power >= 0, and Pool and
// Effect are known values.
func (m Move) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("move: name must not be empty")
	}
	if m.Power < 0 {
		return fmt.Errorf("move %q: power must be >= 0, got %v", m.Name, m.Power)
	}
	if !m.Pool.Valid() {
		return fmt.Errorf("move %q: unknown pool %q", m.Name, m.Pool)
	}
	if !m.Effect.Valid() {
		return fmt.Errorf("move %q: unknown effect %q", m.Name, m.Effect)
	}
	return nil
}
