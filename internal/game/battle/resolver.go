package battle

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/game/move"
)

// ErrUnsupportedEffect is returned when the effect ruleset meets a move
// without a formula.
var ErrUnsupportedEffect = errors.New("move has no effect formula")

// Chances used by the effect formulas.
const (
	burnChance    = 0.3
	reflectChance = 0.3
	stunChance    = 0.2
	critChance    = 0.3
)

// BattleState is the role-relative working set passed through resolution:
// Attacker is the move's user, Defender its target.
type BattleState struct {
	Attacker monster.Stats
	Defender monster.Stats
}

// Resolution is the outcome of applying one move.
type Resolution struct {
	State BattleState
	// Damage is the formula damage dealt to the defender before health is
	// floored, including any burn.
	Damage    float64
	Burned    bool
	Reflected float64
	Critical  bool
	Stunned   bool
}

// ResolveSimple applies the generic formula
// floor(power × attack/max(defense, 1) × U(0.9, 1.1)).
//
// Precondition: attacker.Attack >= 0 and mv.Power >= 0.
// Postcondition: result.Damage >= 0 and finite; defender health is floored at 0;
// attacker stats are unchanged.
func ResolveSimple(src dice.Source, state BattleState, mv move.Move) Resolution {
	def := state.Defender.Defense
	if def < 1 {
		def = 1
	}
	jitter := dice.Uniform(src, 0.9, 1.1)
	damage := math.Floor(mv.Power * (state.Attacker.Attack / def) * jitter)
	if damage < 0 || math.IsNaN(damage) {
		damage = 0
	}
	out := state
	out.Defender.Health = floorHealth(out.Defender.Health - damage)
	return Resolution{State: out, Damage: damage}
}

// ResolveEffect applies the per-move formula selected by mv.Effect.
//
// Postcondition: healths are floored at 0; returns ErrUnsupportedEffect
// (wrapped) for moves without a formula, leaving state untouched.
func ResolveEffect(src dice.Source, state BattleState, mv move.Move) (Resolution, error) {
	a, d := state.Attacker, state.Defender
	res := Resolution{}

	switch mv.Effect {
	case move.EffectFireBlast:
		res.Damage = strike(a.Attack*1.5, d.Defense)
		if dice.Chance(src, burnChance) {
			res.Burned = true
			res.Damage += d.Health * 0.05
		}
		d.Health -= res.Damage
	case move.EffectWingShield:
		if dice.Chance(src, reflectChance) {
			res.Reflected = strike(d.Attack*0.5, a.Defense)
			a.Health -= res.Reflected
		}
	case move.EffectAncientRoar:
		if d.HasSpeed {
			d.Speed *= 0.8
		}
		d.Defense *= 0.8
	case move.EffectSkyStrike:
		res.Damage = strike(a.Attack*2, d.Defense)
		d.Health -= res.Damage
		if dice.Chance(src, stunChance) {
			res.Stunned = true
			d.Stunned = true
		}
	case move.EffectInfernoSurge:
		res.Damage = strike(a.Attack*2, d.Defense)
		d.Health -= res.Damage
		a.Health -= a.Health * 0.1
	case move.EffectTigerClaw:
		crit := 1.0
		if dice.Chance(src, critChance) {
			res.Critical = true
			crit = 2
		}
		res.Damage = strike(a.Attack*1.2*crit, d.Defense)
		d.Health -= res.Damage
	case move.EffectShadowLeap:
		if a.HasSpeed {
			a.Speed *= 1.3
		}
	case move.EffectPounceStrike:
		speed := 0.0
		if d.HasSpeed {
			speed = d.Speed
		}
		res.Damage = strike(a.Attack+0.5*speed, d.Defense)
		d.Health -= res.Damage
	case move.EffectFerociousHowl:
		a.Attack *= 1.2
		if a.HasSpeed {
			a.Speed *= 1.2
		}
	case move.EffectLunarAmbush:
		res.Damage = strike(a.Attack*2, d.Defense)
		d.Health -= res.Damage
	case move.EffectBasicAttack:
		res.Damage = strike(a.Attack, d.Defense)
		d.Health -= res.Damage
	case move.EffectDefend:
		d.Defense *= 1.3
	case move.EffectQuickStrike:
		res.Damage = strike(a.Attack*0.8, d.Defense)
		d.Health -= res.Damage
	case move.EffectChargeUp:
		a.Attack *= 1.5
	case move.EffectRecover:
		a.Health += a.Health * 0.2
	default:
		return Resolution{State: state}, fmt.Errorf("%w: %q (%s)", ErrUnsupportedEffect, mv.Name, mv.Effect)
	}

	a.Health = floorHealth(a.Health)
	d.Health = floorHealth(d.Health)
	res.State = BattleState{Attacker: a, Defender: d}
	return res, nil
}

// Resolve dispatches to the formula family selected by ruleset.
func Resolve(ruleset Ruleset, src dice.Source, state BattleState, mv move.Move) (Resolution, error) {
	if ruleset == Simple {
		return ResolveSimple(src, state, mv), nil
	}
	return ResolveEffect(src, state, mv)
}

func strike(power, defense float64) float64 {
	return math.Max(0, power-defense)
}

func floorHealth(h float64) float64 {
	if h < 0 || math.IsNaN(h) {
		return 0
	}
	return h
}
