package battle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/game/move"
)

var (
	// ErrInvalidInitialState is returned by Start when a combatant cannot fight.
	ErrInvalidInitialState = errors.New("invalid initial battle state")
	// ErrNoMovesAvailable halts a session whose side to move has no moves.
	ErrNoMovesAvailable = errors.New("no moves available")
	// ErrInvalidMove is returned for a move outside the mover's set.
	ErrInvalidMove = errors.New("invalid move")
	// ErrBattleOver is returned for moves attempted after the battle finished.
	ErrBattleOver = errors.New("battle is over")
	// ErrSessionHalted is returned for moves attempted after a fatal error.
	ErrSessionHalted = errors.New("battle session halted")
	// ErrNotStarted is returned for moves attempted before Start.
	ErrNotStarted = errors.New("battle not started")
	// ErrTurnLimit is returned by Run when the battle outlasts its turn budget.
	ErrTurnLimit = errors.New("battle turn limit reached")
)

// Side identifies one of the two combatants of a session.
type Side int

const (
	Player Side = iota
	Opponent
)

// String returns "player" or "opponent".
func (s Side) String() string {
	if s == Opponent {
		return "opponent"
	}
	return "player"
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Other returns the opposing side.
func (s Side) Other() Side {
	return 1 - s
}

// Phase is the lifecycle stage of a session.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Finished
	Halted
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Option configures a Session.
type Option func(*Session)

// WithRuleset selects the formula family. The default is Effects.
func WithRuleset(r Ruleset) Option {
	return func(s *Session) { s.ruleset = r }
}

// WithSource injects the randomness source. The default is crypto/rand.
func WithSource(src dice.Source) Option {
	return func(s *Session) { s.src = src }
}

// WithChooser sets the chooser used by AutoMove. The default picks uniformly
// at random from the session's source.
func WithChooser(c Chooser) Option {
	return func(s *Session) { s.chooser = c }
}

// WithLogger sets the session logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithAccount records the account that owns the player side.
func WithAccount(account string) Option {
	return func(s *Session) { s.account = account }
}

// Session is one battle between a player combatant and an opponent.
//
// A Session is not safe for concurrent use; Manager.Do serialises access.
type Session struct {
	ruleset Ruleset
	catalog *move.Catalog
	src     dice.Source
	chooser Chooser
	logger  *zap.Logger
	account string

	combatants [2]monster.Combatant
	stats      [2]monster.Stats
	turn       Side
	turns      int
	phase      Phase
	winner     Side
	log        []string
	err        error
}

// NewSession creates a session in the NotStarted phase.
//
// Postcondition: both sides are at their combatants' full stats and Player moves first.
func NewSession(player, opponent monster.Combatant, opts ...Option) *Session {
	s := &Session{
		ruleset:    Effects,
		logger:     zap.NewNop(),
		combatants: [2]monster.Combatant{player, opponent},
		stats:      [2]monster.Stats{player.Stats, opponent.Stats},
		turn:       Player,
		phase:      NotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		s.src = dice.NewCryptoSource()
	}
	if s.chooser == nil {
		s.chooser = NewRandomChooser(s.src)
	}
	s.catalog = s.ruleset.Catalog()
	return s
}

// Start validates both combatants and moves the session to InProgress.
//
// Postcondition: Returns ErrInvalidInitialState (wrapped) if any side has
// health <= 0, attack <= 0, or a move absent from the ruleset's catalog;
// the session then stays NotStarted.
func (s *Session) Start() error {
	if s.phase != NotStarted {
		return fmt.Errorf("%w: session already %s", ErrInvalidInitialState, s.phase)
	}
	for _, side := range []Side{Player, Opponent} {
		c := s.combatants[side]
		st := s.stats[side]
		if !(st.Health > 0) || math.IsInf(st.Health, 0) {
			return fmt.Errorf("%w: %s %q has health %v", ErrInvalidInitialState, side, c.Name, st.Health)
		}
		if !(st.Attack > 0) || math.IsInf(st.Attack, 0) {
			return fmt.Errorf("%w: %s %q has attack %v", ErrInvalidInitialState, side, c.Name, st.Attack)
		}
		for _, name := range c.Moves {
			if !s.catalog.Has(name) {
				return fmt.Errorf("%w: %s %q knows %q, not in the %s catalog",
					ErrInvalidInitialState, side, c.Name, name, s.catalog.Name())
			}
		}
	}
	s.phase = InProgress
	s.logger.Info("battle started",
		zap.String("player", s.combatants[Player].Name),
		zap.String("opponent", s.combatants[Opponent].Name),
		zap.Stringer("ruleset", s.ruleset),
	)
	return nil
}

// ApplyMove resolves the named move for the side whose turn it is.
//
// Postcondition: On ErrInvalidMove the session is unchanged and the move may
// be retried. An empty move set halts the session with ErrNoMovesAvailable.
func (s *Session) ApplyMove(name string) error {
	if err := s.checkPlayable(); err != nil {
		return err
	}
	mover := s.combatants[s.turn]
	if len(mover.Moves) == 0 {
		return s.halt(fmt.Errorf("%w: %s %q", ErrNoMovesAvailable, s.turn, mover.Name))
	}
	if !mover.HasMove(name) {
		return fmt.Errorf("%w: %q is not a move of %q", ErrInvalidMove, name, mover.Name)
	}
	mv, err := s.catalog.Lookup(name)
	if err != nil {
		return s.halt(err)
	}
	return s.execute(mv, "")
}

// AutoMove asks the session's chooser for the current side's move and applies it.
//
// Postcondition: A chooser error is returned wrapped in ErrDecisionFailed and
// leaves the session unchanged. A chosen name outside the mover's set halts
// the session with ErrInvalidMove.
func (s *Session) AutoMove(ctx context.Context) (Choice, error) {
	if err := s.checkPlayable(); err != nil {
		return Choice{}, err
	}
	side := s.turn
	mover := s.combatants[side]
	if len(mover.Moves) == 0 {
		return Choice{}, s.halt(fmt.Errorf("%w: %s %q", ErrNoMovesAvailable, side, mover.Name))
	}
	moves := make([]move.Move, 0, len(mover.Moves))
	for _, name := range mover.Moves {
		mv, err := s.catalog.Lookup(name)
		if err != nil {
			return Choice{}, s.halt(err)
		}
		moves = append(moves, mv)
	}
	choice, err := s.chooser.ChooseMove(ctx, Decision{
		Self:           mover,
		Opponent:       s.combatants[side.Other()],
		SelfHealth:     s.stats[side].Health,
		OpponentHealth: s.stats[side.Other()].Health,
		Moves:          moves,
	})
	if err != nil {
		s.logger.Warn("move decision failed", zap.Stringer("side", side), zap.Error(err))
		return Choice{}, fmt.Errorf("%w: %w", ErrDecisionFailed, err)
	}
	if !mover.HasMove(choice.Move) {
		return choice, s.halt(fmt.Errorf("%w: chooser picked %q for %q", ErrInvalidMove, choice.Move, mover.Name))
	}
	mv, err := s.catalog.Lookup(choice.Move)
	if err != nil {
		return choice, s.halt(err)
	}
	return choice, s.execute(mv, choice.Reason)
}

// Run auto-plays both sides until the battle finishes.
//
// Precondition: maxTurns > 0.
// Postcondition: Returns nil once Finished, ErrTurnLimit after maxTurns
// transitions without a winner, or the first error from AutoMove or ctx.
func (s *Session) Run(ctx context.Context, maxTurns int) error {
	if maxTurns <= 0 {
		return fmt.Errorf("run: maxTurns must be > 0, got %d", maxTurns)
	}
	for played := 0; s.phase != Finished; played++ {
		if played >= maxTurns {
			return fmt.Errorf("%w: %d turns", ErrTurnLimit, maxTurns)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.AutoMove(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) checkPlayable() error {
	switch s.phase {
	case NotStarted:
		return ErrNotStarted
	case Finished:
		return ErrBattleOver
	case Halted:
		return fmt.Errorf("%w: %w", ErrSessionHalted, s.err)
	}
	return nil
}

func (s *Session) execute(mv move.Move, reason string) error {
	mover, target := s.turn, s.turn.Other()
	res, err := Resolve(s.ruleset, s.src, BattleState{Attacker: s.stats[mover], Defender: s.stats[target]}, mv)
	if err != nil {
		return s.halt(err)
	}
	s.stats[mover] = res.State.Attacker
	s.stats[target] = res.State.Defender
	s.turns++

	name := s.combatants[mover].Name
	s.log = append(s.log, fmt.Sprintf("%s used %s and dealt %s damage!", name, mv.Name, formatAmount(res.Damage)))
	if reason != "" {
		s.log = append(s.log, fmt.Sprintf("%s's reasoning: %s", name, reason))
	}
	s.logger.Debug("move resolved",
		zap.Int("turn", s.turns),
		zap.String("mover", name),
		zap.String("move", mv.Name),
		zap.Float64("damage", res.Damage),
		zap.Float64("player_health", s.stats[Player].Health),
		zap.Float64("opponent_health", s.stats[Opponent].Health),
	)

	switch {
	case s.stats[target].Health <= 0:
		s.finish(mover)
	case s.stats[mover].Health <= 0:
		s.finish(target)
	default:
		s.turn = target
	}
	return nil
}

func (s *Session) finish(winner Side) {
	s.phase = Finished
	s.winner = winner
	s.logger.Info("battle finished",
		zap.Stringer("winner", winner),
		zap.String("winner_name", s.combatants[winner].Name),
		zap.Int("turns", s.turns),
	)
}

// halt records err as the session's fatal cause.
//
// Postcondition: The returned error matches both ErrSessionHalted and err.
func (s *Session) halt(err error) error {
	s.phase = Halted
	s.err = err
	s.logger.Warn("battle halted", zap.Error(err))
	return fmt.Errorf("%w: %w", ErrSessionHalted, err)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// Phase returns the session's lifecycle stage.
func (s *Session) Phase() Phase { return s.phase }

// CurrentTurn returns the side to move next.
func (s *Session) CurrentTurn() Side { return s.turn }

// Turns returns the number of moves resolved so far.
func (s *Session) Turns() int { return s.turns }

// Winner returns the winning side once the session is Finished.
func (s *Session) Winner() (Side, bool) {
	return s.winner, s.phase == Finished
}

// Err returns the error that halted the session, if any.
func (s *Session) Err() error { return s.err }

// Account returns the account owning the player side.
func (s *Session) Account() string { return s.account }

// Ruleset returns the session's formula family.
func (s *Session) Ruleset() Ruleset { return s.ruleset }

// Combatant returns the combatant on side.
func (s *Session) Combatant(side Side) monster.Combatant { return s.combatants[side] }

// Stats returns the current stats of side.
func (s *Session) Stats(side Side) monster.Stats { return s.stats[side] }

// PlayerHealth returns the player's current health.
func (s *Session) PlayerHealth() float64 { return s.stats[Player].Health }

// OpponentHealth returns the opponent's current health.
func (s *Session) OpponentHealth() float64 { return s.stats[Opponent].Health }

// Log returns a copy of the append-only battle log.
func (s *Session) Log() []string {
	out := make([]string, len(s.log))
	copy(out, s.log)
	return out
}

// Snapshot is a serialisable view of a session.
type Snapshot struct {
	Phase         Phase             `json:"phase"`
	Ruleset       string            `json:"ruleset"`
	CurrentTurn   Side              `json:"current_turn"`
	Turns         int               `json:"turns"`
	Winner        *Side             `json:"winner,omitempty"`
	Player        monster.Combatant `json:"player"`
	Opponent      monster.Combatant `json:"opponent"`
	PlayerStats   monster.Stats     `json:"player_stats"`
	OpponentStats monster.Stats     `json:"opponent_stats"`
	Log           []string          `json:"log"`
	Error         string            `json:"error,omitempty"`
}

// Snapshot captures the session's current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:         s.phase,
		Ruleset:       s.ruleset.String(),
		CurrentTurn:   s.turn,
		Turns:         s.turns,
		Player:        s.combatants[Player],
		Opponent:      s.combatants[Opponent],
		PlayerStats:   s.stats[Player],
		OpponentStats: s.stats[Opponent],
		Log:           s.Log(),
	}
	if w, ok := s.Winner(); ok {
		snap.Winner = &w
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}
