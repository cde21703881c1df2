package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
)

// No catalog move drops both sides to zero in one resolution, so the
// mover's health is forced to zero before the move executes.
func TestExecute_BothSidesAtZeroMoverWins(t *testing.T) {
	player := monster.New("A", monster.Common, monster.Stats{Health: 100, Attack: 100, Defense: 5}, []string{"Inferno Surge", "Defend"})
	opponent := monster.New("B", monster.Common, monster.Stats{Health: 10, Attack: 10, Defense: 5}, []string{"Basic Attack"})

	s := NewSession(player, opponent, WithSource(dice.NewSeededSource(1)), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, s.Start())
	s.stats[Player].Health = 0

	mv, err := s.catalog.Lookup("Inferno Surge")
	require.NoError(t, err)
	require.NoError(t, s.execute(mv, ""))

	assert.Equal(t, 0.0, s.stats[Player].Health)
	assert.Equal(t, 0.0, s.stats[Opponent].Health)
	assert.Equal(t, Finished, s.Phase())
	winner, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, Player, winner)
}

func TestExecute_MoverAtZeroLosesWhenTargetSurvives(t *testing.T) {
	player := monster.New("A", monster.Common, monster.Stats{Health: 100, Attack: 100, Defense: 5}, []string{"Defend"})
	opponent := monster.New("B", monster.Common, monster.Stats{Health: 10, Attack: 10, Defense: 5}, []string{"Basic Attack"})

	s := NewSession(player, opponent, WithSource(dice.NewSeededSource(1)), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, s.Start())
	s.stats[Player].Health = 0

	mv, err := s.catalog.Lookup("Defend")
	require.NoError(t, err)
	require.NoError(t, s.execute(mv, ""))

	winner, ok := s.Winner()
	require.True(t, ok)
	assert.Equal(t, Opponent, winner)
}
