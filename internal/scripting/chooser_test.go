package scripting_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/game/move"
	"github.com/cory-johannsen/monsterbattle/internal/scripting"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newChooser(t *testing.T, body string, limit int) *scripting.Chooser {
	t.Helper()
	c, err := scripting.NewChooser(writeScript(t, body), limit, dice.NewSeededSource(1), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func decision(t *testing.T, selfHealth float64, names ...string) battle.Decision {
	t.Helper()
	var moves []move.Move
	for _, n := range names {
		m, err := move.Faction().Lookup(n)
		require.NoError(t, err)
		moves = append(moves, m)
	}
	self := monster.New("Scripted", monster.Rare, monster.Stats{Health: 100, Attack: 20, Defense: 10}, names)
	opp := monster.New("Foe", monster.Common, monster.Stats{Health: 80, Attack: 15, Defense: 5}, []string{"Basic Attack"})
	return battle.Decision{Self: self, Opponent: opp, SelfHealth: selfHealth, OpponentHealth: 80, Moves: moves}
}

const healer = `
function choose_move(self, opponent, moves)
  if self.health < self.max_health / 2 then
    for _, m in ipairs(moves) do
      if m.name == "Recover" then
        return "Recover", "low health, healing"
      end
    end
  end
  return moves[1].name, "pressing " .. opponent.name
end
`

func TestChooser_ReadsBattleState(t *testing.T) {
	c := newChooser(t, healer, 0)

	choice, err := c.ChooseMove(context.Background(), decision(t, 30, "Basic Attack", "Recover"))
	require.NoError(t, err)
	assert.Equal(t, battle.Choice{Move: "Recover", Reason: "low health, healing"}, choice)

	choice, err = c.ChooseMove(context.Background(), decision(t, 90, "Basic Attack", "Recover"))
	require.NoError(t, err)
	assert.Equal(t, battle.Choice{Move: "Basic Attack", Reason: "pressing Foe"}, choice)
}

func TestChooser_EngineRandom(t *testing.T) {
	c := newChooser(t, `
function choose_move(self, opponent, moves)
  local i = engine.random(#moves)
  engine.log("picked " .. i)
  return moves[i].name
end
`, 0)
	d := decision(t, 50, "Basic Attack", "Defend", "Recover")
	for i := 0; i < 20; i++ {
		choice, err := c.ChooseMove(context.Background(), d)
		require.NoError(t, err)
		assert.Contains(t, []string{"Basic Attack", "Defend", "Recover"}, choice.Move)
		assert.Empty(t, choice.Reason)
	}
}

func TestChooser_InstructionLimit(t *testing.T) {
	c := newChooser(t, `
function choose_move(self, opponent, moves)
  while true do end
end
`, 1000)
	_, err := c.ChooseMove(context.Background(), decision(t, 50, "Basic Attack"))
	assert.Error(t, err)

	// a fresh budget applies to every call
	_, err = c.ChooseMove(context.Background(), decision(t, 50, "Basic Attack"))
	assert.Error(t, err)
}

func TestChooser_NonStringResult(t *testing.T) {
	c := newChooser(t, `function choose_move() return 42 end`, 0)
	_, err := c.ChooseMove(context.Background(), decision(t, 50, "Basic Attack"))
	assert.Error(t, err)
}

func TestChooser_SandboxStripsDangerousGlobals(t *testing.T) {
	c := newChooser(t, `
function choose_move(self, opponent, moves)
  if dofile == nil and loadfile == nil and load == nil and require == nil and os == nil and io == nil then
    return "sandboxed"
  end
  return "leaky"
end
`, 0)
	choice, err := c.ChooseMove(context.Background(), decision(t, 50, "Basic Attack"))
	require.NoError(t, err)
	assert.Equal(t, "sandboxed", choice.Move)
}

func TestNewChooser_MissingHook(t *testing.T) {
	_, err := scripting.NewChooser(writeScript(t, `x = 1`), 0, dice.NewSeededSource(1), zaptest.NewLogger(t))
	assert.True(t, errors.Is(err, scripting.ErrNoHook))
}

func TestNewChooser_SyntaxError(t *testing.T) {
	_, err := scripting.NewChooser(writeScript(t, `function choose_move(`), 0, dice.NewSeededSource(1), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewChooser_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_helpers.lua"), []byte(`function first(moves) return moves[1].name end`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_policy.lua"), []byte(`function choose_move(s, o, m) return first(m), "helper" end`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`not lua`), 0o644))

	c, err := scripting.NewChooser(dir, 0, dice.NewSeededSource(1), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()
	choice, err := c.ChooseMove(context.Background(), decision(t, 50, "Defend"))
	require.NoError(t, err)
	assert.Equal(t, "Defend", choice.Move)
}

func TestChooser_DrivesSession(t *testing.T) {
	c := newChooser(t, healer, 0)
	player := monster.New("P", monster.Common, monster.Stats{Health: 100, Attack: 30, Defense: 5}, []string{"Basic Attack"})
	opp := monster.New("O", monster.Common, monster.Stats{Health: 100, Attack: 30, Defense: 5}, []string{"Quick Strike", "Recover"})
	s := battle.NewSession(player, opp, battle.WithChooser(c), battle.WithSource(dice.NewSeededSource(4)))
	require.NoError(t, s.Start())
	require.NoError(t, s.ApplyMove("Basic Attack"))
	_, err := s.AutoMove(context.Background())
	require.NoError(t, err)
	assert.Contains(t, s.Log(), "O's reasoning: pressing P")
}

func TestShippedOpponentScript(t *testing.T) {
	c, err := scripting.NewChooser(filepath.Join("..", "..", "content", "scripts"), 0, dice.NewSeededSource(3), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	choice, err := c.ChooseMove(context.Background(), decision(t, 20, "Basic Attack", "Recover"))
	require.NoError(t, err)
	assert.Equal(t, battle.Choice{Move: "Recover", Reason: "health is low, recovering"}, choice)

	for i := 0; i < 10; i++ {
		choice, err = c.ChooseMove(context.Background(), decision(t, 90, "Basic Attack", "Defend", "Recover"))
		require.NoError(t, err)
		assert.Contains(t, []string{"Basic Attack", "Defend", "Recover"}, choice.Move)
	}

	weakened := decision(t, 90, "Quick Strike", "Sky Strike", "Defend", "Basic Attack")
	weakened.OpponentHealth = 10
	choice, err = c.ChooseMove(context.Background(), weakened)
	require.NoError(t, err)
	assert.Equal(t, battle.Choice{Move: "Sky Strike", Reason: "Foe is nearly down"}, choice)
}
