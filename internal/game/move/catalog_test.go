package move_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monsterbattle/internal/game/move"
)

func TestFaction_PoolsArePartitioned(t *testing.T) {
	c := move.Faction()
	require.Equal(t, 15, c.Len())

	assert.Equal(t, []string{"Fire Blast", "Wing Shield", "Ancient Roar", "Sky Strike", "Inferno Surge"}, names(c.Pool(move.PoolDragon)))
	assert.Equal(t, []string{"Tiger Claw", "Shadow Leap", "Pounce Strike", "Ferocious Howl", "Lunar Ambush"}, names(c.Pool(move.PoolTiger)))
	assert.Equal(t, []string{"Basic Attack", "Defend", "Quick Strike", "Charge Up", "Recover"}, names(c.Pool(move.PoolCommon)))

	for _, m := range c.All() {
		assert.NotEmpty(t, m.Description, "move %q must carry a description", m.Name)
		assert.NotEqual(t, move.EffectNone, m.Effect, "faction move %q must have an effect", m.Name)
	}
}

func TestArena_PowersAndColors(t *testing.T) {
	c := move.Arena()
	require.Equal(t, 20, c.Len())

	fireball, err := c.Lookup("Fireball")
	require.NoError(t, err)
	assert.Equal(t, 40.0, fireball.Power)
	assert.Equal(t, "#FF4136", fireball.Color)

	void, err := c.Lookup("Void Blast")
	require.NoError(t, err)
	assert.Equal(t, 70.0, void.Power)
	assert.Equal(t, "#85144b", void.Color)
}

func TestLookup_Missing(t *testing.T) {
	_, err := move.Faction().Lookup("Hyper Beam")
	require.Error(t, err)
	assert.True(t, errors.Is(err, move.ErrMoveNotFound))
}

func TestDescriptions_SubsetAndUnknown(t *testing.T) {
	d := move.Faction().Descriptions("Recover", "Nope")
	require.Len(t, d, 1)
	assert.Equal(t, "Restores a small percentage of Health. High cooldown.", d["Recover"])
	assert.Len(t, move.Faction().Descriptions(), 15)
}

func TestBuiltin_UnknownName(t *testing.T) {
	_, err := move.Builtin("bogus")
	assert.Error(t, err)
	c, err := move.Builtin(move.ArenaCatalog)
	require.NoError(t, err)
	assert.Same(t, move.Arena(), c)
}

func TestLoad_CollectsViolations(t *testing.T) {
	data := []byte(`
moves:
  - name: Slam
    power: -1
    pool: common
    effect: none
  - name: Zap
    pool: lizard
    effect: none
  - name: Bite
    pool: common
    effect: chomp
  - name: Ok
    pool: common
    effect: none
  - name: Ok
    pool: common
    effect: none
`)
	_, err := move.Load("bad", data)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `move "Slam": power must be >= 0`)
	assert.Contains(t, msg, `move "Zap": unknown pool "lizard"`)
	assert.Contains(t, msg, `move "Bite": unknown effect "chomp"`)
	assert.Contains(t, msg, `move "Ok": duplicate name`)
}

func TestLoad_RejectsEmpty(t *testing.T) {
	_, err := move.Load("empty", []byte("moves: []\n"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := move.Load("broken", []byte("moves: [\n"))
	assert.Error(t, err)
}

func TestAll_ReturnsCopy(t *testing.T) {
	c := move.Arena()
	all := c.All()
	all[0].Name = "Mutated"
	assert.True(t, c.Has("Fireball"))
	assert.False(t, c.Has("Mutated"))
}

func TestNewCatalog_LookupRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		moves := make([]move.Move, n)
		for i := range moves {
			moves[i] = move.Move{
				Name:   rapid.StringMatching(`[A-Z][a-z]{2,8}`).Draw(rt, "name") + string(rune('a'+i)),
				Power:  rapid.Float64Range(0, 200).Draw(rt, "power"),
				Pool:   move.PoolCommon,
				Effect: move.EffectNone,
			}
		}
		c, err := move.NewCatalog("prop", moves)
		if err != nil {
			rt.Fatalf("NewCatalog: %v", err)
		}
		for _, m := range moves {
			got, err := c.Lookup(m.Name)
			if err != nil || got != m {
				rt.Fatalf("lookup %q: got %+v err %v", m.Name, got, err)
			}
		}
	})
}

func names(ms []move.Move) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}
