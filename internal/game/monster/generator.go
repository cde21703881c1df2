package monster

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/move"
)

// MovesPerMonster is the size of every generated move set.
const MovesPerMonster = 4

// ErrArtGenerationFailed is returned by GenerateReward when no artwork could be produced.
var ErrArtGenerationFailed = errors.New("art generation failed")

// Names is the fixed pool generated monsters are named from.
var Names = []string{
	"InfernoDragon", "AbyssalDragon", "CelestialDragon", "NecroDragon", "SpectralDragon",
	"DreadDragon", "EclipseDragon", "StormDragon", "VoidDragon", "BloodDragon",
	"FlameTiger", "AquaTiger", "ThunderTiger", "ShadowTiger", "FrostTiger",
	"VenomTiger", "StoneTiger", "WindTiger", "LightTiger", "DarkTiger",
}

// ArtSource produces creature artwork.
type ArtSource interface {
	Generate(ctx context.Context, creature CreatureType, rarity Rarity) ([]byte, error)
}

// Reward is a freshly generated monster with its artwork.
type Reward struct {
	Combatant    Combatant
	CreatureType CreatureType
	Art          []byte
}

type statBand struct{ lo, hi int }

type starterBands struct{ attack, defense, health statBand }

var starterStats = map[Rarity]starterBands{
	Common:    {attack: statBand{8, 9}, defense: statBand{4, 5}, health: statBand{90, 109}},
	Rare:      {attack: statBand{12, 14}, defense: statBand{7, 8}, health: statBand{120, 139}},
	Epic:      {attack: statBand{17, 19}, defense: statBand{11, 12}, health: statBand{150, 169}},
	Legendary: {attack: statBand{23, 24}, defense: statBand{14, 15}, health: statBand{180, 199}},
}

// Generator creates random combatants.
//
// Invariant: every draw goes through src.
type Generator struct {
	src     dice.Source
	catalog *move.Catalog
	table   RarityTable
	art     ArtSource
	logger  *zap.Logger
}

// NewGenerator creates a Generator drawing opponent moves from catalog and
// rarities from table. art may be nil when rewards are never generated.
//
// Precondition: src, catalog and logger must be non-nil; catalog must hold at
// least MovesPerMonster moves.
func NewGenerator(src dice.Source, catalog *move.Catalog, table RarityTable, art ArtSource, logger *zap.Logger) *Generator {
	return &Generator{src: src, catalog: catalog, table: table, art: art, logger: logger}
}

// Catalog returns the catalog opponent moves are drawn from.
func (g *Generator) Catalog() *move.Catalog {
	return g.catalog
}

// GenerateOpponent returns a random monster with rarity-scaled stats and
// four distinct moves from the generator's catalog.
//
// Postcondition: attack and defense lie in [floor(50*m), floor(99*m)] and
// health in [floor(100*m), floor(199*m)] where m is the rarity multiplier.
func (g *Generator) GenerateOpponent() Combatant {
	name := Names[g.src.Intn(len(Names))]
	return g.generate(name)
}

func (g *Generator) generate(name string) Combatant {
	rarity := g.table.Draw(g.src)
	mult := rarity.Multiplier()
	stats := Stats{
		Attack:  math.Floor(float64(dice.IntRange(g.src, 50, 99)) * mult),
		Defense: math.Floor(float64(dice.IntRange(g.src, 50, 99)) * mult),
		Health:  math.Floor(float64(dice.IntRange(g.src, 100, 199)) * mult),
	}
	c := New(name, rarity, stats, g.drawMoves(g.catalog.All()))
	g.logger.Debug("generated monster",
		zap.String("name", c.Name),
		zap.Stringer("rarity", c.Rarity),
		zap.Strings("moves", c.Moves),
	)
	return c
}

// GenerateStarter returns a common first monster for a faction, named by the
// player, with four distinct moves from the faction and common pools.
//
// Precondition: faction must be valid and name non-empty.
func (g *Generator) GenerateStarter(name string, faction Faction) (Combatant, error) {
	if !faction.Valid() {
		return Combatant{}, fmt.Errorf("generate starter: invalid faction %d", int(faction))
	}
	if name == "" {
		return Combatant{}, errors.New("generate starter: name must not be empty")
	}
	cat := move.Faction()
	pool := append(cat.Pool(faction.Pool()), cat.Pool(move.PoolCommon)...)
	bands := starterStats[Common]
	stats := Stats{
		Attack:  float64(dice.IntRange(g.src, bands.attack.lo, bands.attack.hi)),
		Defense: float64(dice.IntRange(g.src, bands.defense.lo, bands.defense.hi)),
		Health:  float64(dice.IntRange(g.src, bands.health.lo, bands.health.hi)),
	}
	c := New(name, Common, stats, g.drawMoves(pool))
	g.logger.Info("generated starter",
		zap.String("name", c.Name),
		zap.Stringer("faction", faction),
		zap.Strings("moves", c.Moves),
	)
	return c, nil
}

// GenerateReward generates a monster and its artwork. The creature type is
// drawn uniformly and the name from that type's half of Names.
//
// Postcondition: On any art failure returns ErrArtGenerationFailed (wrapped) and no reward.
func (g *Generator) GenerateReward(ctx context.Context) (Reward, error) {
	creature := CreatureTypes[g.src.Intn(len(CreatureTypes))]
	var candidates []string
	for _, n := range Names {
		if CreatureTypeOf(n) == creature {
			candidates = append(candidates, n)
		}
	}
	c := g.generate(candidates[g.src.Intn(len(candidates))])
	if g.art == nil {
		return Reward{}, fmt.Errorf("%w: no art source configured", ErrArtGenerationFailed)
	}
	img, err := g.art.Generate(ctx, creature, c.Rarity)
	if err != nil {
		g.logger.Warn("reward art generation failed",
			zap.String("creature", string(creature)),
			zap.Stringer("rarity", c.Rarity),
			zap.Error(err),
		)
		return Reward{}, fmt.Errorf("%w: %v", ErrArtGenerationFailed, err)
	}
	if len(img) == 0 {
		return Reward{}, fmt.Errorf("%w: empty image", ErrArtGenerationFailed)
	}
	return Reward{Combatant: c, CreatureType: creature, Art: img}, nil
}

// FromRecord turns a ledger record into a combatant for a battle using the
// generator's catalog. Stored moves are kept when every one of them exists in
// the catalog; otherwise four moves are drawn from it.
func (g *Generator) FromRecord(r Record) Combatant {
	c := r.Combatant()
	if len(c.Moves) > 0 && g.allKnown(c.Moves) {
		return c
	}
	c.Moves = g.drawMoves(g.catalog.All())
	return c
}

func (g *Generator) allKnown(names []string) bool {
	for _, n := range names {
		if !g.catalog.Has(n) {
			return false
		}
	}
	return true
}

func (g *Generator) drawMoves(pool []move.Move) []string {
	k := MovesPerMonster
	if len(pool) < k {
		k = len(pool)
	}
	out := make([]string, 0, k)
	for _, idx := range dice.Pick(g.src, len(pool), k) {
		out = append(out, pool[idx].Name)
	}
	return out
}
