package monster

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
)

// RarityTable holds per-tier draw weights indexed by Rarity.
type RarityTable struct {
	Name    string
	Weights [4]int
}

var (
	// PrimaryRarities is the 65/20/10/5 table used for opponents and rewards.
	PrimaryRarities = RarityTable{Name: "primary", Weights: [4]int{65, 20, 10, 5}}
	// AlternateRarities is the 60/25/10/5 table used by the arena flow.
	AlternateRarities = RarityTable{Name: "alternate", Weights: [4]int{60, 25, 10, 5}}
)

// ParseRarityTable returns the named built-in table.
func ParseRarityTable(name string) (RarityTable, error) {
	switch strings.ToLower(name) {
	case PrimaryRarities.Name:
		return PrimaryRarities, nil
	case AlternateRarities.Name:
		return AlternateRarities, nil
	}
	return RarityTable{}, fmt.Errorf("unknown rarity table %q", name)
}

// Probability returns the chance of drawing r from the table.
func (t RarityTable) Probability(r Rarity) float64 {
	total := 0
	for _, w := range t.Weights {
		total += w
	}
	if !r.Valid() || total == 0 {
		return 0
	}
	return float64(t.Weights[r]) / float64(total)
}

// Draw picks a tier with probability proportional to its weight.
//
// Precondition: src must be non-nil and the table must have a positive weight.
func (t RarityTable) Draw(src dice.Source) Rarity {
	return Rarity(dice.WeightedIndex(src, t.Weights[:]))
}
