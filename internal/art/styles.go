package art

import (
	"fmt"

	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
)

// Style describes how a creature of one type and rarity is depicted.
type Style struct {
	Size   string
	Traits string
	Look   string
	Colors []string
}

type styleKey struct {
	creature monster.CreatureType
	rarity   monster.Rarity
}

var styles = map[styleKey]Style{
	{monster.Dragon, monster.Common}: {
		Size:   "small",
		Traits: "playful, friendly, smooth-scaled, glowing eyes",
		Look:   "a whimsical, approachable design",
		Colors: []string{"soft green", "gentle blue", "pastel yellow"},
	},
	{monster.Dragon, monster.Rare}: {
		Size:   "medium",
		Traits: "mystical, slightly intimidating, sharp scales, glowing veins",
		Look:   "a refined and magical design",
		Colors: []string{"emerald green", "royal purple", "bronze"},
	},
	{monster.Dragon, monster.Epic}: {
		Size:   "large",
		Traits: "battle-worn, fearsome, fire-spewing, highly detailed",
		Look:   "a dominating and aggressive appearance",
		Colors: []string{"fiery red", "obsidian black", "molten gold"},
	},
	{monster.Dragon, monster.Legendary}: {
		Size:   "huge",
		Traits: "mythical, awe-inspiring, surrounded by elemental effects, intricate wing patterns",
		Look:   "a grand, celestial design evoking godlike power",
		Colors: []string{"iridescent rainbow", "midnight blue with starlight specks", "silver and gold blend"},
	},
	{monster.Tiger, monster.Common}: {
		Size:   "small",
		Traits: "cute, playful, soft-furred, gentle gaze",
		Look:   "a cartoonish, approachable design",
		Colors: []string{"orange with white stripes", "golden yellow", "light gray"},
	},
	{monster.Tiger, monster.Rare}: {
		Size:   "medium",
		Traits: "a mature cub look, sharp-eyed, defined stripes",
		Look:   "a sleek, predatory appearance",
		Colors: []string{"purple and golden", "black and silver", "rich purple and blue"},
	},
	{monster.Tiger, monster.Epic}: {
		Size:   "large",
		Traits: "majestic, fierce, rippling muscles, intense glare",
		Look:   "a bold and commanding presence",
		Colors: []string{"white and gold scaled", "jet black", "peacock green feathered"},
	},
	{monster.Tiger, monster.Legendary}: {
		Size:   "huge",
		Traits: "ethereal, mythical, luminous aura, intricate stripe patterns",
		Look:   "a divine, celestial design blending predator and deity",
		Colors: []string{"glowing white with golden accents", "shimmering blue with silver stripes", "fire and ash pattern"},
	},
}

// StyleFor returns the depiction style for a creature type and rarity.
func StyleFor(creature monster.CreatureType, rarity monster.Rarity) (Style, error) {
	s, ok := styles[styleKey{creature, rarity}]
	if !ok {
		return Style{}, fmt.Errorf("%w: no style for %s %s", ErrArtGeneration, rarity, creature)
	}
	return s, nil
}

// Prompt renders the image prompt for a creature in the given color.
func Prompt(creature monster.CreatureType, rarity monster.Rarity, s Style, color string) string {
	return fmt.Sprintf("A hyperrealistic depiction of a %[1]s monster that looks like a %[2]s, "+
		"featuring a %[3]s build with %[4]s. It has %[5]s, and its unique coloration includes %[6]s. "+
		"This design embodies the essence of a %[1]s %[2]s-like monster.",
		rarity, creature, s.Size, s.Traits, s.Look, color)
}
