package move

import (
	_ "embed"
	"fmt"
	"sync"
)

//go:embed data/faction.yaml
var factionYAML []byte

//go:embed data/arena.yaml
var arenaYAML []byte

// Built-in catalog names.
const (
	FactionCatalog = "faction"
	ArenaCatalog   = "arena"
)

var (
	faction = sync.OnceValue(func() *Catalog { return mustLoad(FactionCatalog, factionYAML) })
	arena   = sync.OnceValue(func() *Catalog { return mustLoad(ArenaCatalog, arenaYAML) })
)

// Faction returns the built-in catalog of fifteen effect moves split across
// the dragon, tiger and common pools.
func Faction() *Catalog {
	return faction()
}

// Arena returns the built-in catalog of twenty powered elemental moves.
func Arena() *Catalog {
	return arena()
}

// Builtin returns the built-in catalog with the given name.
//
// Postcondition: Returns an error for names other than "faction" and "arena".
func Builtin(name string) (*Catalog, error) {
	switch name {
	case FactionCatalog:
		return Faction(), nil
	case ArenaCatalog:
		return Arena(), nil
	}
	return nil, fmt.Errorf("unknown catalog %q", name)
}

func mustLoad(name string, data []byte) *Catalog {
	c, err := Load(name, data)
	if err != nil {
		panic(fmt.Sprintf("move: built-in catalog: %v", err))
	}
	return c
}
