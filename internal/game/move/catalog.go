package move

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMoveNotFound is returned by Lookup when no move has the requested name.
var ErrMoveNotFound = errors.New("move not found")

// Catalog is an immutable, ordered registry of moves keyed by name.
//
// Invariant: names are unique; every move passes Move.Validate.
type Catalog struct {
	name   string
	moves  []Move
	byName map[string]int
}

type catalogFile struct {
	Moves []Move `yaml:"moves"`
}

// NewCatalog builds a catalog from moves in the given order.
//
// Postcondition: Returns a catalog or an error listing every violation joined by "; ".
func NewCatalog(name string, moves []Move) (*Catalog, error) {
	c := &Catalog{
		name:   name,
		moves:  make([]Move, 0, len(moves)),
		byName: make(map[string]int, len(moves)),
	}
	var errs []string
	for _, m := range moves {
		if err := m.Validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if _, dup := c.byName[m.Name]; dup {
			errs = append(errs, fmt.Sprintf("move %q: duplicate name", m.Name))
			continue
		}
		c.byName[m.Name] = len(c.moves)
		c.moves = append(c.moves, m)
	}
	if len(c.moves) == 0 && len(errs) == 0 {
		errs = append(errs, "catalog has no moves")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog %q: %s", name, strings.Join(errs, "; "))
	}
	return c, nil
}

// Load parses a catalog from YAML of the form `moves: [...]`.
//
// Precondition: data must be a YAML document with a top-level moves list.
// Postcondition: Returns a validated catalog, or an error.
func Load(name string, data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog %q: %w", name, err)
	}
	return NewCatalog(name, f.Moves)
}

// Name returns the catalog's identifier.
func (c *Catalog) Name() string {
	return c.name
}

// Lookup returns the move named name.
//
// Postcondition: Returns ErrMoveNotFound (wrapped) if no such move exists.
func (c *Catalog) Lookup(name string) (Move, error) {
	idx, ok := c.byName[name]
	if !ok {
		return Move{}, fmt.Errorf("%w: %q in catalog %q", ErrMoveNotFound, name, c.name)
	}
	return c.moves[idx], nil
}

// Has reports whether the catalog contains a move named name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// All returns a copy of every move in catalog order.
func (c *Catalog) All() []Move {
	out := make([]Move, len(c.moves))
	copy(out, c.moves)
	return out
}

// Pool returns the moves belonging to p in catalog order.
func (c *Catalog) Pool(p Pool) []Move {
	var out []Move
	for _, m := range c.moves {
		if m.Pool == p {
			out = append(out, m)
		}
	}
	return out
}

// Names returns every move name in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.moves))
	for i, m := range c.moves {
		out[i] = m.Name
	}
	return out
}

// Descriptions maps each of the given move names to its description. Unknown
// names are skipped. With no arguments every move is described.
func (c *Catalog) Descriptions(names ...string) map[string]string {
	if len(names) == 0 {
		names = c.Names()
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		if idx, ok := c.byName[n]; ok {
			out[n] = c.moves[idx].Description
		}
	}
	return out
}

// Len returns the number of moves in the catalog.
func (c *Catalog) Len() int {
	return len(c.moves)
}
