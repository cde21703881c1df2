package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
)

// Memory is an in-process Ledger for standalone mode and tests.
// All methods are safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	monsters map[string][]monster.Record
	factions map[string]monster.Faction
	logger   *zap.Logger
}

// NewMemory creates an empty Memory ledger.
func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		nextID:   1,
		monsters: make(map[string][]monster.Record),
		factions: make(map[string]monster.Faction),
		logger:   logger,
	}
}

// OwnedMonsters returns copies of the account's monsters.
func (m *Memory) OwnedMonsters(_ context.Context, account string) ([]monster.Record, error) {
	a, err := NormalizeAccount(account)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]monster.Record, len(m.monsters[a]))
	for i, r := range m.monsters[a] {
		r.Moves = append([]string(nil), r.Moves...)
		out[i] = r
	}
	return out, nil
}

// MintMonster assigns the next token id and stores the monster.
func (m *Memory) MintMonster(_ context.Context, req MintRequest) (Receipt, error) {
	if err := req.Validate(); err != nil {
		return Receipt{}, err
	}
	a, err := NormalizeAccount(req.Account)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrMint, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := req.Monster
	rec.TokenID = strconv.FormatInt(m.nextID, 10)
	rec.Moves = append([]string(nil), rec.Moves...)
	m.nextID++
	m.monsters[a] = append(m.monsters[a], rec)
	receipt := Receipt{TokenID: rec.TokenID, TxHash: TxHash(a, rec.TokenID, rec.Name)}
	m.logger.Info("monster minted",
		zap.String("account", a),
		zap.String("token_id", rec.TokenID),
		zap.String("name", rec.Name),
		zap.Stringer("rarity", rec.Rarity),
	)
	return receipt, nil
}

// Faction returns the account's faction.
func (m *Memory) Faction(_ context.Context, account string) (monster.Faction, error) {
	a, err := NormalizeAccount(account)
	if err != nil {
		return monster.NoFaction, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.factions[a]
	if !ok {
		return monster.NoFaction, ErrFactionNotSet
	}
	return f, nil
}

// SetFaction assigns the account's faction once.
func (m *Memory) SetFaction(_ context.Context, account string, f monster.Faction) error {
	a, err := NormalizeAccount(account)
	if err != nil {
		return err
	}
	if !f.Valid() {
		return fmt.Errorf("invalid faction %d", int(f))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.factions[a]; ok {
		if cur == f {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrFactionAlreadySet, cur)
	}
	m.factions[a] = f
	return nil
}
