package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/ledger"
)

// LedgerRepository is a ledger.Ledger stored in the monsters and factions tables.
type LedgerRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

var _ ledger.Ledger = (*LedgerRepository)(nil)

// NewLedgerRepository creates a LedgerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with migrations applied.
func NewLedgerRepository(db *pgxpool.Pool, logger *zap.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, logger: logger}
}

// OwnedMonsters returns the account's monsters ordered by token id.
func (r *LedgerRepository) OwnedMonsters(ctx context.Context, account string) ([]monster.Record, error) {
	a, err := ledger.NormalizeAccount(account)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx,
		`SELECT token_id, name, rarity, attack, defense, health, moves, image_ref
		 FROM monsters WHERE account = $1 ORDER BY token_id`, a)
	if err != nil {
		return nil, fmt.Errorf("querying monsters: %w", err)
	}
	defer rows.Close()

	var out []monster.Record
	for rows.Next() {
		var (
			rec     monster.Record
			tokenID int64
			rarity  int16
		)
		if err := rows.Scan(&tokenID, &rec.Name, &rarity, &rec.Attack, &rec.Defense, &rec.Health, &rec.Moves, &rec.ImageRef); err != nil {
			return nil, fmt.Errorf("scanning monster: %w", err)
		}
		rec.TokenID = strconv.FormatInt(tokenID, 10)
		rec.Rarity = monster.Rarity(rarity)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating monsters: %w", err)
	}
	return out, nil
}

// MintMonster reserves a token id and inserts the monster in one transaction.
//
// Postcondition: Returns ErrMint (wrapped) on validation or database failure.
func (r *LedgerRepository) MintMonster(ctx context.Context, req ledger.MintRequest) (ledger.Receipt, error) {
	if err := req.Validate(); err != nil {
		return ledger.Receipt{}, err
	}
	a, err := ledger.NormalizeAccount(req.Account)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("%w: %v", ledger.ErrMint, err)
	}
	m := req.Monster

	var receipt ledger.Receipt
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var tokenID int64
		if err := tx.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('monsters', 'token_id'))`).Scan(&tokenID); err != nil {
			return fmt.Errorf("reserving token id: %w", err)
		}
		receipt.TokenID = strconv.FormatInt(tokenID, 10)
		receipt.TxHash = ledger.TxHash(a, receipt.TokenID, m.Name)
		_, err := tx.Exec(ctx,
			`INSERT INTO monsters (token_id, account, name, rarity, attack, defense, health, moves, image_ref, tx_hash)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			tokenID, a, m.Name, int16(m.Rarity), m.Attack, m.Defense, m.Health, m.Moves, m.ImageRef, receipt.TxHash,
		)
		if err != nil {
			return fmt.Errorf("inserting monster: %w", err)
		}
		return nil
	})
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("%w: %v", ledger.ErrMint, err)
	}
	r.logger.Info("monster minted",
		zap.String("account", a),
		zap.String("token_id", receipt.TokenID),
		zap.String("name", m.Name),
	)
	return receipt, nil
}

// Faction returns the account's faction or ledger.ErrFactionNotSet.
func (r *LedgerRepository) Faction(ctx context.Context, account string) (monster.Faction, error) {
	a, err := ledger.NormalizeAccount(account)
	if err != nil {
		return monster.NoFaction, err
	}
	var f int16
	err = r.db.QueryRow(ctx, `SELECT faction FROM factions WHERE account = $1`, a).Scan(&f)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return monster.NoFaction, ledger.ErrFactionNotSet
		}
		return monster.NoFaction, fmt.Errorf("querying faction: %w", err)
	}
	return monster.Faction(f), nil
}

// SetFaction assigns the account's faction once.
//
// Postcondition: Returns ledger.ErrFactionAlreadySet (wrapped) when a
// different faction is already stored.
func (r *LedgerRepository) SetFaction(ctx context.Context, account string, f monster.Faction) error {
	a, err := ledger.NormalizeAccount(account)
	if err != nil {
		return err
	}
	if !f.Valid() {
		return fmt.Errorf("invalid faction %d", int(f))
	}
	_, err = r.db.Exec(ctx, `INSERT INTO factions (account, faction) VALUES ($1, $2)`, a, int16(f))
	if err == nil {
		return nil
	}
	if !isDuplicateKeyError(err) {
		return fmt.Errorf("inserting faction: %w", err)
	}
	cur, err := r.Faction(ctx, a)
	if err != nil {
		return err
	}
	if cur != f {
		return fmt.Errorf("%w: %s", ledger.ErrFactionAlreadySet, cur)
	}
	return nil
}
