// Package ledger defines the external monster ledger: owned monsters, minting
// and faction membership. Memory is an in-process implementation; the
// postgres package provides the persistent one.
package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
)

var (
	// ErrMint is returned when a mint is rejected or fails.
	ErrMint = errors.New("mint failed")
	// ErrFactionNotSet is returned by Faction for accounts without a faction.
	ErrFactionNotSet = errors.New("faction not set")
	// ErrFactionAlreadySet is returned when changing an account's faction.
	ErrFactionAlreadySet = errors.New("faction already set")
	// ErrInvalidAccount is returned for an empty account address.
	ErrInvalidAccount = errors.New("invalid account")
)

// Ledger is the monster ownership ledger.
type Ledger interface {
	// OwnedMonsters returns the account's monsters in mint order.
	OwnedMonsters(ctx context.Context, account string) ([]monster.Record, error)
	// MintMonster records a new monster for req.Account.
	MintMonster(ctx context.Context, req MintRequest) (Receipt, error)
	// Faction returns the account's faction or ErrFactionNotSet.
	Faction(ctx context.Context, account string) (monster.Faction, error)
	// SetFaction assigns a faction once; repeating the same faction is a no-op.
	SetFaction(ctx context.Context, account string, f monster.Faction) error
}

// MintRequest asks the ledger to mint Monster for Account. Monster.TokenID is
// ignored and assigned by the ledger.
type MintRequest struct {
	Account string
	Monster monster.Record
}

// Receipt identifies a completed mint.
type Receipt struct {
	TokenID string `json:"token_id"`
	TxHash  string `json:"tx_hash"`
}

// NormalizeAccount canonicalises an account address.
//
// Postcondition: Returns ErrInvalidAccount (wrapped) for a blank address.
func NormalizeAccount(account string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(account))
	if a == "" {
		return "", fmt.Errorf("%w: empty address", ErrInvalidAccount)
	}
	return a, nil
}

// Validate checks that the request describes a mintable monster.
//
// Postcondition: Returns ErrMint (wrapped) listing every violation.
func (r MintRequest) Validate() error {
	var errs []string
	if strings.TrimSpace(r.Account) == "" {
		errs = append(errs, "account must not be empty")
	}
	m := r.Monster
	if m.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if !m.Rarity.Valid() {
		errs = append(errs, fmt.Sprintf("rarity %d is not valid", int(m.Rarity)))
	}
	if m.Attack <= 0 {
		errs = append(errs, "attack must be > 0")
	}
	if m.Defense < 0 {
		errs = append(errs, "defense must be >= 0")
	}
	if m.Health <= 0 {
		errs = append(errs, "health must be > 0")
	}
	if len(m.Moves) == 0 {
		errs = append(errs, "moves must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrMint, strings.Join(errs, "; "))
	}
	return nil
}

// TxHash derives the transaction hash recorded for a mint.
func TxHash(account, tokenID, name string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(account))
	h.Write([]byte{0})
	h.Write([]byte(tokenID))
	h.Write([]byte{0})
	h.Write([]byte(name))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
