package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/ledger"
	"github.com/cory-johannsen/monsterbattle/internal/storage/postgres"
	"github.com/cory-johannsen/monsterbattle/internal/testutil"
)

func uniqueAccount(prefix string) string {
	return fmt.Sprintf("0x%s%d", prefix, time.Now().UnixNano())
}

func sampleRecord(name string) monster.Record {
	return monster.Record{Name: name, Rarity: monster.Epic, Attack: 90, Defense: 80, Health: 210,
		Moves: []string{"Fire Blast", "Recover", "Defend", "Sky Strike"}, ImageRef: "0xbeef"}
}

func TestLedgerRepository(t *testing.T) {
	repo := postgres.NewLedgerRepository(testutil.NewPool(t), zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("mint and list", func(t *testing.T) {
		acct := uniqueAccount("MINT")
		r1, err := repo.MintMonster(ctx, ledger.MintRequest{Account: acct, Monster: sampleRecord("Ember")})
		require.NoError(t, err)
		r2, err := repo.MintMonster(ctx, ledger.MintRequest{Account: acct, Monster: sampleRecord("Cinder")})
		require.NoError(t, err)
		assert.NotEqual(t, r1.TokenID, r2.TokenID)
		assert.Equal(t, ledger.TxHash(strings.ToLower(acct), r1.TokenID, "Ember"), r1.TxHash)

		owned, err := repo.OwnedMonsters(ctx, acct)
		require.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, "Ember", owned[0].Name)
		assert.Equal(t, r1.TokenID, owned[0].TokenID)
		assert.Equal(t, monster.Epic, owned[0].Rarity)
		assert.Equal(t, []string{"Fire Blast", "Recover", "Defend", "Sky Strike"}, owned[0].Moves)
		assert.Equal(t, "0xbeef", owned[0].ImageRef)
	})

	t.Run("mint rejects invalid monster", func(t *testing.T) {
		bad := sampleRecord("")
		_, err := repo.MintMonster(ctx, ledger.MintRequest{Account: uniqueAccount("BAD"), Monster: bad})
		assert.True(t, errors.Is(err, ledger.ErrMint))
	})

	t.Run("faction set once", func(t *testing.T) {
		acct := uniqueAccount("FAC")
		_, err := repo.Faction(ctx, acct)
		assert.True(t, errors.Is(err, ledger.ErrFactionNotSet))

		require.NoError(t, repo.SetFaction(ctx, acct, monster.Dragons))
		require.NoError(t, repo.SetFaction(ctx, acct, monster.Dragons))
		f, err := repo.Faction(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, monster.Dragons, f)
		assert.True(t, errors.Is(repo.SetFaction(ctx, acct, monster.Tigers), ledger.ErrFactionAlreadySet))
	})

	t.Run("stats survive storage", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			rec := monster.Record{
				Name:    rapid.StringMatching(`[A-Z][a-z]{2,12}`).Draw(rt, "name"),
				Rarity:  monster.Rarity(rapid.IntRange(0, 3).Draw(rt, "rarity")),
				Attack:  rapid.IntRange(1, 500).Draw(rt, "attack"),
				Defense: rapid.IntRange(0, 500).Draw(rt, "defense"),
				Health:  rapid.IntRange(1, 1000).Draw(rt, "health"),
				Moves:   []string{"Basic Attack"},
			}
			acct := uniqueAccount("P")
			receipt, err := repo.MintMonster(ctx, ledger.MintRequest{Account: acct, Monster: rec})
			if err != nil {
				rt.Fatalf("mint: %v", err)
			}
			owned, err := repo.OwnedMonsters(ctx, acct)
			if err != nil || len(owned) != 1 {
				rt.Fatalf("owned: %v %v", owned, err)
			}
			rec.TokenID = receipt.TokenID
			if owned[0].Name != rec.Name || owned[0].Attack != rec.Attack || owned[0].Defense != rec.Defense ||
				owned[0].Health != rec.Health || owned[0].Rarity != rec.Rarity || owned[0].TokenID != rec.TokenID {
				rt.Fatalf("stored %+v, got %+v", rec, owned[0])
			}
		})
	})
}
