package reward_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/game/move"
	"github.com/cory-johannsen/monsterbattle/internal/ledger"
	"github.com/cory-johannsen/monsterbattle/internal/reward"
	"github.com/cory-johannsen/monsterbattle/internal/storage/blob"
)

const account = "0xABCDEF"

type fakeArt struct {
	img   []byte
	err   error
	calls int
}

func (f *fakeArt) Generate(context.Context, monster.CreatureType, monster.Rarity) ([]byte, error) {
	f.calls++
	return f.img, f.err
}

// gatedArt blocks each Generate call until release is closed.
type gatedArt struct {
	img     []byte
	entered chan struct{}
	release chan struct{}
}

func (g *gatedArt) Generate(ctx context.Context, _ monster.CreatureType, _ monster.Rarity) ([]byte, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return g.img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, []byte, string) (string, error) {
	return "", errors.New("connection refused")
}

type failingMint struct{ ledger.Ledger }

func (failingMint) MintMonster(context.Context, ledger.MintRequest) (ledger.Receipt, error) {
	return ledger.Receipt{}, errors.New("gas exhausted")
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 200, A: 255}), imaging.PNG))
	return buf.Bytes()
}

type fixture struct {
	art    *fakeArt
	ledger *ledger.Memory
	blobs  *blob.Memory
	svc    *reward.Service
}

func newFixture(t *testing.T, up blob.Uploader, led ledger.Ledger) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := &fixture{
		art:    &fakeArt{img: pngBytes(t, 64, 32)},
		ledger: ledger.NewMemory(logger),
		blobs:  blob.NewMemory(),
	}
	if up == nil {
		up = f.blobs
	}
	if led == nil {
		led = f.ledger
	}
	gen := monster.NewGenerator(dice.NewSeededSource(7), move.Faction(), monster.PrimaryRarities, f.art, logger)
	f.svc = reward.NewService(gen, f.art, led, up, 16, logger)
	return f
}

func combatant(name string, atk, def, hp float64) monster.Combatant {
	return monster.New(name, monster.Common, monster.Stats{Health: hp, Attack: atk, Defense: def}, []string{"Basic Attack"})
}

// wonSession returns a battle the player wins on the first move.
func wonSession(t *testing.T) *battle.Session {
	t.Helper()
	s := battle.NewSession(combatant("A", 100, 50, 100), combatant("B", 10, 10, 50),
		battle.WithSource(dice.NewSeededSource(1)), battle.WithAccount(account))
	require.NoError(t, s.Start())
	require.NoError(t, s.ApplyMove("Basic Attack"))
	winner, ok := s.Winner()
	require.True(t, ok)
	require.Equal(t, battle.Player, winner)
	return s
}

func TestClaim_MintsRewardForWinner(t *testing.T) {
	f := newFixture(t, nil, nil)
	sess := wonSession(t)

	minted, err := f.svc.Claim(context.Background(), "s1", sess)
	require.NoError(t, err)

	assert.NotEmpty(t, minted.Receipt.TokenID)
	assert.Equal(t, minted.Receipt.TokenID, minted.Monster.TokenID)
	assert.Equal(t, minted.CreatureType, monster.CreatureTypeOf(minted.Monster.Name))
	assert.Len(t, minted.Monster.Moves, monster.MovesPerMonster)
	assert.True(t, blob.ValidAddress(minted.Monster.ImageRef))

	stored, err := f.blobs.Fetch(context.Background(), minted.Monster.ImageRef)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	owned, err := f.ledger.OwnedMonsters(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, minted.Monster.Name, owned[0].Name)
	assert.True(t, f.svc.Claimed("s1"))

	winner, _ := sess.Winner()
	assert.Equal(t, battle.Player, winner)
}

func TestClaim_AtMostOnce(t *testing.T) {
	f := newFixture(t, nil, nil)
	sess := wonSession(t)

	_, err := f.svc.Claim(context.Background(), "s1", sess)
	require.NoError(t, err)
	_, err = f.svc.Claim(context.Background(), "s1", sess)
	assert.True(t, errors.Is(err, reward.ErrAlreadyClaimed))

	owned, err := f.ledger.OwnedMonsters(context.Background(), account)
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestClaim_RejectsUnwonBattles(t *testing.T) {
	f := newFixture(t, nil, nil)

	inProgress := battle.NewSession(combatant("A", 1, 50, 100), combatant("B", 1, 50, 100), battle.WithAccount(account))
	require.NoError(t, inProgress.Start())
	_, err := f.svc.Claim(context.Background(), "p", inProgress)
	assert.True(t, errors.Is(err, reward.ErrNotWon))

	lost := battle.NewSession(combatant("A", 10, 10, 50), combatant("B", 100, 50, 100),
		battle.WithSource(dice.NewSeededSource(1)), battle.WithAccount(account))
	require.NoError(t, lost.Start())
	require.NoError(t, lost.ApplyMove("Basic Attack"))
	require.NoError(t, lost.ApplyMove("Basic Attack"))
	winner, ok := lost.Winner()
	require.True(t, ok)
	require.Equal(t, battle.Opponent, winner)
	_, err = f.svc.Claim(context.Background(), "l", lost)
	assert.True(t, errors.Is(err, reward.ErrNotWon))
	assert.Zero(t, f.art.calls)
}

func TestClaim_PipelineFailures(t *testing.T) {
	t.Run("art", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.art.err = errors.New("503")
		_, err := f.svc.Claim(context.Background(), "s", wonSession(t))
		assert.True(t, errors.Is(err, monster.ErrArtGenerationFailed))
		assert.False(t, f.svc.Claimed("s"), "failed claim is released")
	})
	t.Run("undecodable art", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.art.img = []byte("not an image")
		_, err := f.svc.Claim(context.Background(), "s", wonSession(t))
		assert.True(t, errors.Is(err, monster.ErrArtGenerationFailed))
	})
	t.Run("upload", func(t *testing.T) {
		f := newFixture(t, failingUploader{}, nil)
		_, err := f.svc.Claim(context.Background(), "s", wonSession(t))
		assert.True(t, errors.Is(err, blob.ErrUpload))
	})
	t.Run("mint", func(t *testing.T) {
		f := newFixture(t, nil, failingMint{ledger.NewMemory(zaptest.NewLogger(t))})
		_, err := f.svc.Claim(context.Background(), "s", wonSession(t))
		assert.True(t, errors.Is(err, ledger.ErrMint))
		assert.False(t, f.svc.Claimed("s"))
	})
}

func TestStarter(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.svc.Starter(ctx, account, "Sparky")
	assert.True(t, errors.Is(err, ledger.ErrFactionNotSet))

	require.NoError(t, f.ledger.SetFaction(ctx, account, monster.Tigers))
	minted, err := f.svc.Starter(ctx, account, "Sparky")
	require.NoError(t, err)
	assert.Equal(t, "Sparky", minted.Monster.Name)
	assert.Equal(t, monster.Common, minted.Monster.Rarity)
	assert.Equal(t, monster.Tiger, minted.CreatureType)
	for _, name := range minted.Monster.Moves {
		mv, err := move.Faction().Lookup(name)
		require.NoError(t, err)
		assert.Contains(t, []move.Pool{move.PoolTiger, move.PoolCommon}, mv.Pool)
	}

	_, err = f.svc.Starter(ctx, account, "Again")
	assert.True(t, errors.Is(err, reward.ErrStarterNotAllowed))
}

func TestStarter_ConcurrentRequestsMintOnce(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()
	led := ledger.NewMemory(logger)
	require.NoError(t, led.SetFaction(ctx, account, monster.Dragons))
	art := &gatedArt{img: pngBytes(t, 8, 8), entered: make(chan struct{}, 2), release: make(chan struct{})}
	gen := monster.NewGenerator(dice.NewSeededSource(3), move.Faction(), monster.PrimaryRarities, art, logger)
	svc := reward.NewService(gen, art, led, blob.NewMemory(), 16, logger)

	first := make(chan error, 1)
	go func() {
		_, err := svc.Starter(ctx, account, "First")
		first <- err
	}()
	<-art.entered

	_, err := svc.Starter(ctx, account, "Second")
	assert.True(t, errors.Is(err, reward.ErrStarterNotAllowed))

	close(art.release)
	require.NoError(t, <-first)

	owned, err := led.OwnedMonsters(ctx, account)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "First", owned[0].Name)
}

func TestStarter_FailureAllowsRetry(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	require.NoError(t, f.ledger.SetFaction(ctx, account, monster.Tigers))

	f.art.err = errors.New("upstream 503")
	_, err := f.svc.Starter(ctx, account, "Sparky")
	assert.True(t, errors.Is(err, monster.ErrArtGenerationFailed))

	f.art.err = nil
	_, err = f.svc.Starter(ctx, account, "Sparky")
	require.NoError(t, err)
}
