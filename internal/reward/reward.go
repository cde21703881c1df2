// Package reward turns won battles into newly minted monsters.
package reward

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/art"
	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/ledger"
	"github.com/cory-johannsen/monsterbattle/internal/storage/blob"
)

var (
	// ErrNotWon is returned when claiming a battle the player has not won.
	ErrNotWon = errors.New("battle not won by player")
	// ErrAlreadyClaimed is returned when a battle's reward was already minted
	// or is being minted.
	ErrAlreadyClaimed = errors.New("reward already claimed")
	// ErrStarterNotAllowed is returned when the account already owns monsters.
	ErrStarterNotAllowed = errors.New("starter monster not allowed")
)

// Minted describes a monster added to an account.
type Minted struct {
	Monster      monster.Record       `json:"monster"`
	CreatureType monster.CreatureType `json:"creature_type"`
	Receipt      ledger.Receipt       `json:"receipt"`
}

// Service runs the reward and starter pipelines:
// generate, normalize art, upload, mint.
type Service struct {
	gen       *monster.Generator
	art       monster.ArtSource
	ledger    ledger.Ledger
	uploader  blob.Uploader
	imageSize int
	logger    *zap.Logger

	mu       sync.Mutex
	claimed  map[string]bool
	starting map[string]bool
}

// NewService creates a Service. art is used for starter artwork; reward
// artwork comes from gen.
//
// Precondition: all arguments non-nil; imageSize > 0.
func NewService(gen *monster.Generator, artSrc monster.ArtSource, led ledger.Ledger, up blob.Uploader, imageSize int, logger *zap.Logger) *Service {
	return &Service{
		gen:       gen,
		art:       artSrc,
		ledger:    led,
		uploader:  up,
		imageSize: imageSize,
		logger:    logger,
		claimed:   make(map[string]bool),
		starting:  make(map[string]bool),
	}
}

// Claim mints a reward monster for the player of a won session. A session is
// claimed at most once; a failed pipeline releases the claim so it can be
// retried. The session itself is never modified.
//
// Precondition: sess is not mutated concurrently.
// Postcondition: Returns ErrNotWon, ErrAlreadyClaimed,
// monster.ErrArtGenerationFailed, blob.ErrUpload or ledger.ErrMint (wrapped)
// on failure.
func (s *Service) Claim(ctx context.Context, sessionID string, sess *battle.Session) (Minted, error) {
	if sess.Phase() != battle.Finished {
		return Minted{}, fmt.Errorf("%w: battle is %s", ErrNotWon, sess.Phase())
	}
	if w, ok := sess.Winner(); !ok || w != battle.Player {
		return Minted{}, fmt.Errorf("%w: opponent won", ErrNotWon)
	}
	account, err := ledger.NormalizeAccount(sess.Account())
	if err != nil {
		return Minted{}, err
	}

	if !s.acquire(sessionID) {
		return Minted{}, fmt.Errorf("%w: session %s", ErrAlreadyClaimed, sessionID)
	}

	reward, err := s.gen.GenerateReward(ctx)
	if err != nil {
		s.release(sessionID)
		return Minted{}, err
	}
	minted, err := s.mint(ctx, account, reward.Combatant, reward.CreatureType, reward.Art)
	if err != nil {
		s.release(sessionID)
		return Minted{}, err
	}
	s.logger.Info("battle reward minted",
		zap.String("session_id", sessionID),
		zap.String("account", account),
		zap.String("token_id", minted.Receipt.TokenID),
		zap.String("name", minted.Monster.Name),
		zap.Stringer("rarity", minted.Monster.Rarity),
	)
	return minted, nil
}

// Claimed reports whether sessionID's reward has been claimed.
func (s *Service) Claimed(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed[sessionID]
}

// Starter mints an account's first monster for its faction. At most one
// starter per account is in flight at a time.
//
// Postcondition: Returns ledger.ErrFactionNotSet when no faction was chosen
// and ErrStarterNotAllowed when the account already owns a monster or
// another starter for it is being minted.
func (s *Service) Starter(ctx context.Context, account, name string) (Minted, error) {
	account, err := ledger.NormalizeAccount(account)
	if err != nil {
		return Minted{}, err
	}
	if !s.acquireStarter(account) {
		return Minted{}, fmt.Errorf("%w: starter for %s already in progress", ErrStarterNotAllowed, account)
	}
	defer s.releaseStarter(account)

	faction, err := s.ledger.Faction(ctx, account)
	if err != nil {
		return Minted{}, err
	}
	owned, err := s.ledger.OwnedMonsters(ctx, account)
	if err != nil {
		return Minted{}, fmt.Errorf("listing monsters: %w", err)
	}
	if len(owned) > 0 {
		return Minted{}, fmt.Errorf("%w: account owns %d monsters", ErrStarterNotAllowed, len(owned))
	}

	c, err := s.gen.GenerateStarter(name, faction)
	if err != nil {
		return Minted{}, err
	}
	creature := faction.CreatureType()
	img, err := s.art.Generate(ctx, creature, c.Rarity)
	if err != nil {
		return Minted{}, fmt.Errorf("%w: %v", monster.ErrArtGenerationFailed, err)
	}
	return s.mint(ctx, account, c, creature, img)
}

func (s *Service) mint(ctx context.Context, account string, c monster.Combatant, creature monster.CreatureType, img []byte) (Minted, error) {
	png, err := art.Normalize(img, s.imageSize)
	if err != nil {
		return Minted{}, fmt.Errorf("%w: %v", monster.ErrArtGenerationFailed, err)
	}
	addr, err := s.uploader.Upload(ctx, png, c.Name+".png")
	if err != nil {
		if errors.Is(err, blob.ErrUpload) {
			return Minted{}, err
		}
		return Minted{}, fmt.Errorf("%w: %v", blob.ErrUpload, err)
	}

	rec := monster.RecordOf(c)
	rec.ImageRef = addr
	receipt, err := s.ledger.MintMonster(ctx, ledger.MintRequest{Account: account, Monster: rec})
	if err != nil {
		if errors.Is(err, ledger.ErrMint) {
			return Minted{}, err
		}
		return Minted{}, fmt.Errorf("%w: %v", ledger.ErrMint, err)
	}
	rec.TokenID = receipt.TokenID
	return Minted{Monster: rec, CreatureType: creature, Receipt: receipt}, nil
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[id] {
		return false
	}
	s.claimed[id] = true
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.claimed, id)
	s.mu.Unlock()
}

func (s *Service) acquireStarter(account string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.starting[account] {
		return false
	}
	s.starting[account] = true
	return true
}

func (s *Service) releaseStarter(account string) {
	s.mu.Lock()
	delete(s.starting, account)
	s.mu.Unlock()
}
