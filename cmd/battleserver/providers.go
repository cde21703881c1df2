package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/api"
	"github.com/cory-johannsen/monsterbattle/internal/art"
	"github.com/cory-johannsen/monsterbattle/internal/config"
	"github.com/cory-johannsen/monsterbattle/internal/decision"
	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/ledger"
	"github.com/cory-johannsen/monsterbattle/internal/reward"
	"github.com/cory-johannsen/monsterbattle/internal/scripting"
	"github.com/cory-johannsen/monsterbattle/internal/storage/blob"
	"github.com/cory-johannsen/monsterbattle/internal/storage/postgres"
)

// providerSet wires the battle server from a loaded Config and logger.
var providerSet = wire.NewSet(
	provideSource,
	provideRuleset,
	provideRarityTable,
	provideArtClient,
	wire.Bind(new(monster.ArtSource), new(*art.Client)),
	provideGenerator,
	provideBackends,
	provideLedger,
	provideBlobs,
	provideChooser,
	provideInterpreter,
	provideRewards,
	provideManager,
	provideAPIServer,
	provideHTTPServer,
	wire.Struct(new(app), "*"),
)

// app is the assembled server.
type app struct {
	HTTP     *http.Server
	Backends *backends
}

// backends are the stores selected by server.mode.
type backends struct {
	Ledger ledger.Ledger
	Blobs  blob.Store
	// Health is nil in standalone mode.
	Health api.HealthFunc
}

func provideSource(cfg config.Config, logger *zap.Logger) dice.Source {
	var src dice.Source
	if cfg.Battle.Seed != 0 {
		logger.Info("using seeded randomness", zap.Int64("seed", cfg.Battle.Seed))
		src = dice.NewSeededSource(cfg.Battle.Seed)
	} else {
		src = dice.NewCryptoSource()
	}
	return dice.NewLoggedRoller(src, logger.Named("dice"))
}

func provideRuleset(cfg config.Config) (battle.Ruleset, error) {
	return battle.ParseRuleset(cfg.Battle.Ruleset)
}

func provideRarityTable(cfg config.Config) (monster.RarityTable, error) {
	return monster.ParseRarityTable(cfg.Battle.RarityTable)
}

func provideArtClient(cfg config.Config, src dice.Source, logger *zap.Logger) *art.Client {
	return art.NewClient(art.Options{
		BaseURL:     cfg.Art.BaseURL,
		APIKey:      cfg.Art.APIKey,
		Model:       cfg.Art.Model,
		StylePreset: cfg.Art.StylePreset,
		Timeout:     cfg.Art.Timeout,
		RetryMax:    cfg.Art.RetryMax,
	}, src, logger.Named("art"))
}

func provideGenerator(src dice.Source, ruleset battle.Ruleset, table monster.RarityTable, artSrc monster.ArtSource, logger *zap.Logger) *monster.Generator {
	return monster.NewGenerator(src, ruleset.Catalog(), table, artSrc, logger.Named("generator"))
}

// provideBackends opens PostgreSQL and Redis in persistent mode and falls
// back to in-memory stores in standalone mode.
func provideBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backends, func(), error) {
	if !cfg.Server.Persistent() {
		logger.Info("standalone mode: in-memory ledger and blob store")
		return &backends{
			Ledger: ledger.NewMemory(logger.Named("ledger")),
			Blobs:  blob.NewMemory(),
		}, func() {}, nil
	}

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	rdb, err := blob.Connect(ctx, cfg.Cache)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("cache connected", zap.String("addr", cfg.Cache.Addr))

	store := blob.NewRedisStore(rdb, cfg.Cache.BlobTTL, logger.Named("blob"))
	b := &backends{
		Ledger: postgres.NewLedgerRepository(pool.DB(), logger.Named("ledger")),
		Blobs:  store,
		Health: func(ctx context.Context) error {
			if err := pool.Health(ctx, 5*time.Second); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if err := store.Health(ctx, 5*time.Second); err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			return nil
		},
	}
	cleanup := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("closing cache", zap.Error(err))
		}
		pool.Close()
	}
	return b, cleanup, nil
}

func provideLedger(b *backends) ledger.Ledger { return b.Ledger }

func provideBlobs(b *backends) blob.Store { return b.Blobs }

func newDelegate(cfg config.Config, logger *zap.Logger) *decision.Delegate {
	return decision.NewDelegate(
		decision.NewMessageCreator(cfg.Decision.APIKey),
		cfg.Decision.Model,
		cfg.Decision.MaxTokens,
		logger.Named("decision"),
	)
}

// provideChooser builds the opponent move chooser named by decision.kind.
func provideChooser(cfg config.Config, src dice.Source, logger *zap.Logger) (battle.Chooser, func(), error) {
	switch cfg.Decision.Kind {
	case config.ChooserScript:
		c, err := scripting.NewChooser(cfg.Decision.ScriptPath, cfg.Decision.InstructionLimit, src, logger.Named("script"))
		if err != nil {
			return nil, nil, fmt.Errorf("loading opponent script: %w", err)
		}
		return c, c.Close, nil
	case config.ChooserLLM:
		return newDelegate(cfg, logger), func() {}, nil
	default:
		return battle.NewRandomChooser(src), func() {}, nil
	}
}

// provideInterpreter enables natural-language commands when a decision API
// key is configured.
func provideInterpreter(cfg config.Config, logger *zap.Logger) api.Interpreter {
	if cfg.Decision.APIKey == "" {
		return nil
	}
	return decision.NewInterpreter(newDelegate(cfg, logger))
}

func provideRewards(cfg config.Config, gen *monster.Generator, artSrc monster.ArtSource, led ledger.Ledger, blobs blob.Store, logger *zap.Logger) *reward.Service {
	return reward.NewService(gen, artSrc, led, blobs, cfg.Art.ImageSize, logger.Named("reward"))
}

func provideManager(logger *zap.Logger) *battle.Manager {
	return battle.NewManager(logger.Named("battles"))
}

func provideAPIServer(
	cfg config.Config,
	mgr *battle.Manager,
	gen *monster.Generator,
	b *backends,
	rewards *reward.Service,
	artSrc monster.ArtSource,
	interp api.Interpreter,
	chooser battle.Chooser,
	src dice.Source,
	ruleset battle.Ruleset,
	logger *zap.Logger,
) *api.Server {
	return api.NewServer(api.Deps{
		Manager:     mgr,
		Generator:   gen,
		Ledger:      b.Ledger,
		Rewards:     rewards,
		Blobs:       b.Blobs,
		Art:         artSrc,
		Interpreter: interp,
		Chooser:     chooser,
		Source:      src,
		Ruleset:     ruleset,
		MaxTurns:    cfg.Battle.MaxTurns,
		ImageSize:   cfg.Art.ImageSize,
		Health:      b.Health,
		Logger:      logger.Named("api"),
	})
}

func provideHTTPServer(cfg config.Config, srv *api.Server) *http.Server {
	if cfg.API.DebugRoutes {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return &http.Server{
		Addr:         cfg.API.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}
}
