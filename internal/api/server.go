// Package api exposes battles, accounts and artwork over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/ledger"
	"github.com/cory-johannsen/monsterbattle/internal/observability"
	"github.com/cory-johannsen/monsterbattle/internal/reward"
	"github.com/cory-johannsen/monsterbattle/internal/storage/blob"
)

// Interpreter maps a natural-language command onto one of the given moves
// (name to description).
type Interpreter interface {
	Interpret(ctx context.Context, query string, moves map[string]string) (string, error)
}

// HealthFunc reports whether a backing store is reachable.
type HealthFunc func(ctx context.Context) error

// Deps are the collaborators the handlers use.
type Deps struct {
	Manager   *battle.Manager
	Generator *monster.Generator
	Ledger    ledger.Ledger
	Rewards   *reward.Service
	Blobs     blob.Store
	Art       monster.ArtSource
	// Interpreter is optional; without it the command endpoint answers 501.
	Interpreter Interpreter
	Chooser     battle.Chooser
	Source      dice.Source
	Ruleset     battle.Ruleset
	MaxTurns    int
	ImageSize   int
	// Health is optional and backs GET /health.
	Health HealthFunc
	Logger *zap.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// NewServer creates a Server.
//
// Precondition: every Deps field except Interpreter and Health is set.
func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router builds the gin engine serving every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(observability.Recovery(s.deps.Logger), observability.RequestLogger(s.deps.Logger))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/moves", s.listMoves)

		battles := api.Group("/battles")
		battles.POST("", s.createBattle)
		battles.GET("/:id", s.getBattle)
		battles.DELETE("/:id", s.abandonBattle)
		battles.POST("/:id/moves", s.playMove)
		battles.POST("/:id/command", s.playCommand)
		battles.POST("/:id/auto", s.autoBattle)
		battles.POST("/:id/reward", s.claimReward)

		accounts := api.Group("/accounts/:account")
		accounts.GET("/monsters", s.ownedMonsters)
		accounts.GET("/faction", s.getFaction)
		accounts.PUT("/faction", s.setFaction)
		accounts.POST("/starter", s.starter)

		api.GET("/images/:address", s.image)
		api.POST("/art", s.generateArt)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	if s.deps.Health != nil {
		if err := s.deps.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
