package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/decision"
	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/game/move"
)

type createBattleRequest struct {
	Account      string          `json:"account" binding:"required"`
	MonsterIndex *int            `json:"monster_index"`
	Monster      *monster.Record `json:"monster"`
}

type battleResponse struct {
	ID     string          `json:"id"`
	Battle battle.Snapshot `json:"battle"`
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func (s *Server) listMoves(c *gin.Context) {
	cat := s.deps.Ruleset.Catalog()
	if name := c.Query("catalog"); name != "" {
		var err error
		if cat, err = move.Builtin(name); err != nil {
			s.fail(c, badRequest(err), nil)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"catalog": cat.Name(), "moves": cat.All()})
}

// playerMonster resolves the monster the player brings into a new battle.
func (s *Server) playerMonster(ctx context.Context, req createBattleRequest) (monster.Combatant, error) {
	switch {
	case req.Monster != nil:
		if req.Monster.Name == "" {
			return monster.Combatant{}, badRequest(errors.New("monster.name must not be empty"))
		}
		return s.deps.Generator.FromRecord(*req.Monster), nil
	case req.MonsterIndex != nil:
		owned, err := s.deps.Ledger.OwnedMonsters(ctx, req.Account)
		if err != nil {
			return monster.Combatant{}, err
		}
		i := *req.MonsterIndex
		if i < 0 || i >= len(owned) {
			return monster.Combatant{}, fmt.Errorf("%w: account owns %d monsters, index %d", errNotFound, len(owned), i)
		}
		return s.deps.Generator.FromRecord(owned[i]), nil
	}
	return monster.Combatant{}, badRequest(errors.New("one of monster_index or monster is required"))
}

func (s *Server) createBattle(c *gin.Context) {
	var req createBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err), nil)
		return
	}
	player, err := s.playerMonster(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	opponent := s.deps.Generator.GenerateOpponent()

	sess := battle.NewSession(player, opponent,
		battle.WithRuleset(s.deps.Ruleset),
		battle.WithSource(s.deps.Source),
		battle.WithChooser(s.deps.Chooser),
		battle.WithLogger(s.deps.Logger.Named("battle")),
		battle.WithAccount(req.Account),
	)
	if err := sess.Start(); err != nil {
		s.fail(c, err, nil)
		return
	}
	id := s.deps.Manager.Add(sess)
	s.deps.Logger.Info("battle created",
		zap.String("session_id", id),
		zap.String("account", req.Account),
		zap.String("player", player.Name),
		zap.String("opponent", opponent.Name),
		zap.Stringer("opponent_rarity", opponent.Rarity),
	)
	c.JSON(http.StatusCreated, battleResponse{ID: id, Battle: sess.Snapshot()})
}

// withSession runs fn on the session named by the :id parameter and replies
// with its snapshot. Failures after the session was found carry the snapshot.
func (s *Server) withSession(c *gin.Context, fn func(ctx context.Context, sess *battle.Session) error) {
	id := c.Param("id")
	var (
		snap  battle.Snapshot
		found bool
	)
	err := s.deps.Manager.Do(id, func(sess *battle.Session) error {
		found = true
		err := fn(c.Request.Context(), sess)
		snap = sess.Snapshot()
		return err
	})
	if err != nil {
		if found {
			s.fail(c, err, snap)
		} else {
			s.fail(c, err, nil)
		}
		return
	}
	c.JSON(http.StatusOK, battleResponse{ID: id, Battle: snap})
}

func (s *Server) getBattle(c *gin.Context) {
	s.withSession(c, func(context.Context, *battle.Session) error { return nil })
}

func (s *Server) abandonBattle(c *gin.Context) {
	if err := s.deps.Manager.End(c.Param("id")); err != nil {
		s.fail(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// opponentReply lets the opponent move when it is their turn.
func opponentReply(ctx context.Context, sess *battle.Session) error {
	if sess.Phase() != battle.InProgress || sess.CurrentTurn() != battle.Opponent {
		return nil
	}
	_, err := sess.AutoMove(ctx)
	return err
}

// playerTurn applies the player's move and the opponent's reply. An opponent
// move left pending by an earlier decision failure is played first.
func playerTurn(ctx context.Context, sess *battle.Session, name string) error {
	if err := opponentReply(ctx, sess); err != nil {
		return err
	}
	if err := sess.ApplyMove(name); err != nil {
		return err
	}
	return opponentReply(ctx, sess)
}

func (s *Server) playMove(c *gin.Context) {
	var req struct {
		Move string `json:"move" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err), nil)
		return
	}
	s.withSession(c, func(ctx context.Context, sess *battle.Session) error {
		return playerTurn(ctx, sess, req.Move)
	})
}

func (s *Server) playCommand(c *gin.Context) {
	if s.deps.Interpreter == nil {
		s.fail(c, errCommandsDisabled, nil)
		return
	}
	var req struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err), nil)
		return
	}
	s.withSession(c, func(ctx context.Context, sess *battle.Session) error {
		if err := opponentReply(ctx, sess); err != nil {
			return err
		}
		if sess.Phase() != battle.InProgress {
			// ApplyMove reports why the session is not playable.
			return sess.ApplyMove("")
		}
		moves := sess.Ruleset().Catalog().Descriptions(sess.Combatant(battle.Player).Moves...)
		name, err := s.deps.Interpreter.Interpret(ctx, req.Query, moves)
		if err != nil {
			if errors.Is(err, decision.ErrUnrecognisedCommand) {
				return err
			}
			return fmt.Errorf("%w: %w", battle.ErrDecisionFailed, err)
		}
		s.deps.Logger.Debug("command interpreted", zap.String("query", req.Query), zap.String("move", name))
		return playerTurn(ctx, sess, name)
	})
}

func (s *Server) autoBattle(c *gin.Context) {
	s.withSession(c, func(ctx context.Context, sess *battle.Session) error {
		return sess.Run(ctx, s.deps.MaxTurns)
	})
}

func (s *Server) claimReward(c *gin.Context) {
	id := c.Param("id")
	var (
		minted any
		snap   battle.Snapshot
		found  bool
	)
	err := s.deps.Manager.Do(id, func(sess *battle.Session) error {
		found = true
		snap = sess.Snapshot()
		m, err := s.deps.Rewards.Claim(c.Request.Context(), id, sess)
		minted = m
		return err
	})
	if err != nil {
		if found {
			s.fail(c, err, snap)
		} else {
			s.fail(c, err, nil)
		}
		return
	}
	c.JSON(http.StatusCreated, minted)
}
