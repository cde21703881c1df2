package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/art"
	"github.com/cory-johannsen/monsterbattle/internal/decision"
	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/game/move"
	"github.com/cory-johannsen/monsterbattle/internal/ledger"
	"github.com/cory-johannsen/monsterbattle/internal/reward"
	"github.com/cory-johannsen/monsterbattle/internal/storage/blob"
)

var (
	errBadRequest       = errors.New("bad request")
	errNotFound         = errors.New("not found")
	errCommandsDisabled = errors.New("natural-language commands are not configured")
)

var statusByError = []struct {
	err    error
	status int
}{
	// Terminal states win over the cause that produced them.
	{battle.ErrSessionHalted, http.StatusConflict},
	{battle.ErrBattleOver, http.StatusConflict},

	{errBadRequest, http.StatusBadRequest},
	{battle.ErrInvalidInitialState, http.StatusBadRequest},
	{battle.ErrInvalidMove, http.StatusBadRequest},
	{decision.ErrUnrecognisedCommand, http.StatusBadRequest},
	{ledger.ErrInvalidAccount, http.StatusBadRequest},

	{errNotFound, http.StatusNotFound},
	{battle.ErrSessionNotFound, http.StatusNotFound},
	{ledger.ErrFactionNotSet, http.StatusNotFound},
	{blob.ErrNotFound, http.StatusNotFound},
	{move.ErrMoveNotFound, http.StatusNotFound},

	{battle.ErrNoMovesAvailable, http.StatusConflict},
	{battle.ErrNotStarted, http.StatusConflict},
	{battle.ErrTurnLimit, http.StatusConflict},
	{ledger.ErrFactionAlreadySet, http.StatusConflict},
	{reward.ErrNotWon, http.StatusConflict},
	{reward.ErrAlreadyClaimed, http.StatusConflict},
	{reward.ErrStarterNotAllowed, http.StatusConflict},

	{battle.ErrDecisionFailed, http.StatusBadGateway},
	{monster.ErrArtGenerationFailed, http.StatusBadGateway},
	{art.ErrArtGeneration, http.StatusBadGateway},
	{blob.ErrUpload, http.StatusBadGateway},
	{ledger.ErrMint, http.StatusBadGateway},

	{errCommandsDisabled, http.StatusNotImplemented},
}

// statusOf maps err onto an HTTP status; unknown errors are 500.
func statusOf(err error) int {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body. extra, when non-nil, is attached as
// the "battle" field so clients see state changed before the failure.
func (s *Server) fail(c *gin.Context, err error, extra any) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.deps.Logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	if extra != nil {
		body["battle"] = extra
	}
	c.JSON(status, body)
}
