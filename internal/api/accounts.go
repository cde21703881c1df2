package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cory-johannsen/monsterbattle/internal/art"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/storage/blob"
)

func (s *Server) ownedMonsters(c *gin.Context) {
	account := c.Param("account")
	owned, err := s.deps.Ledger.OwnedMonsters(c.Request.Context(), account)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	if owned == nil {
		owned = []monster.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "monsters": owned})
}

func (s *Server) getFaction(c *gin.Context) {
	account := c.Param("account")
	f, err := s.deps.Ledger.Faction(c.Request.Context(), account)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "faction": f.String()})
}

func (s *Server) setFaction(c *gin.Context) {
	var req struct {
		Faction string `json:"faction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err), nil)
		return
	}
	f, err := monster.ParseFaction(req.Faction)
	if err != nil || !f.Valid() {
		s.fail(c, badRequest(fmt.Errorf("faction %q", req.Faction)), nil)
		return
	}
	account := c.Param("account")
	if err := s.deps.Ledger.SetFaction(c.Request.Context(), account, f); err != nil {
		s.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "faction": f.String()})
}

func (s *Server) starter(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err), nil)
		return
	}
	minted, err := s.deps.Rewards.Starter(c.Request.Context(), c.Param("account"), req.Name)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, minted)
}

func (s *Server) image(c *gin.Context) {
	addr := c.Param("address")
	if !blob.ValidAddress(addr) {
		s.fail(c, badRequest(fmt.Errorf("malformed address %q", addr)), nil)
		return
	}
	data, err := s.deps.Blobs.Fetch(c.Request.Context(), addr)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	if name, err := s.deps.Blobs.Filename(c.Request.Context(), addr); err == nil && name != "" {
		c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) generateArt(c *gin.Context) {
	var req struct {
		CreatureType string `json:"creature_type" binding:"required"`
		Rarity       string `json:"rarity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err), nil)
		return
	}
	creature, err := monster.ParseCreatureType(req.CreatureType)
	if err != nil {
		s.fail(c, badRequest(err), nil)
		return
	}
	rarity, err := monster.ParseRarity(req.Rarity)
	if err != nil {
		s.fail(c, badRequest(err), nil)
		return
	}
	img, err := s.deps.Art.Generate(c.Request.Context(), creature, rarity)
	if err != nil {
		if !errors.Is(err, art.ErrArtGeneration) {
			err = fmt.Errorf("%w: %v", art.ErrArtGeneration, err)
		}
		s.fail(c, err, nil)
		return
	}
	png, err := art.Normalize(img, s.deps.ImageSize)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", art.ErrArtGeneration, err), nil)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
