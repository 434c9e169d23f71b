// Admin HTTP API
//
// Copyright (c) 2024, 2025  Atila Sos
//
// This file is part of crjm-server.
//
// crjm-server is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// crjm-server is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with crjm-server. If not, see
// <http://www.gnu.org/licenses/>

package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atilasos/crjm-server/game"
	"github.com/atilasos/crjm-server/tourney"
)

// Coordinator methods backing the admin API.  These take the
// coordinator lock because starting or restoring a tournament has to
// reach the connected players.

// CreateTournament opens registration for a game
func (co *Coordinator) CreateTournament(gameID, label string) (*tourney.Tournament, error) {
	return co.mgr.Create(gameID, label)
}

// AddBots fills a tournament with synthetic players
func (co *Coordinator) AddBots(tournamentID string, n int) error {
	t, err := co.mgr.Get(tournamentID)
	if err != nil {
		return err
	}
	if _, err := co.mgr.AddBots(tournamentID, n); err != nil {
		return err
	}
	co.mu.Lock()
	defer co.mu.Unlock()
	co.broadcast(t, tournamentState(t))
	return nil
}

// StartTournament seeds the bracket and announces the first round.
// Matches between bots start playing immediately.
func (co *Coordinator) StartTournament(tournamentID string) error {
	if err := co.mgr.Start(tournamentID); err != nil {
		return err
	}
	t, err := co.mgr.Get(tournamentID)
	if err != nil {
		return err
	}
	co.mu.Lock()
	defer co.mu.Unlock()
	co.log.Info().Str("tournament", t.ID).Str("game", t.GameID).
		Int("players", len(t.Players)).Msg("Tournament started")
	co.broadcast(t, tournamentState(t))
	co.announceMatches(t)
	return nil
}

// FinishTournament force-closes a tournament without a champion
func (co *Coordinator) FinishTournament(tournamentID string) error {
	if err := co.mgr.Finish(tournamentID); err != nil {
		return err
	}
	t, err := co.mgr.Get(tournamentID)
	if err != nil {
		return err
	}
	co.mu.Lock()
	defer co.mu.Unlock()
	co.broadcast(t, tournamentState(t))
	return nil
}

// ExportTournament serializes a tournament for download
func (co *Coordinator) ExportTournament(tournamentID string) ([]byte, error) {
	return co.mgr.Export(tournamentID)
}

// ImportTournament restores an exported tournament.  A tournament
// restored mid-run is put back in motion: its reverted matches are
// announced afresh so bots re-ready and humans see their assignment
// again.
func (co *Coordinator) ImportTournament(data []byte) (*tourney.Tournament, error) {
	t, err := co.mgr.Import(data)
	if err != nil {
		return nil, err
	}
	if t.Phase == tourney.Running {
		co.mu.Lock()
		for _, m := range t.Matches() {
			delete(co.announced, m.ID)
		}
		co.broadcast(t, tournamentState(t))
		co.announceMatches(t)
		co.mu.Unlock()
	}
	return t, nil
}

// gameInfo is one playable game in the catalog
type gameInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func gameCatalog() []gameInfo {
	var out []gameInfo
	for _, id := range game.IDs() {
		e, _ := game.ByID(id)
		out = append(out, gameInfo{ID: id, Name: e.String()})
	}
	return out
}

// registerAdminRoutes mounts the admin API under /api
func (co *Coordinator) registerAdminRoutes(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/games", func(c *gin.Context) {
		c.JSON(http.StatusOK, gameCatalog())
	})

	api.GET("/tournaments", func(c *gin.Context) {
		c.JSON(http.StatusOK, co.mgr.List())
	})

	api.POST("/tournaments", func(c *gin.Context) {
		var req struct {
			GameID   string `json:"gameId" binding:"required"`
			Label    string `json:"label"`
			BotCount int    `json:"botCount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		t, err := co.CreateTournament(req.GameID, req.Label)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if req.BotCount > 0 {
			if err := co.AddBots(t.ID, req.BotCount); err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusCreated, t.State())
	})

	api.GET("/tournaments/:id", func(c *gin.Context) {
		t, err := co.mgr.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, t.State())
	})

	api.POST("/tournaments/:id/bots", func(c *gin.Context) {
		var req struct {
			Count int `json:"count"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Count < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be at least 1"})
			return
		}
		if err := co.AddBots(c.Param("id"), req.Count); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/tournaments/:id/start", func(c *gin.Context) {
		if err := co.StartTournament(c.Param("id")); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/tournaments/:id/finish", func(c *gin.Context) {
		if err := co.FinishTournament(c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/tournaments/:id/export", func(c *gin.Context) {
		data, err := co.ExportTournament(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition",
			fmt.Sprintf("attachment; filename=%s.json", c.Param("id")))
		c.Data(http.StatusOK, "application/json", data)
	})

	// Not under /tournaments: gin cannot mix /tournaments/import with
	// /tournaments/:id
	api.POST("/import", func(c *gin.Context) {
		data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 4<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
			return
		}
		t, err := co.ImportTournament(data)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, t.State())
	})

	api.GET("/archive", func(c *gin.Context) {
		if co.archive == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive disabled"})
			return
		}
		list, err := co.archive.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.GET("/archive/:id", func(c *gin.Context) {
		if co.archive == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive disabled"})
			return
		}
		data, err := co.archive.LoadTournament(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not archived"})
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	})

	api.POST("/tournaments/:id/snapshot", func(c *gin.Context) {
		if co.archive == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive disabled"})
			return
		}
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id := c.Param("id")
		data, err := co.ExportTournament(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err := co.archive.SaveSnapshot(c.Request.Context(), req.Name, id, data); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/snapshots", func(c *gin.Context) {
		if co.archive == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive disabled"})
			return
		}
		list, err := co.archive.ListSnapshots(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.POST("/snapshots/:name/restore", func(c *gin.Context) {
		if co.archive == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive disabled"})
			return
		}
		data, err := co.archive.LoadSnapshot(c.Request.Context(), c.Param("name"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such snapshot"})
			return
		}
		t, err := co.ImportTournament(data)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, t.State())
	})
}
