package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/castlelight/gambit/internal/game"
	"github.com/castlelight/gambit/pkg/wire"
)

// GamesHandler serves read-only game lookups.
type GamesHandler struct {
	games *game.Service
}

// NewGamesHandler creates the games handler.
func NewGamesHandler(games *game.Service) *GamesHandler {
	return &GamesHandler{games: games}
}

// GetGame returns the current state of a game by its short code.
// GET /v1/games/:id
func (h *GamesHandler) GetGame(c *gin.Context) {
	view, err := h.games.GetGame(c.Request.Context(), c.Param("id"))
	if errors.Is(err, game.ErrGameNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	c.JSON(http.StatusOK, toGameState(view))
}

func toGameState(v game.GameView) wire.GameState {
	state := wire.GameState{
		ID:     v.ID,
		Status: v.Status,
		FEN:    v.FEN,
	}
	for _, p := range v.Players {
		state.Players = append(state.Players, wire.PlayerInfo{
			ID:       p.ID,
			Gamertag: p.Gamertag,
			Email:    p.Email,
			Elo:      p.Elo,
		})
		if p.Color == v.CurrentTurn {
			state.CurrentTurn = p.ID
		}
		if v.Winner != nil && v.Winner.ID == p.ID {
			w := state.Players[len(state.Players)-1]
			state.Winner = &w
		}
	}
	return state
}
