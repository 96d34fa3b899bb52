// Package handlers holds the HTTP handlers: player registration and
// credential issuance, plus read-only game lookups.
package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/castlelight/gambit/internal/api/middleware"
	"github.com/castlelight/gambit/internal/crypto"
	"github.com/castlelight/gambit/internal/models"
	"github.com/castlelight/gambit/pkg/wire"
)

// defaultElo is the starting rating for new players.
const defaultElo = 1200

// playerRoles is the role set granted to locally registered players.
// Every player may host and join games.
var playerRoles = []string{"Host", "Player"}

// PlayersHandler serves player registration and profile reads.
type PlayersHandler struct {
	queries    *models.Queries
	jwtManager *crypto.JWTManager
}

// NewPlayersHandler creates the players handler.
func NewPlayersHandler(db *sql.DB, jwtManager *crypto.JWTManager) *PlayersHandler {
	return &PlayersHandler{
		queries:    models.New(db),
		jwtManager: jwtManager,
	}
}

// RegisterPlayerRequest is the POST /v1/players body.
type RegisterPlayerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Gamertag string `json:"gamertag" binding:"required"`
}

// RegisterPlayerResponse returns the created player and its credential.
type RegisterPlayerResponse struct {
	Player wire.PlayerInfo `json:"player"`
	Token  string          `json:"token"`
}

// PostPlayer registers a player and issues a signed credential carrying
// the host and player roles.
// POST /v1/players
func (h *PlayersHandler) PostPlayer(c *gin.Context) {
	var req RegisterPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.queries.CreatePlayer(c.Request.Context(), models.CreatePlayerParams{
		ID:       uuid.NewString(),
		Email:    req.Email,
		Gamertag: req.Gamertag,
		Elo:      defaultElo,
	})
	if isUniqueViolation(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "email or gamertag already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create player"})
		return
	}

	token, err := h.jwtManager.CreateToken(player.ID, player.Email, player.Gamertag, playerRoles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, RegisterPlayerResponse{
		Player: playerInfo(player),
		Token:  token,
	})
}

// GetMe returns the authorized caller's profile.
// GET /v1/players/me
func (h *PlayersHandler) GetMe(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	player, err := h.queries.GetPlayerByEmail(c.Request.Context(), ident.Email)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	c.JSON(http.StatusOK, playerInfo(player))
}

func playerInfo(p models.Player) wire.PlayerInfo {
	return wire.PlayerInfo{
		ID:       p.ID,
		Gamertag: p.Gamertag,
		Email:    p.Email,
		Elo:      p.Elo,
	}
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
