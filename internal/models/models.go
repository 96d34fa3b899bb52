package models

import (
	"database/sql"
	"time"
)

// Player is a durable identity. CurrentSocketID is the most recently
// seen live connection and is never used as identity.
type Player struct {
	ID              string
	Email           string
	Gamertag        string
	Elo             int64
	CurrentSocketID sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Game is the durable session record. Version backs optimistic
// concurrency on the write paths.
type Game struct {
	ID          string
	Status      string
	Fen         string
	CurrentTurn string
	WinnerID    sql.NullString
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GamePlayer seats a player in a game. Position 0 is the host (white),
// position 1 the joiner (black).
type GamePlayer struct {
	GameID   string
	PlayerID string
	Position int64
}
