package handlers

import (
	"context"
	"time"

	"github.com/castlelight/gambit/internal/game"
)

// GameService is the subset of the session orchestrator used by socket
// handlers.
type GameService interface {
	CreateGame(ctx context.Context, email, socketID string) (game.GameView, error)
	JoinGame(ctx context.Context, email, socketID, gameID string) (game.GameView, error)
	ApplyMove(ctx context.Context, email, socketID, gameID string, req game.MoveRequest) (game.MoveOutcome, error)
	Leave(ctx context.Context, email, socketID, gameID string) (game.LeaveOutcome, error)
}

// Deps holds the narrow dependencies required by socket handlers.
type Deps struct {
	games GameService
	pause func(time.Duration)
}

// NewDeps builds a dependency bundle for handler calls.
func NewDeps(games GameService, pause func(time.Duration)) Deps {
	return Deps{games: games, pause: pause}
}

// Games returns the orchestrator surface.
func (d Deps) Games() GameService { return d.games }

// Pause blocks for the given duration; tests inject a no-op.
func (d Deps) Pause(dur time.Duration) {
	if d.pause != nil {
		d.pause(dur)
		return
	}
	time.Sleep(dur)
}
