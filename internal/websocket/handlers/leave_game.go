package handlers

import (
	"context"

	"github.com/castlelight/gambit/internal/game"
	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/pkg/wire"
)

// LeaveGame removes the caller from a game. On a running game this is a
// resignation: the opponent wins and receives the terminal event. On a
// game that never started the caller just leaves the room.
func LeaveGame(ctx context.Context, deps Deps, auth AuthContext, req wire.LeaveGamePayload) EventResult {
	if req.GameID == "" {
		return failure(auth, wire.EventLeaveGame, req.GameID, game.ErrGameNotFound)
	}

	out, err := withRetry(deps, func() (game.LeaveOutcome, error) {
		return deps.Games().Leave(ctx, auth.Email(), auth.SocketID(), req.GameID)
	})
	if err != nil {
		return failure(auth, wire.EventLeaveGame, req.GameID, err)
	}

	rooms := []RoomChange{leaveRoom(out.Game.ID)}
	if !out.Resigned {
		return NewEventResult(nil, rooms)
	}

	var emissions []Emission
	for _, p := range out.Game.Players {
		if p.Email == auth.Email() {
			continue
		}
		if p.SocketID == "" {
			logger.Warnf("game %s: %s has no live socket, %s not delivered", out.Game.ID, p.Gamertag, wire.EventGameOver)
			continue
		}
		ev := wire.GameOverEvent{
			GameID:      out.Game.ID,
			FEN:         out.Game.FEN,
			Status:      out.Game.Status,
			Perspective: p.Color,
		}
		if out.Game.Winner != nil {
			w := playerInfo(*out.Game.Winner)
			ev.Winner = &w
		}
		emissions = append(emissions, newEmission(p.SocketID, wire.EventGameOver, ev))
		rooms = append(rooms, leaveRoomFor(p.SocketID, out.Game.ID))
	}

	return NewEventResult(emissions, rooms)
}
