package handlers

import (
	"context"
	"errors"

	"github.com/castlelight/gambit/internal/game"
	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/internal/models"
	"github.com/castlelight/gambit/pkg/wire"
)

// MakeMove applies a move to a running game. Both participants receive
// the outcome before the handler returns; their payloads differ only in
// the perspective field. An oracle rejection is reported to the acting
// socket only and is never broadcast.
func MakeMove(ctx context.Context, deps Deps, auth AuthContext, req wire.MakeMovePayload) EventResult {
	if req.GameID == "" {
		return failure(auth, wire.EventMakeMove, req.GameID, game.ErrGameNotFound)
	}

	out, err := withRetry(deps, func() (game.MoveOutcome, error) {
		return deps.Games().ApplyMove(ctx, auth.Email(), auth.SocketID(), req.GameID, game.MoveRequest{
			From:      req.Move.From,
			To:        req.Move.To,
			Promotion: req.Move.Promotion,
		})
	})
	if errors.Is(err, game.ErrIllegalMove) {
		return NewEventResult([]Emission{
			newEmission(auth.SocketID(), wire.EventIllegalMove, wire.IllegalMoveEvent{
				GameID:  req.GameID,
				Message: "illegal move",
			}),
		}, nil)
	}
	if err != nil {
		return failure(auth, wire.EventMakeMove, req.GameID, err)
	}

	view := out.Game
	gameOver := view.Status != models.GameStatusPlaying

	var emissions []Emission
	var rooms []RoomChange
	for _, p := range view.Players {
		if p.SocketID == "" {
			logger.Warnf("game %s: %s has no live socket, move outcome not delivered", view.ID, p.Gamertag)
			continue
		}
		if gameOver {
			ev := wire.GameOverEvent{
				GameID:      view.ID,
				FEN:         view.FEN,
				Status:      view.Status,
				Perspective: p.Color,
			}
			if view.Winner != nil {
				w := playerInfo(*view.Winner)
				ev.Winner = &w
			}
			emissions = append(emissions, newEmission(p.SocketID, wire.EventGameOver, ev))
			rooms = append(rooms, leaveRoomFor(p.SocketID, view.ID))
			continue
		}
		emissions = append(emissions, newEmission(p.SocketID, wire.EventMoveMade, wire.MoveMadeEvent{
			GameID:      view.ID,
			From:        out.From,
			To:          out.To,
			SAN:         out.SAN,
			FEN:         view.FEN,
			Status:      view.Status,
			CurrentTurn: turnPlayerID(view),
			Perspective: p.Color,
		}))
	}

	return NewEventResult(emissions, rooms)
}
