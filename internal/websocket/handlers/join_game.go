package handlers

import (
	"context"

	"github.com/castlelight/gambit/internal/game"
	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/pkg/wire"
)

// JoinGame seats the caller as the second player. The joiner receives a
// join confirmation; the host receives the started game. Both emissions
// are produced before the handler returns.
func JoinGame(ctx context.Context, deps Deps, auth AuthContext, req wire.JoinGamePayload) EventResult {
	if req.GameID == "" {
		return failure(auth, wire.EventJoinGame, req.GameID, game.ErrGameNotFound)
	}

	view, err := withRetry(deps, func() (game.GameView, error) {
		return deps.Games().JoinGame(ctx, auth.Email(), auth.SocketID(), req.GameID)
	})
	if err != nil {
		return failure(auth, wire.EventJoinGame, req.GameID, err)
	}

	emissions := []Emission{
		newEmission(auth.SocketID(), wire.EventPlayerJoined, wire.PlayerJoinedEvent{
			GameID: view.ID,
			Status: view.Status,
		}),
	}
	for _, p := range view.Players {
		if p.Email == auth.Email() {
			continue
		}
		if p.SocketID == "" {
			logger.Warnf("game %s: %s has no live socket, %s not delivered", view.ID, p.Gamertag, wire.EventGameStarted)
			continue
		}
		emissions = append(emissions, newEmission(p.SocketID, wire.EventGameStarted, wire.GameStartedEvent{
			Game: toGameState(view),
		}))
	}

	return NewEventResult(emissions, []RoomChange{joinRoom(view.ID)})
}
