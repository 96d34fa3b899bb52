package handlers

import (
	"context"

	"github.com/castlelight/gambit/internal/game"
	"github.com/castlelight/gambit/pkg/wire"
)

// NewGame creates a game hosted by the caller and subscribes the
// calling socket to the game room. The payload's identity field is
// ignored; the host is the authenticated connection.
func NewGame(ctx context.Context, deps Deps, auth AuthContext, _ wire.NewGamePayload) EventResult {
	view, err := withRetry(deps, func() (game.GameView, error) {
		return deps.Games().CreateGame(ctx, auth.Email(), auth.SocketID())
	})
	if err != nil {
		return failure(auth, wire.EventNewGame, "", err)
	}

	return NewEventResult(
		[]Emission{
			newEmission(auth.SocketID(), wire.EventGameCreated, wire.GameCreatedEvent{
				Game: toGameState(view),
			}),
		},
		[]RoomChange{joinRoom(view.ID)},
	)
}
