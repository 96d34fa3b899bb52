package handlers

import (
	"errors"

	"github.com/castlelight/gambit/internal/game"
	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/pkg/wire"
)

func playerInfo(p game.Player) wire.PlayerInfo {
	return wire.PlayerInfo{
		ID:       p.ID,
		Gamertag: p.Gamertag,
		Email:    p.Email,
		Elo:      p.Elo,
	}
}

// toGameState converts an orchestrator view to the wire shape. The wire
// currentTurn field carries the id of the player holding the turn, not
// their color.
func toGameState(v game.GameView) wire.GameState {
	state := wire.GameState{
		ID:          v.ID,
		Status:      v.Status,
		FEN:         v.FEN,
		CurrentTurn: turnPlayerID(v),
	}
	for _, p := range v.Players {
		state.Players = append(state.Players, playerInfo(p))
	}
	if v.Winner != nil {
		w := playerInfo(*v.Winner)
		state.Winner = &w
	}
	return state
}

// turnPlayerID resolves the color on turn to the seated player's id.
func turnPlayerID(v game.GameView) string {
	for _, p := range v.Players {
		if p.Color == v.CurrentTurn {
			return p.ID
		}
	}
	return ""
}

// clientMessage maps orchestrator failures to client-safe messages.
// Internal error detail never reaches the payload.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrIdentityNotFound):
		return "player not registered"
	case errors.Is(err, game.ErrGameNotFound):
		return "game not found"
	case errors.Is(err, game.ErrGameFullOrFinished):
		return "game unavailable"
	case errors.Is(err, game.ErrNotInGame):
		return "not a participant"
	case errors.Is(err, game.ErrOpponentUnresolved):
		return "opponent unavailable"
	case errors.Is(err, game.ErrUpstreamUnavailable):
		return "temporarily unavailable, try again"
	default:
		return "internal error"
	}
}

// failure logs the original error with game id, identity, and message
// kind, and produces a generic error emission to the acting socket.
func failure(auth AuthContext, kind, gameID string, err error) EventResult {
	logger.Warnf("%s for game %q from %s failed: %v", kind, gameID, auth.Email(), err)
	return NewEventResult([]Emission{
		newEmission(auth.SocketID(), wire.EventError, wire.ErrorEvent{Message: clientMessage(err)}),
	}, nil)
}
