package websocket

import (
	"context"
	"errors"

	socket "github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/castlelight/gambit/internal/auth"
	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/internal/websocket/handlers"
	"github.com/castlelight/gambit/pkg/wire"
)

// denialMessage maps a gate denial to a fixed client-safe message.
// Verifier internals stay in the log, never in the payload.
func denialMessage(err error) string {
	if errors.Is(err, auth.ErrAccessDenied) {
		return "insufficient permissions"
	}
	return "invalid authentication token"
}

func (s *SocketIOServer) registerClientHandlers(client *socket.Socket, socketID string) {
	onGameEvent[wire.NewGamePayload](s, client, wire.EventNewGame, handlers.NewGame)
	onGameEvent[wire.JoinGamePayload](s, client, wire.EventJoinGame, handlers.JoinGame)
	onGameEvent[wire.MakeMovePayload](s, client, wire.EventMakeMove, handlers.MakeMove)
	onGameEvent[wire.LeaveGamePayload](s, client, wire.EventLeaveGame, handlers.LeaveGame)

	client.On("disconnect", func(data ...any) {
		sd := s.getSocketData(socketID)
		reason := ""
		if len(data) > 0 {
			if r, ok := data[0].(string); ok {
				reason = r
			}
		}
		// Seats survive a disconnect; only the socket mapping is
		// dropped. A reconnect re-associates via the next message.
		logger.Infof("player disconnected: %s (socket %s, reason: %s)", sd.Gamertag, socketID, reason)
		s.socketData.Delete(socketID)
	})
}

// onGameEvent registers a typed game event: decode, authorize against
// the message's role table, run the handler, deliver the emissions. A
// panic in the pipeline is logged and surfaced as a generic error; it
// never crashes the connection.
func onGameEvent[Req any](
	s *SocketIOServer,
	client *socket.Socket,
	event string,
	handler func(context.Context, handlers.Deps, handlers.AuthContext, Req) handlers.EventResult,
) {
	client.On(event, func(data ...any) {
		socketID := string(client.Id())
		sd := s.getSocketData(socketID)

		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("%s from %s panicked: %v", event, sd.Email, r)
				client.Emit(wire.EventError, wire.ErrorEvent{Message: "internal error"})
			}
		}()

		// Roles are re-verified on every message; membership may have
		// changed since the handshake.
		ident, err := s.gate.Authorize(context.Background(), sd.Token, messageRoles[event])
		if err != nil {
			logger.Warnf("%s from socket %s denied: %v", event, socketID, err)
			client.Emit(wire.EventError, wire.ErrorEvent{Message: denialMessage(err)})
			return
		}

		var req Req
		if len(data) > 0 {
			if err := decodeAny(data[0], &req); err != nil {
				logger.Warnf("%s payload decode error: %v (type=%T)", event, err, data[0])
				client.Emit(wire.EventError, wire.ErrorEvent{Message: "invalid payload"})
				return
			}
		}

		auth := handlers.NewAuthContext(ident.Email, ident.Gamertag, socketID)
		result := handler(context.Background(), s.deps, auth, req)
		s.deliver(client, socketID, result)
	})
}
