package websocket

import (
	"context"

	socket "github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/pkg/wire"
)

// handshakeAuth is the socket.io handshake auth object.
type handshakeAuth struct {
	Token string `json:"token"`
}

func (s *SocketIOServer) handleConnection(client *socket.Socket) {
	socketID := string(client.Id())

	logger.Infof("socket.io connection attempt (socket %s)", socketID)

	handshake := client.Handshake()

	authMap := handshake.Auth
	if len(authMap) == 0 {
		logger.Warnf("socket.io missing auth data (socket %s)", socketID)
		client.Emit(wire.EventError, wire.ErrorEvent{Message: "missing authentication data"})
		client.Disconnect(true)
		return
	}

	var payload handshakeAuth
	if err := decodeAny(authMap, &payload); err != nil {
		logger.Warnf("socket.io invalid auth data (socket %s): %v", socketID, err)
		client.Emit(wire.EventError, wire.ErrorEvent{Message: "invalid authentication data"})
		client.Disconnect(true)
		return
	}

	// No required roles at connect time; role checks run per message.
	ident, err := s.gate.Authorize(context.Background(), payload.Token, nil)
	if err != nil {
		logger.Warnf("socket.io handshake rejected (socket %s): %v", socketID, err)
		client.Emit(wire.EventError, wire.ErrorEvent{Message: "invalid authentication token"})
		client.Disconnect(true)
		return
	}

	s.socketData.Store(socketID, &SocketData{
		Token:    payload.Token,
		Email:    ident.Email,
		Gamertag: ident.Gamertag,
		Socket:   client,
	})

	logger.Infof("socket.io client ready (player %s, socket %s)", ident.Gamertag, socketID)

	s.registerClientHandlers(client, socketID)
}
