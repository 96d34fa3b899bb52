package websocket

import (
	socket "github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/internal/websocket/handlers"
)

// deliver applies a handler result: emissions go to their target
// sockets, room changes to the named socket (or the caller). A missing
// target is logged, never dropped silently.
func (s *SocketIOServer) deliver(caller *socket.Socket, callerSocketID string, result handlers.EventResult) {
	for _, em := range result.Emissions() {
		if em.SocketID() == callerSocketID {
			caller.Emit(em.Event(), em.Payload())
			continue
		}
		target := s.getSocketData(em.SocketID())
		if target.Socket == nil {
			logger.Warnf("emission %q dropped: socket %s not connected", em.Event(), em.SocketID())
			continue
		}
		target.Socket.Emit(em.Event(), em.Payload())
	}

	for _, rc := range result.Rooms() {
		sock := caller
		if rc.SocketID() != "" && rc.SocketID() != callerSocketID {
			target := s.getSocketData(rc.SocketID())
			if target.Socket == nil {
				continue
			}
			sock = target.Socket
		}
		switch {
		case rc.IsJoin():
			sock.Join(socket.Room(rc.Room()))
		case rc.IsLeave():
			sock.Leave(socket.Room(rc.Room()))
		}
	}
}
