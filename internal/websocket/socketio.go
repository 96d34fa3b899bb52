// Package websocket is the socket.io gateway: it owns live
// connections, authenticates handshakes, enforces per-message roles,
// and delivers handler emissions to the right sockets.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/castlelight/gambit/internal/auth"
	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/internal/websocket/handlers"
	"github.com/castlelight/gambit/pkg/wire"
)

// messageRoles is the capability table: the roles allowed to send each
// client-initiated event. Creating a game requires the Host role;
// everything else requires Player.
var messageRoles = map[string][]string{
	wire.EventNewGame:   {"Host"},
	wire.EventJoinGame:  {"Player"},
	wire.EventMakeMove:  {"Player"},
	wire.EventLeaveGame: {"Player"},
}

// SocketIOServer wraps the socket.io server for the game gateway.
type SocketIOServer struct {
	gate       *auth.Gate
	server     *socket.Server
	deps       handlers.Deps
	socketData sync.Map // socket id -> *SocketData
}

// SocketData stores connection metadata for each live socket. Token is
// kept so role checks can be re-run on every message.
type SocketData struct {
	Token    string
	Email    string
	Gamertag string
	Socket   *socket.Socket
}

// NewSocketIOServer creates the gateway over the authorization gate and
// handler dependencies.
func NewSocketIOServer(gate *auth.Gate, deps handlers.Deps) *SocketIOServer {
	opts := socket.DefaultServerOptions()

	opts.SetCors(&sockettypes.Cors{
		Origin:      "*",
		Credentials: false,
	})

	// Ping cadence controls how quickly abruptly closed clients are
	// detected; their seats survive the disconnect either way.
	const pingInterval = 5 * time.Second
	const pingTimeout = 15 * time.Second

	opts.SetPingInterval(pingInterval)
	opts.SetPingTimeout(pingTimeout)
	opts.SetPath("/v1/socket")

	server := socket.NewServer(nil, opts)

	s := &SocketIOServer{
		gate:   gate,
		server: server,
		deps:   deps,
	}

	s.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		s.handleConnection(client)
	})

	return s
}

func decodeAny(input any, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// getSocketData retrieves socket metadata by socket id.
func (s *SocketIOServer) getSocketData(socketID string) *SocketData {
	if data, ok := s.socketData.Load(socketID); ok {
		if sd, ok := data.(*SocketData); ok {
			return sd
		}
	}
	return &SocketData{}
}

// HandleSocketIO creates a gin handler serving the socket.io endpoint.
func (s *SocketIOServer) HandleSocketIO() gin.HandlerFunc {
	httpHandler := s.server.ServeHandler(nil)

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "false")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusOK)
			return
		}

		logger.Tracef("socket.io request: %s %s", c.Request.Method, c.Request.URL.Path)
		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Close shuts down the socket.io server.
func (s *SocketIOServer) Close() error {
	s.server.Close(nil)
	return nil
}
