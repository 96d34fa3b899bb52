package wire

// Socket event names for the game protocol. Client-initiated events are
// dispatched by the gateway; the rest are server pushes.
const (
	// EventNewGame creates a game and seats the caller as host.
	EventNewGame = "newGame"
	// EventJoinGame seats the caller as the second participant.
	EventJoinGame = "joinGame"
	// EventMakeMove applies a move to a running game.
	EventMakeMove = "makeMove"
	// EventLeaveGame resigns the caller's side of a running game.
	EventLeaveGame = "leaveGame"

	// EventGameCreated confirms game creation to the host.
	EventGameCreated = "gameCreated"
	// EventPlayerJoined confirms a successful join to the joiner.
	EventPlayerJoined = "playerJoined"
	// EventGameStarted notifies the host that an opponent joined.
	EventGameStarted = "gameStarted"
	// EventMoveMade announces an applied, non-terminal move to both sides.
	EventMoveMade = "moveMade"
	// EventIllegalMove rejects a move; sent to the acting socket only.
	EventIllegalMove = "illegalMove"
	// EventGameOver announces a terminal state to both sides.
	EventGameOver = "gameOver"
	// EventError is the generic failure push.
	EventError = "error"
)

// NewGamePayload is the "newGame" request body.
type NewGamePayload struct {
	// Email is accepted for protocol compatibility and ignored; the
	// server derives the acting identity from the authenticated
	// connection, never from the payload.
	Email string `json:"email,omitempty"`
}

// JoinGamePayload is the "joinGame" request body.
type JoinGamePayload struct {
	// GameID is the short game code to join.
	GameID string `json:"gameId"`
	// Email is accepted for protocol compatibility and ignored.
	Email string `json:"email,omitempty"`
}

// MoveRequest is a from/to move in coordinate notation (e.g. "e2"->"e4").
type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Promotion optionally names the promotion piece ("q", "r", "b",
	// "n"). Empty defaults to queen.
	Promotion string `json:"promotion,omitempty"`
}

// MakeMovePayload is the "makeMove" request body.
type MakeMovePayload struct {
	// GameID is the target game code.
	GameID string `json:"gameId"`
	// Move is the requested move.
	Move MoveRequest `json:"move"`
	// Email is accepted for protocol compatibility and ignored.
	Email string `json:"email,omitempty"`
}

// LeaveGamePayload is the "leaveGame" request body.
type LeaveGamePayload struct {
	// GameID is the target game code.
	GameID string `json:"gameId"`
	// Email is accepted for protocol compatibility and ignored.
	Email string `json:"email,omitempty"`
}
