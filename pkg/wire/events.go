package wire

// PlayerInfo is the public view of a participant.
type PlayerInfo struct {
	// ID is the durable player id.
	ID string `json:"id"`
	// Gamertag is the display name.
	Gamertag string `json:"gamertag"`
	// Email is the durable identity.
	Email string `json:"email"`
	// Elo is the player rating.
	Elo int64 `json:"elo"`
}

// GameState is the full game view pushed to clients.
type GameState struct {
	// ID is the short game code.
	ID string `json:"id"`
	// Status is one of "pending", "playing", "checkmate", "stalemate",
	// "draw", "resign".
	Status string `json:"status"`
	// FEN is the serialized board position.
	FEN string `json:"fen"`
	// CurrentTurn is the id of the player who holds the turn.
	CurrentTurn string `json:"currentTurn"`
	// Players lists participants in seating order (host first).
	Players []PlayerInfo `json:"players"`
	// Winner is set only for checkmate and resign outcomes.
	Winner *PlayerInfo `json:"winner,omitempty"`
}

// GameCreatedEvent confirms creation to the host.
type GameCreatedEvent struct {
	Game GameState `json:"game"`
}

// PlayerJoinedEvent confirms a successful join to the joiner.
type PlayerJoinedEvent struct {
	GameID string `json:"gameId"`
	Status string `json:"status"`
}

// GameStartedEvent notifies the host that the game is now playing.
type GameStartedEvent struct {
	Game GameState `json:"game"`
}

// MoveMadeEvent announces an applied, non-terminal move.
//
// The two recipients' payloads are identical apart from Perspective.
type MoveMadeEvent struct {
	GameID string `json:"gameId"`
	From   string `json:"from"`
	To     string `json:"to"`
	// SAN is the move in standard algebraic notation.
	SAN string `json:"san"`
	// FEN is the resulting position.
	FEN    string `json:"fen"`
	Status string `json:"status"`
	// CurrentTurn is the id of the player to move next.
	CurrentTurn string `json:"currentTurn"`
	// Perspective is the recipient's color ("white" or "black").
	Perspective string `json:"perspective"`
}

// GameOverEvent announces a terminal state.
//
// The two recipients' payloads are identical apart from Perspective.
type GameOverEvent struct {
	GameID string `json:"gameId"`
	// FEN is the final position.
	FEN    string `json:"fen"`
	Status string `json:"status"`
	// Winner is unset for draw and stalemate.
	Winner *PlayerInfo `json:"winner,omitempty"`
	// Perspective is the recipient's color ("white" or "black"), empty
	// for recipients without a seat (resign notices to the opponent
	// keep their color).
	Perspective string `json:"perspective,omitempty"`
}

// IllegalMoveEvent rejects a move attempt; acting socket only.
type IllegalMoveEvent struct {
	GameID string `json:"gameId"`
	// Message is a short, client-safe rejection reason.
	Message string `json:"message"`
}

// ErrorEvent is the generic failure push. Message never carries
// internal error detail.
type ErrorEvent struct {
	Message string `json:"message"`
}
