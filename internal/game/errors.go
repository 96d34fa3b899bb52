package game

import "errors"

// Sentinel errors returned by the orchestrator. Handlers map these to
// client-facing events; anything else is an internal failure.
var (
	// ErrIdentityNotFound means the authenticated identity has no player
	// record.
	ErrIdentityNotFound = errors.New("player not registered")

	// ErrGameNotFound means no game exists under the given code.
	ErrGameNotFound = errors.New("game not found")

	// ErrGameFullOrFinished means the game cannot accept the operation
	// in its current lifecycle state.
	ErrGameFullOrFinished = errors.New("game full or finished")

	// ErrNotInGame means the identity is not seated in the game.
	ErrNotInGame = errors.New("player not in game")

	// ErrOpponentUnresolved means an operation needed the opponent's
	// identity but none could be resolved.
	ErrOpponentUnresolved = errors.New("opponent unresolved")

	// ErrIllegalMove means the move was rejected: either the rules
	// oracle refused it or the mover does not hold the turn.
	ErrIllegalMove = errors.New("illegal move")

	// ErrGameExists means a freshly generated game code collided with
	// an existing row. Callers retry with a new code.
	ErrGameExists = errors.New("game id already exists")

	// ErrUpstreamUnavailable marks transient infrastructure failures
	// that the caller may retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
