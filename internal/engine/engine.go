// Package engine adapts the chess rules oracle for session use: one
// live game object per session id, move legality, terminal-state
// classification, and a best-effort rollback for the orchestrator's
// compensation path.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/notnil/chess"
)

// ErrIllegalMove signals that the oracle rejected the requested move.
var ErrIllegalMove = errors.New("illegal move")

// StartFEN is the standard initial position. NewGame always starts
// here; callers may persist it before registering the live instance.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Status classifies a position. Exactly one applies; the adapter
// resolves overlapping oracle predicates with a fixed precedence
// (checkmate, then stalemate, then draw).
type Status string

const (
	StatusPlaying   Status = "playing"
	StatusCheckmate Status = "checkmate"
	StatusStalemate Status = "stalemate"
	StatusDraw      Status = "draw"
)

// MoveRequest is a coordinate move ("e2" -> "e4") with an optional
// promotion piece letter.
type MoveRequest struct {
	From      string
	To        string
	Promotion string
}

// Outcome describes a legal move's result.
type Outcome struct {
	From string
	To   string
	// SAN is the move in standard algebraic notation.
	SAN string
	// FEN is the resulting serialized position.
	FEN      string
	Status   Status
	GameOver bool
}

type board struct {
	game *chess.Game
	// prevFEN is the position before the last applied move; consumed by
	// Rollback.
	prevFEN string
}

// Adapter holds the ephemeral per-session game instances. It is safe
// for concurrent use across session ids; the orchestrator additionally
// serializes calls per session id.
type Adapter struct {
	mu     sync.Mutex
	boards map[string]*board
}

// New creates an empty adapter.
func New() *Adapter {
	return &Adapter{boards: make(map[string]*board)}
}

// NewGame creates a fresh game instance for the session id and returns
// the initial position. An existing instance under the same id is
// replaced.
func (a *Adapter) NewGame(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty game id")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	g := chess.NewGame()
	a.boards[id] = &board{game: g}
	return g.Position().String(), nil
}

// FEN returns the instance's serialized position, or false when no
// instance exists (e.g. after a restart, before rehydration).
func (a *Adapter) FEN(id string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.boards[id]
	if !ok {
		return "", false
	}
	return b.game.Position().String(), true
}

// AttemptMove validates and applies a move for the session id.
//
// fen is the durable record's position. When the instance is absent
// (process restart) or disagrees with the durable record, the instance
// is rehydrated from fen before the legality check; the durable record
// is the source of truth on entry.
func (a *Adapter) AttemptMove(id, fen string, req MoveRequest) (Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.boards[id]
	if !ok || b.game.Position().String() != fen {
		g, err := gameFromFEN(fen)
		if err != nil {
			return Outcome{}, fmt.Errorf("rehydrate game %s: %w", id, err)
		}
		b = &board{game: g}
		a.boards[id] = b
	}

	mv := findMove(b.game, req)
	if mv == nil {
		return Outcome{}, ErrIllegalMove
	}

	prev := b.game.Position().String()
	san := chess.AlgebraicNotation{}.Encode(b.game.Position(), mv)
	if err := b.game.Move(mv); err != nil {
		return Outcome{}, ErrIllegalMove
	}
	b.prevFEN = prev

	status := classify(b.game.Method(), b.game.Outcome())
	return Outcome{
		From:     mv.S1().String(),
		To:       mv.S2().String(),
		SAN:      san,
		FEN:      b.game.Position().String(),
		Status:   status,
		GameOver: status != StatusPlaying,
	}, nil
}

// Rollback restores the position before the last applied move. It is
// best-effort and idempotent: with no recorded previous position it
// does nothing. Used only by the orchestrator's persist-failure
// compensation.
func (a *Adapter) Rollback(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.boards[id]
	if !ok || b.prevFEN == "" {
		return
	}
	g, err := gameFromFEN(b.prevFEN)
	if err != nil {
		return
	}
	a.boards[id] = &board{game: g}
}

func gameFromFEN(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	return chess.NewGame(opt), nil
}

// findMove resolves a from/to request against the oracle's legal move
// list. Promotion moves default to queen when no piece is named.
func findMove(g *chess.Game, req MoveRequest) *chess.Move {
	var fallback *chess.Move
	for _, m := range g.ValidMoves() {
		if m.S1().String() != req.From || m.S2().String() != req.To {
			continue
		}
		if m.Promo() == chess.NoPieceType {
			return m
		}
		if req.Promotion != "" && strings.EqualFold(m.Promo().String(), req.Promotion) {
			return m
		}
		if req.Promotion == "" && m.Promo() == chess.Queen {
			return m
		}
		if fallback == nil {
			fallback = m
		}
	}
	return fallback
}

// classify maps the oracle's method/outcome pair to a single status.
// The oracle's predicates can overlap (a stalemate is also a draw);
// precedence is fixed: checkmate, then stalemate, then any other draw.
func classify(method chess.Method, outcome chess.Outcome) Status {
	switch {
	case method == chess.Checkmate:
		return StatusCheckmate
	case method == chess.Stalemate:
		return StatusStalemate
	case outcome == chess.Draw:
		return StatusDraw
	default:
		return StatusPlaying
	}
}
