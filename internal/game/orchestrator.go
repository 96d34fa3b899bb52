// Package game coordinates two-party chess sessions: lifecycle
// transitions, turn enforcement, rule-oracle calls, and durable
// persistence. All state transitions for a given game are serialized
// behind a per-game lock, and every write re-checks the game's status
// and version at commit time.
package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/castlelight/gambit/internal/crypto"
	"github.com/castlelight/gambit/internal/engine"
	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/internal/models"
)

const (
	// ColorWhite moves first; the host is always white.
	ColorWhite = "white"
	ColorBlack = "black"

	gameCodeLength = 6

	// createRetries bounds code-collision retries on game creation.
	createRetries = 3

	defaultOpTimeout = 5 * time.Second
)

// Store is the durable persistence surface the orchestrator needs.
// Implementations map infrastructure failures to ErrUpstreamUnavailable
// and missing rows to the matching sentinel.
type Store interface {
	// PlayerByEmail resolves a durable identity to its player record.
	PlayerByEmail(ctx context.Context, email string) (models.Player, error)

	// TouchPlayerSocket records the player's current live connection.
	TouchPlayerSocket(ctx context.Context, playerID, socketID string) error

	// CreateGame inserts a pending game and seats the host at position
	// 0, atomically. Returns ErrGameExists on a code collision.
	CreateGame(ctx context.Context, id, hostID, fen, currentTurn string) error

	// GameWithPlayers returns the game and its seated players in
	// position order.
	GameWithPlayers(ctx context.Context, id string) (models.Game, []models.Player, error)

	// JoinGame seats the joiner at position 1 and transitions the game
	// from pending to playing, atomically. Returns
	// ErrGameFullOrFinished when the game cannot accept the join.
	JoinGame(ctx context.Context, gameID, playerID string) error

	// CommitMove persists a move's resulting state, re-checking status
	// and version. Returns ErrGameFullOrFinished when the guard fails.
	CommitMove(ctx context.Context, arg models.UpdateGameMoveParams) error

	// FinishResign ends a playing game by resignation. Returns
	// ErrGameFullOrFinished when the game is not playing.
	FinishResign(ctx context.Context, gameID, winnerID string) error
}

// RuleEngine is the chess rules oracle surface.
type RuleEngine interface {
	NewGame(id string) (fen string, err error)
	AttemptMove(id, fen string, req engine.MoveRequest) (engine.Outcome, error)
	Rollback(id string)
}

// MoveRequest is a coordinate move with an optional promotion piece.
type MoveRequest struct {
	From      string
	To        string
	Promotion string
}

// Player is a seated player with their assigned color.
type Player struct {
	ID       string
	Email    string
	Gamertag string
	Elo      int64
	SocketID string
	Color    string
}

// GameView is a read model of a game suitable for emission.
type GameView struct {
	ID          string
	Status      string
	FEN         string
	CurrentTurn string
	Players     []Player
	Winner      *Player
}

// MoveOutcome describes an applied move.
type MoveOutcome struct {
	Game GameView
	From string
	To   string
	SAN  string
}

// LeaveOutcome describes a leave operation. Resigned is false when the
// game had not started and leaving is a plain disconnect.
type LeaveOutcome struct {
	Game     GameView
	Resigned bool
}

// Service is the session orchestrator.
type Service struct {
	store  Store
	engine RuleEngine

	// locks serializes all transitions per game id.
	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	opTimeout time.Duration
}

// NewService creates an orchestrator over the given store and rules
// oracle.
func NewService(store Store, eng RuleEngine) *Service {
	return &Service{
		store:     store,
		engine:    eng,
		locks:     make(map[string]*sync.Mutex),
		opTimeout: defaultOpTimeout,
	}
}

// lockFor returns the mutex serializing the given game id, creating it
// on first use.
func (s *Service) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// caller resolves the authenticated email to a player record and
// records the live connection.
func (s *Service) caller(ctx context.Context, email, socketID string) (models.Player, error) {
	p, err := s.store.PlayerByEmail(ctx, email)
	if err != nil {
		return models.Player{}, err
	}
	if socketID != "" {
		if err := s.store.TouchPlayerSocket(ctx, p.ID, socketID); err != nil {
			logger.Warnf("touch socket for player %s: %v", p.ID, err)
		}
	}
	return p, nil
}

// CreateGame creates a pending game hosted by the caller. The host is
// seated at position 0 and plays white.
func (s *Service) CreateGame(ctx context.Context, email, socketID string) (GameView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	host, err := s.caller(ctx, email, socketID)
	if err != nil {
		return GameView{}, err
	}

	var id string
	for attempt := 0; ; attempt++ {
		id, err = crypto.NewGameCode(gameCodeLength)
		if err != nil {
			return GameView{}, fmt.Errorf("generate game code: %w", err)
		}
		err = s.store.CreateGame(ctx, id, host.ID, engine.StartFEN, ColorWhite)
		if err == nil {
			break
		}
		if errors.Is(err, ErrGameExists) && attempt < createRetries {
			logger.Debugf("game code %s collided, retrying", id)
			continue
		}
		return GameView{}, err
	}
	// The live instance is registered only once the code is durably
	// owned, so a collided code never replaces another game's board.
	if _, err := s.engine.NewGame(id); err != nil {
		return GameView{}, fmt.Errorf("init rules oracle: %w", err)
	}

	logger.Infof("game %s created by %s", id, host.Gamertag)
	return s.view(ctx, id)
}

// JoinGame seats the caller as the second player and starts the game.
func (s *Service) JoinGame(ctx context.Context, email, socketID, gameID string) (GameView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	l := s.lockFor(gameID)
	l.Lock()
	defer l.Unlock()

	joiner, err := s.caller(ctx, email, socketID)
	if err != nil {
		return GameView{}, err
	}
	if err := s.store.JoinGame(ctx, gameID, joiner.ID); err != nil {
		return GameView{}, err
	}

	logger.Infof("game %s started, %s joined", gameID, joiner.Gamertag)
	return s.view(ctx, gameID)
}

// ApplyMove validates and applies a move by the caller. The caller must
// be seated, the game playing, and it must be the caller's turn. On a
// persistence failure after the oracle accepted the move, the oracle
// instance is rolled back so durable state stays authoritative.
func (s *Service) ApplyMove(ctx context.Context, email, socketID, gameID string, req MoveRequest) (MoveOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	l := s.lockFor(gameID)
	l.Lock()
	defer l.Unlock()

	mover, err := s.caller(ctx, email, socketID)
	if err != nil {
		return MoveOutcome{}, err
	}
	g, players, err := s.store.GameWithPlayers(ctx, gameID)
	if err != nil {
		return MoveOutcome{}, err
	}
	if g.Status != models.GameStatusPlaying {
		return MoveOutcome{}, ErrGameFullOrFinished
	}
	color, seated := colorOf(players, mover.ID)
	if !seated {
		return MoveOutcome{}, ErrNotInGame
	}
	// An out-of-turn attempt is an illegal move, not a distinct
	// failure: the mover learns nothing beyond the rejection.
	if color != g.CurrentTurn {
		return MoveOutcome{}, ErrIllegalMove
	}

	out, err := s.engine.AttemptMove(gameID, g.Fen, engine.MoveRequest{
		From:      req.From,
		To:        req.To,
		Promotion: req.Promotion,
	})
	if err != nil {
		if errors.Is(err, engine.ErrIllegalMove) {
			return MoveOutcome{}, ErrIllegalMove
		}
		return MoveOutcome{}, fmt.Errorf("rules oracle: %w", err)
	}

	params := models.UpdateGameMoveParams{
		ID:          gameID,
		Fen:         out.FEN,
		Status:      string(out.Status),
		CurrentTurn: opposite(color),
		Version:     g.Version,
	}
	// Only checkmate crowns a winner on the move path; stalemate and
	// draws end with none.
	if out.Status == engine.StatusCheckmate {
		params.WinnerID.String = mover.ID
		params.WinnerID.Valid = true
	}
	if err := s.store.CommitMove(ctx, params); err != nil {
		s.engine.Rollback(gameID)
		logger.Warnf("game %s: move %s%s accepted by oracle but not persisted: %v",
			gameID, req.From, req.To, err)
		return MoveOutcome{}, err
	}

	// The move is durable at this point, so the outcome is assembled
	// from the committed values. A re-read here could fail transiently
	// and misreport a persisted move as failed.
	g.Fen = params.Fen
	g.Status = params.Status
	g.CurrentTurn = params.CurrentTurn
	g.WinnerID = params.WinnerID
	return MoveOutcome{Game: assembleView(g, players), From: out.From, To: out.To, SAN: out.SAN}, nil
}

// Leave removes the caller from a game. On a playing game this is a
// resignation and the opponent wins; on a game that never started it
// is a plain disconnect with no state change.
func (s *Service) Leave(ctx context.Context, email, socketID, gameID string) (LeaveOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	l := s.lockFor(gameID)
	l.Lock()
	defer l.Unlock()

	leaver, err := s.caller(ctx, email, socketID)
	if err != nil {
		return LeaveOutcome{}, err
	}
	g, players, err := s.store.GameWithPlayers(ctx, gameID)
	if err != nil {
		return LeaveOutcome{}, err
	}
	if _, seated := colorOf(players, leaver.ID); !seated {
		return LeaveOutcome{}, ErrNotInGame
	}

	if g.Status != models.GameStatusPlaying {
		// Pending or already terminal: nothing to resign.
		return LeaveOutcome{Game: assembleView(g, players), Resigned: false}, nil
	}

	opp, ok := opponentOf(players, leaver.ID)
	if !ok {
		return LeaveOutcome{}, ErrOpponentUnresolved
	}
	if err := s.store.FinishResign(ctx, gameID, opp.ID); err != nil {
		return LeaveOutcome{}, err
	}

	logger.Infof("game %s: %s resigned, %s wins", gameID, leaver.Gamertag, opp.Gamertag)
	// As with moves, the outcome reflects the committed state directly.
	g.Status = models.GameStatusResign
	g.WinnerID = sql.NullString{String: opp.ID, Valid: true}
	return LeaveOutcome{Game: assembleView(g, players), Resigned: true}, nil
}

// GetGame returns the read model for a game.
func (s *Service) GetGame(ctx context.Context, gameID string) (GameView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.view(ctx, gameID)
}

func (s *Service) view(ctx context.Context, gameID string) (GameView, error) {
	g, players, err := s.store.GameWithPlayers(ctx, gameID)
	if err != nil {
		return GameView{}, err
	}
	return assembleView(g, players), nil
}

// assembleView builds the read model from rows already in hand.
func assembleView(g models.Game, players []models.Player) GameView {
	view := GameView{
		ID:          g.ID,
		Status:      g.Status,
		FEN:         g.Fen,
		CurrentTurn: g.CurrentTurn,
	}
	for i, p := range players {
		vp := Player{
			ID:       p.ID,
			Email:    p.Email,
			Gamertag: p.Gamertag,
			Elo:      p.Elo,
			SocketID: p.CurrentSocketID.String,
			Color:    colorForPosition(i),
		}
		view.Players = append(view.Players, vp)
		if g.WinnerID.Valid && g.WinnerID.String == p.ID {
			w := vp
			view.Winner = &w
		}
	}
	return view
}

// colorForPosition maps seating order to color: the host at position 0
// is white.
func colorForPosition(pos int) string {
	if pos == 0 {
		return ColorWhite
	}
	return ColorBlack
}

func colorOf(players []models.Player, playerID string) (string, bool) {
	for i, p := range players {
		if p.ID == playerID {
			return colorForPosition(i), true
		}
	}
	return "", false
}

func opponentOf(players []models.Player, playerID string) (models.Player, bool) {
	for _, p := range players {
		if p.ID != playerID {
			return p, true
		}
	}
	return models.Player{}, false
}

func opposite(color string) string {
	if color == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}
