package game

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castlelight/gambit/internal/engine"
	"github.com/castlelight/gambit/internal/models"
)

type fakeStore struct {
	playerByEmail   func(ctx context.Context, email string) (models.Player, error)
	touchSocket     func(ctx context.Context, playerID, socketID string) error
	createGame      func(ctx context.Context, id, hostID, fen, currentTurn string) error
	gameWithPlayers func(ctx context.Context, id string) (models.Game, []models.Player, error)
	joinGame        func(ctx context.Context, gameID, playerID string) error
	commitMove      func(ctx context.Context, arg models.UpdateGameMoveParams) error
	finishResign    func(ctx context.Context, gameID, winnerID string) error
}

func (f *fakeStore) PlayerByEmail(ctx context.Context, email string) (models.Player, error) {
	return f.playerByEmail(ctx, email)
}

func (f *fakeStore) TouchPlayerSocket(ctx context.Context, playerID, socketID string) error {
	if f.touchSocket == nil {
		return nil
	}
	return f.touchSocket(ctx, playerID, socketID)
}

func (f *fakeStore) CreateGame(ctx context.Context, id, hostID, fen, currentTurn string) error {
	return f.createGame(ctx, id, hostID, fen, currentTurn)
}

func (f *fakeStore) GameWithPlayers(ctx context.Context, id string) (models.Game, []models.Player, error) {
	return f.gameWithPlayers(ctx, id)
}

func (f *fakeStore) JoinGame(ctx context.Context, gameID, playerID string) error {
	return f.joinGame(ctx, gameID, playerID)
}

func (f *fakeStore) CommitMove(ctx context.Context, arg models.UpdateGameMoveParams) error {
	return f.commitMove(ctx, arg)
}

func (f *fakeStore) FinishResign(ctx context.Context, gameID, winnerID string) error {
	return f.finishResign(ctx, gameID, winnerID)
}

type fakeEngine struct {
	newGame     func(id string) (string, error)
	attemptMove func(id, fen string, req engine.MoveRequest) (engine.Outcome, error)
	rollbacks   atomic.Int64
}

func (f *fakeEngine) NewGame(id string) (string, error) {
	if f.newGame == nil {
		return "start-fen", nil
	}
	return f.newGame(id)
}

func (f *fakeEngine) AttemptMove(id, fen string, req engine.MoveRequest) (engine.Outcome, error) {
	return f.attemptMove(id, fen, req)
}

func (f *fakeEngine) Rollback(id string) {
	f.rollbacks.Add(1)
}

func playerRecord(id, email string) models.Player {
	return models.Player{
		ID:       id,
		Email:    email,
		Gamertag: email,
		Elo:      1200,
		CurrentSocketID: sql.NullString{
			String: "sock-" + id,
			Valid:  true,
		},
	}
}

func TestCreateGameSeatsHostWhite(t *testing.T) {
	host := playerRecord("p1", "host@x.io")

	var gotHostID, gotTurn, gotFen string
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			require.Equal(t, "host@x.io", email)
			return host, nil
		},
		createGame: func(ctx context.Context, id, hostID, fen, currentTurn string) error {
			gotHostID = hostID
			gotTurn = currentTurn
			gotFen = fen
			return nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return models.Game{
				ID:          id,
				Status:      models.GameStatusPending,
				Fen:         gotFen,
				CurrentTurn: ColorWhite,
			}, []models.Player{host}, nil
		},
	}

	svc := NewService(store, &fakeEngine{})
	view, err := svc.CreateGame(context.Background(), "host@x.io", "sock-p1")
	require.NoError(t, err)

	require.Equal(t, "p1", gotHostID)
	require.Equal(t, ColorWhite, gotTurn)
	require.Len(t, view.ID, 6)
	require.Equal(t, models.GameStatusPending, view.Status)
	require.Len(t, view.Players, 1)
	require.Equal(t, ColorWhite, view.Players[0].Color)
}

func TestCreateGameRetriesOnCodeCollision(t *testing.T) {
	host := playerRecord("p1", "host@x.io")

	var ids []string
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return host, nil
		},
		createGame: func(ctx context.Context, id, hostID, fen, currentTurn string) error {
			ids = append(ids, id)
			if len(ids) == 1 {
				return ErrGameExists
			}
			return nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return models.Game{ID: id, Status: models.GameStatusPending, CurrentTurn: ColorWhite},
				[]models.Player{host}, nil
		},
	}

	svc := NewService(store, &fakeEngine{})
	view, err := svc.CreateGame(context.Background(), "host@x.io", "")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.NotEqual(t, ids[0], ids[1])
	require.Equal(t, ids[1], view.ID)
}

func TestCreateGameCollisionDoesNotReplaceLiveBoard(t *testing.T) {
	host := playerRecord("p1", "host@x.io")

	var ids []string
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return host, nil
		},
		createGame: func(ctx context.Context, id, hostID, fen, currentTurn string) error {
			ids = append(ids, id)
			if len(ids) == 1 {
				return ErrGameExists
			}
			return nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return models.Game{ID: id, Status: models.GameStatusPending, CurrentTurn: ColorWhite},
				[]models.Player{host}, nil
		},
	}
	var boards []string
	eng := &fakeEngine{
		newGame: func(id string) (string, error) {
			boards = append(boards, id)
			return engine.StartFEN, nil
		},
	}

	svc := NewService(store, eng)
	view, err := svc.CreateGame(context.Background(), "host@x.io", "")
	require.NoError(t, err)
	require.Len(t, ids, 2)

	// Only the durably owned code gets a live instance; the collided
	// code belongs to another game.
	require.Equal(t, []string{view.ID}, boards)
}

func TestCreateGameUnregisteredIdentity(t *testing.T) {
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return models.Player{}, ErrIdentityNotFound
		},
	}

	svc := NewService(store, &fakeEngine{})
	_, err := svc.CreateGame(context.Background(), "ghost@x.io", "")
	require.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestJoinGameSerializedPerGame(t *testing.T) {
	host := playerRecord("p1", "host@x.io")
	joiner := playerRecord("p2", "join@x.io")

	var inJoin atomic.Int64
	var joined atomic.Int64
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			if email == joiner.Email {
				return joiner, nil
			}
			return host, nil
		},
		joinGame: func(ctx context.Context, gameID, playerID string) error {
			require.Equal(t, int64(1), inJoin.Add(1), "join ran concurrently")
			defer inJoin.Add(-1)
			time.Sleep(10 * time.Millisecond)
			if joined.Add(1) > 1 {
				return ErrGameFullOrFinished
			}
			return nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return models.Game{ID: id, Status: models.GameStatusPlaying, CurrentTurn: ColorWhite},
				[]models.Player{host, joiner}, nil
		},
	}

	svc := NewService(store, &fakeEngine{})

	var wg sync.WaitGroup
	var failures atomic.Int64
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.JoinGame(context.Background(), "join@x.io", "", "abc123")
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), failures.Load(), "exactly one join must win")
}

func moveFixture() (models.Game, []models.Player) {
	game := models.Game{
		ID:          "abc123",
		Status:      models.GameStatusPlaying,
		Fen:         "fen-before",
		CurrentTurn: ColorWhite,
		Version:     3,
	}
	players := []models.Player{
		playerRecord("p1", "host@x.io"),
		playerRecord("p2", "join@x.io"),
	}
	return game, players
}

func TestApplyMoveRejectsOutOfTurn(t *testing.T) {
	g, players := moveFixture()
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[1], nil // black seat
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return g, players, nil
		},
	}
	eng := &fakeEngine{
		attemptMove: func(id, fen string, req engine.MoveRequest) (engine.Outcome, error) {
			t.Fatal("oracle must not be consulted out of turn")
			return engine.Outcome{}, nil
		},
	}

	svc := NewService(store, eng)
	_, err := svc.ApplyMove(context.Background(), "join@x.io", "", "abc123", MoveRequest{From: "e7", To: "e5"})
	require.ErrorIs(t, err, ErrIllegalMove)
}

func TestApplyMoveRejectsNonParticipant(t *testing.T) {
	g, players := moveFixture()
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return playerRecord("p3", "other@x.io"), nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return g, players, nil
		},
	}

	svc := NewService(store, &fakeEngine{})
	_, err := svc.ApplyMove(context.Background(), "other@x.io", "", "abc123", MoveRequest{From: "e2", To: "e4"})
	require.ErrorIs(t, err, ErrNotInGame)
}

func TestApplyMoveRejectsFinishedGame(t *testing.T) {
	g, players := moveFixture()
	g.Status = models.GameStatusCheckmate
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[0], nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return g, players, nil
		},
	}

	svc := NewService(store, &fakeEngine{})
	_, err := svc.ApplyMove(context.Background(), "host@x.io", "", "abc123", MoveRequest{From: "e2", To: "e4"})
	require.ErrorIs(t, err, ErrGameFullOrFinished)
}

func TestApplyMoveIllegalNotPersisted(t *testing.T) {
	g, players := moveFixture()
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[0], nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return g, players, nil
		},
		commitMove: func(ctx context.Context, arg models.UpdateGameMoveParams) error {
			t.Fatal("illegal move must not be persisted")
			return nil
		},
	}
	eng := &fakeEngine{
		attemptMove: func(id, fen string, req engine.MoveRequest) (engine.Outcome, error) {
			return engine.Outcome{}, engine.ErrIllegalMove
		},
	}

	svc := NewService(store, eng)
	_, err := svc.ApplyMove(context.Background(), "host@x.io", "", "abc123", MoveRequest{From: "e2", To: "e5"})
	require.ErrorIs(t, err, ErrIllegalMove)
}

func TestApplyMoveCheckmateCrownsMover(t *testing.T) {
	g, players := moveFixture()
	var committed models.UpdateGameMoveParams
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[0], nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			if committed.ID != "" {
				done := g
				done.Status = committed.Status
				done.Fen = committed.Fen
				done.WinnerID = committed.WinnerID
				done.CurrentTurn = committed.CurrentTurn
				return done, players, nil
			}
			return g, players, nil
		},
		commitMove: func(ctx context.Context, arg models.UpdateGameMoveParams) error {
			committed = arg
			return nil
		},
	}
	eng := &fakeEngine{
		attemptMove: func(id, fen string, req engine.MoveRequest) (engine.Outcome, error) {
			require.Equal(t, "fen-before", fen)
			return engine.Outcome{
				From: req.From, To: req.To, SAN: "Qh4#",
				FEN: "fen-after", Status: engine.StatusCheckmate, GameOver: true,
			}, nil
		},
	}

	svc := NewService(store, eng)
	out, err := svc.ApplyMove(context.Background(), "host@x.io", "", "abc123", MoveRequest{From: "d8", To: "h4"})
	require.NoError(t, err)

	require.Equal(t, string(engine.StatusCheckmate), committed.Status)
	require.True(t, committed.WinnerID.Valid)
	require.Equal(t, "p1", committed.WinnerID.String)
	require.Equal(t, int64(3), committed.Version)
	require.NotNil(t, out.Game.Winner)
	require.Equal(t, "p1", out.Game.Winner.ID)
}

func TestApplyMoveStalemateHasNoWinner(t *testing.T) {
	g, players := moveFixture()
	var committed models.UpdateGameMoveParams
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[0], nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return g, players, nil
		},
		commitMove: func(ctx context.Context, arg models.UpdateGameMoveParams) error {
			committed = arg
			return nil
		},
	}
	eng := &fakeEngine{
		attemptMove: func(id, fen string, req engine.MoveRequest) (engine.Outcome, error) {
			return engine.Outcome{
				FEN: "fen-after", Status: engine.StatusStalemate, GameOver: true,
			}, nil
		},
	}

	svc := NewService(store, eng)
	_, err := svc.ApplyMove(context.Background(), "host@x.io", "", "abc123", MoveRequest{From: "h7", To: "c7"})
	require.NoError(t, err)
	require.False(t, committed.WinnerID.Valid)
}

func TestApplyMovePersistFailureRollsBackOracle(t *testing.T) {
	g, players := moveFixture()
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[0], nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return g, players, nil
		},
		commitMove: func(ctx context.Context, arg models.UpdateGameMoveParams) error {
			return ErrUpstreamUnavailable
		},
	}
	eng := &fakeEngine{
		attemptMove: func(id, fen string, req engine.MoveRequest) (engine.Outcome, error) {
			return engine.Outcome{FEN: "fen-after", Status: engine.StatusPlaying}, nil
		},
	}

	svc := NewService(store, eng)
	_, err := svc.ApplyMove(context.Background(), "host@x.io", "", "abc123", MoveRequest{From: "e2", To: "e4"})
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.Equal(t, int64(1), eng.rollbacks.Load())
}

func TestApplyMoveOutcomeSurvivesReadOutage(t *testing.T) {
	g, players := moveFixture()
	var committed bool
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[0], nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			if committed {
				return models.Game{}, nil, ErrUpstreamUnavailable
			}
			return g, players, nil
		},
		commitMove: func(ctx context.Context, arg models.UpdateGameMoveParams) error {
			committed = true
			return nil
		},
	}
	eng := &fakeEngine{
		attemptMove: func(id, fen string, req engine.MoveRequest) (engine.Outcome, error) {
			return engine.Outcome{
				From: req.From, To: req.To, SAN: "e4",
				FEN: "fen-after", Status: engine.StatusPlaying,
			}, nil
		},
	}

	// Once the commit lands the move is durable; the outcome must not
	// depend on a store read that can fail (and invite a replay that
	// would misreport the persisted move as illegal).
	svc := NewService(store, eng)
	out, err := svc.ApplyMove(context.Background(), "host@x.io", "", "abc123", MoveRequest{From: "e2", To: "e4"})
	require.NoError(t, err)
	require.True(t, committed)
	require.Equal(t, "fen-after", out.Game.FEN)
	require.Equal(t, models.GameStatusPlaying, out.Game.Status)
	require.Equal(t, ColorBlack, out.Game.CurrentTurn)
	require.Equal(t, int64(0), eng.rollbacks.Load())
}

func TestLeaveResignOutcomeSurvivesReadOutage(t *testing.T) {
	g, players := moveFixture()
	var resigned bool
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[0], nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			if resigned {
				return models.Game{}, nil, ErrUpstreamUnavailable
			}
			return g, players, nil
		},
		finishResign: func(ctx context.Context, gameID, winnerID string) error {
			resigned = true
			return nil
		},
	}

	svc := NewService(store, &fakeEngine{})
	out, err := svc.Leave(context.Background(), "host@x.io", "", "abc123")
	require.NoError(t, err)
	require.True(t, out.Resigned)
	require.Equal(t, models.GameStatusResign, out.Game.Status)
	require.NotNil(t, out.Game.Winner)
	require.Equal(t, "p2", out.Game.Winner.ID)
}

func TestLeavePendingGameIsNotResignation(t *testing.T) {
	host := playerRecord("p1", "host@x.io")
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return host, nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return models.Game{ID: id, Status: models.GameStatusPending, CurrentTurn: ColorWhite},
				[]models.Player{host}, nil
		},
		finishResign: func(ctx context.Context, gameID, winnerID string) error {
			t.Fatal("pending game must not be resigned")
			return nil
		},
	}

	svc := NewService(store, &fakeEngine{})
	out, err := svc.Leave(context.Background(), "host@x.io", "", "abc123")
	require.NoError(t, err)
	require.False(t, out.Resigned)
}

func TestLeavePlayingGameResignsToOpponent(t *testing.T) {
	g, players := moveFixture()
	var winner string
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return players[0], nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			if winner != "" {
				done := g
				done.Status = models.GameStatusResign
				done.WinnerID = sql.NullString{String: winner, Valid: true}
				return done, players, nil
			}
			return g, players, nil
		},
		finishResign: func(ctx context.Context, gameID, winnerID string) error {
			winner = winnerID
			return nil
		},
	}

	svc := NewService(store, &fakeEngine{})
	out, err := svc.Leave(context.Background(), "host@x.io", "", "abc123")
	require.NoError(t, err)
	require.True(t, out.Resigned)
	require.Equal(t, "p2", winner)
	require.NotNil(t, out.Game.Winner)
	require.Equal(t, "p2", out.Game.Winner.ID)
	require.Equal(t, models.GameStatusResign, out.Game.Status)
}

func TestLeaveRejectsNonParticipant(t *testing.T) {
	g, players := moveFixture()
	store := &fakeStore{
		playerByEmail: func(ctx context.Context, email string) (models.Player, error) {
			return playerRecord("p3", "other@x.io"), nil
		},
		gameWithPlayers: func(ctx context.Context, id string) (models.Game, []models.Player, error) {
			return g, players, nil
		},
	}

	svc := NewService(store, &fakeEngine{})
	_, err := svc.Leave(context.Background(), "other@x.io", "", "abc123")
	require.ErrorIs(t, err, ErrNotInGame)
}
