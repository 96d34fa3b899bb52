package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/castlelight/gambit/internal/models"
)

// maxGamePlayers is the seat count of a two-party session.
const maxGamePlayers = 2

// SQLStore implements Store on top of sqlc queries. Multi-row writes
// run in a transaction against DB; single queries go through Queries.
type SQLStore struct {
	DB      *sql.DB
	Queries *models.Queries
}

func (s *SQLStore) PlayerByEmail(ctx context.Context, email string) (models.Player, error) {
	p, err := s.Queries.GetPlayerByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Player{}, ErrIdentityNotFound
	}
	if err != nil {
		return models.Player{}, infraErr("get player", err)
	}
	return p, nil
}

func (s *SQLStore) TouchPlayerSocket(ctx context.Context, playerID, socketID string) error {
	err := s.Queries.UpdatePlayerSocket(ctx, models.UpdatePlayerSocketParams{
		CurrentSocketID: socketID,
		ID:              playerID,
	})
	if err != nil {
		return infraErr("update player socket", err)
	}
	return nil
}

func (s *SQLStore) CreateGame(ctx context.Context, id, hostID, fen, currentTurn string) error {
	return s.inTx(ctx, func(q *models.Queries) error {
		err := q.CreateGame(ctx, models.CreateGameParams{
			ID:          id,
			Status:      models.GameStatusPending,
			Fen:         fen,
			CurrentTurn: currentTurn,
		})
		if isUniqueViolation(err) {
			return ErrGameExists
		}
		if err != nil {
			return infraErr("insert game", err)
		}
		err = q.AddGamePlayer(ctx, models.AddGamePlayerParams{
			GameID:   id,
			PlayerID: hostID,
			Position: 0,
		})
		if err != nil {
			return infraErr("seat host", err)
		}
		return nil
	})
}

func (s *SQLStore) GameWithPlayers(ctx context.Context, id string) (models.Game, []models.Player, error) {
	g, err := s.Queries.GetGameByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Game{}, nil, ErrGameNotFound
	}
	if err != nil {
		return models.Game{}, nil, infraErr("get game", err)
	}
	players, err := s.Queries.ListGamePlayers(ctx, id)
	if err != nil {
		return models.Game{}, nil, infraErr("list game players", err)
	}
	return g, players, nil
}

// JoinGame seats the joiner and flips the game to playing in one
// transaction. The seat insert and the guarded status update both run
// against the state read inside the transaction, so two concurrent
// joins produce exactly one playing game with two seats.
func (s *SQLStore) JoinGame(ctx context.Context, gameID, playerID string) error {
	return s.inTx(ctx, func(q *models.Queries) error {
		g, err := q.GetGameByID(ctx, gameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGameNotFound
		}
		if err != nil {
			return infraErr("get game", err)
		}
		if g.Status != models.GameStatusPending {
			return ErrGameFullOrFinished
		}
		n, err := q.CountGamePlayers(ctx, gameID)
		if err != nil {
			return infraErr("count game players", err)
		}
		if n >= maxGamePlayers {
			return ErrGameFullOrFinished
		}
		err = q.AddGamePlayer(ctx, models.AddGamePlayerParams{
			GameID:   gameID,
			PlayerID: playerID,
			Position: n,
		})
		if isUniqueViolation(err) {
			// Already seated (e.g. the host joining their own game).
			return ErrGameFullOrFinished
		}
		if err != nil {
			return infraErr("seat player", err)
		}
		affected, err := q.MarkGamePlaying(ctx, models.MarkGamePlayingParams{
			ID:      gameID,
			Version: g.Version,
		})
		if err != nil {
			return infraErr("mark game playing", err)
		}
		if affected == 0 {
			return ErrGameFullOrFinished
		}
		return nil
	})
}

func (s *SQLStore) CommitMove(ctx context.Context, arg models.UpdateGameMoveParams) error {
	affected, err := s.Queries.UpdateGameMove(ctx, arg)
	if err != nil {
		return infraErr("update game move", err)
	}
	if affected == 0 {
		return ErrGameFullOrFinished
	}
	return nil
}

func (s *SQLStore) FinishResign(ctx context.Context, gameID, winnerID string) error {
	affected, err := s.Queries.FinishGameResign(ctx, models.FinishGameResignParams{
		ID:       gameID,
		WinnerID: winnerID,
	})
	if err != nil {
		return infraErr("finish game resign", err)
	}
	if affected == 0 {
		return ErrGameFullOrFinished
	}
	return nil
}

// inTx runs fn against transaction-bound queries, committing on nil
// and rolling back otherwise.
func (s *SQLStore) inTx(ctx context.Context, fn func(q *models.Queries) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return infraErr("begin tx", err)
	}
	if err := fn(s.Queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return infraErr("commit tx", err)
	}
	return nil
}

// infraErr wraps a driver failure so callers can match on
// ErrUpstreamUnavailable while logs keep the cause.
func infraErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrUpstreamUnavailable)
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
