package models

import (
	"context"
	"database/sql"
)

// Game status values. Pending and playing are live; the rest are
// terminal.
const (
	GameStatusPending   = "pending"
	GameStatusPlaying   = "playing"
	GameStatusCheckmate = "checkmate"
	GameStatusStalemate = "stalemate"
	GameStatusDraw      = "draw"
	GameStatusResign    = "resign"
)

// CreateGameParams are the inputs for CreateGame.
type CreateGameParams struct {
	ID          string
	Status      string
	Fen         string
	CurrentTurn string
}

// CreateGame inserts a new game row.
func (q *Queries) CreateGame(ctx context.Context, arg CreateGameParams) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO games (id, status, fen, current_turn)
VALUES (?, ?, ?, ?);
`, arg.ID, arg.Status, arg.Fen, arg.CurrentTurn)
	return err
}

const gameColumns = `id, status, fen, current_turn, winner_id, version, created_at, updated_at`

// GetGameByID returns a game by its short code.
func (q *Queries) GetGameByID(ctx context.Context, id string) (Game, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT `+gameColumns+` FROM games WHERE id = ?;
`, id)
	var g Game
	err := row.Scan(&g.ID, &g.Status, &g.Fen, &g.CurrentTurn, &g.WinnerID, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// AddGamePlayerParams are the inputs for AddGamePlayer.
type AddGamePlayerParams struct {
	GameID   string
	PlayerID string
	Position int64
}

// AddGamePlayer seats a player in a game.
func (q *Queries) AddGamePlayer(ctx context.Context, arg AddGamePlayerParams) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO game_players (game_id, player_id, position)
VALUES (?, ?, ?);
`, arg.GameID, arg.PlayerID, arg.Position)
	return err
}

// ListGamePlayers returns a game's players in seating order.
func (q *Queries) ListGamePlayers(ctx context.Context, gameID string) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT p.id, p.email, p.gamertag, p.elo, p.current_socket_id, p.created_at, p.updated_at
FROM game_players gp
JOIN players p ON p.id = gp.player_id
WHERE gp.game_id = ?
ORDER BY gp.position;
`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.Email, &p.Gamertag, &p.Elo, &p.CurrentSocketID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// CountGamePlayers returns the number of seated players.
func (q *Queries) CountGamePlayers(ctx context.Context, gameID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM game_players WHERE game_id = ?;
`, gameID).Scan(&n)
	return n, err
}

// MarkGamePlayingParams are the inputs for MarkGamePlaying.
type MarkGamePlayingParams struct {
	ID      string
	Version int64
}

// MarkGamePlaying transitions a pending game to playing. The WHERE
// clause re-checks status and version at commit time so concurrent
// joins yield exactly one winner.
func (q *Queries) MarkGamePlaying(ctx context.Context, arg MarkGamePlayingParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
UPDATE games
SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ? AND version = ?;
`, GameStatusPlaying, arg.ID, GameStatusPending, arg.Version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateGameMoveParams are the inputs for UpdateGameMove.
type UpdateGameMoveParams struct {
	ID          string
	Fen         string
	Status      string
	CurrentTurn string
	WinnerID    sql.NullString
	// Version is the version the caller read; the update commits only
	// if it still matches.
	Version int64
}

// UpdateGameMove applies a move's resulting state. The WHERE clause
// re-checks version and playing status at commit time; zero rows means
// the caller lost the race (or the game already ended) and must
// compensate.
func (q *Queries) UpdateGameMove(ctx context.Context, arg UpdateGameMoveParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
UPDATE games
SET fen = ?, status = ?, current_turn = ?, winner_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ? AND version = ?;
`, arg.Fen, arg.Status, arg.CurrentTurn, arg.WinnerID, arg.ID, GameStatusPlaying, arg.Version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FinishGameResignParams are the inputs for FinishGameResign.
type FinishGameResignParams struct {
	ID       string
	WinnerID string
}

// FinishGameResign ends a playing game by resignation. Guarded on
// status so only the first terminal transition wins; repeat calls
// affect zero rows.
func (q *Queries) FinishGameResign(ctx context.Context, arg FinishGameResignParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
UPDATE games
SET status = ?, winner_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?;
`, GameStatusResign, arg.WinnerID, arg.ID, GameStatusPlaying)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
