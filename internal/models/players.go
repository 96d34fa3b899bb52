package models

import (
	"context"
	"database/sql"
)

// CreatePlayerParams are the inputs for CreatePlayer.
type CreatePlayerParams struct {
	ID       string
	Email    string
	Gamertag string
	Elo      int64
}

// CreatePlayer inserts a new player row.
func (q *Queries) CreatePlayer(ctx context.Context, arg CreatePlayerParams) (Player, error) {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO players (id, email, gamertag, elo)
VALUES (?, ?, ?, ?);
`, arg.ID, arg.Email, arg.Gamertag, arg.Elo)
	if err != nil {
		return Player{}, err
	}
	return q.GetPlayerByID(ctx, arg.ID)
}

const playerColumns = `id, email, gamertag, elo, current_socket_id, created_at, updated_at`

func scanPlayer(row *sql.Row) (Player, error) {
	var p Player
	err := row.Scan(&p.ID, &p.Email, &p.Gamertag, &p.Elo, &p.CurrentSocketID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetPlayerByID returns a player by primary key.
func (q *Queries) GetPlayerByID(ctx context.Context, id string) (Player, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT `+playerColumns+` FROM players WHERE id = ?;
`, id)
	return scanPlayer(row)
}

// GetPlayerByEmail returns a player by durable identity.
func (q *Queries) GetPlayerByEmail(ctx context.Context, email string) (Player, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT `+playerColumns+` FROM players WHERE email = ?;
`, email)
	return scanPlayer(row)
}

// UpdatePlayerSocketParams are the inputs for UpdatePlayerSocket.
type UpdatePlayerSocketParams struct {
	CurrentSocketID string
	ID              string
}

// UpdatePlayerSocket records the player's most recent live connection.
// Called on every operation so reconnects under a new socket are picked
// up immediately.
func (q *Queries) UpdatePlayerSocket(ctx context.Context, arg UpdatePlayerSocketParams) error {
	_, err := q.db.ExecContext(ctx, `
UPDATE players
SET current_socket_id = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?;
`, arg.CurrentSocketID, arg.ID)
	return err
}
