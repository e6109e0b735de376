package winners

import (
	"context"
	"database/sql"
	"errors"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/models"
)

// PostgresRepository stores winner records with explicit columns. The seq
// column is the insertion sequence ListWinners orders by; CreatedAt is data,
// not an ordering key, so a backdated import cannot reorder the registry.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a winner repository over the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the winners table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS winners (
    seq        BIGSERIAL,
    id         UUID PRIMARY KEY,
    name       TEXT NOT NULL,
    player_id  TEXT NOT NULL DEFAULT '',
    prize      TEXT NOT NULL DEFAULT '',
    session_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    status     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS winners_session_idx ON winners (session_id);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errs.Storage("ensure winners schema", err)
	}
	return nil
}

func (r *PostgresRepository) CreateWinner(ctx context.Context, winner models.Winner) error {
	const q = `
INSERT INTO winners (id, name, player_id, prize, session_id, created_at, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q,
		winner.ID, winner.Name, winner.PlayerID, winner.Prize,
		winner.SessionID, winner.CreatedAt, string(winner.Status))
	if err != nil {
		return errs.Storage("create winner", err)
	}
	return nil
}

func (r *PostgresRepository) GetWinner(ctx context.Context, id string) (*models.Winner, error) {
	const q = `
SELECT id, name, player_id, prize, session_id, created_at, status
FROM winners WHERE id = $1`
	winner, err := scanWinner(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("winner", id)
	}
	if err != nil {
		return nil, errs.Storage("get winner", err)
	}
	return winner, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.WinnerStatus) (*models.Winner, error) {
	const q = `
UPDATE winners SET status = $2 WHERE id = $1
RETURNING id, name, player_id, prize, session_id, created_at, status`
	winner, err := scanWinner(r.db.QueryRowContext(ctx, q, id, string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("winner", id)
	}
	if err != nil {
		return nil, errs.Storage("update winner status", err)
	}
	return winner, nil
}

func (r *PostgresRepository) DeleteWinner(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM winners WHERE id = $1`, id)
	if err != nil {
		return errs.Storage("delete winner", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("winner", id)
	}
	return nil
}

func (r *PostgresRepository) ListWinners(ctx context.Context) ([]models.Winner, error) {
	const q = `
SELECT id, name, player_id, prize, session_id, created_at, status
FROM winners ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.Storage("list winners", err)
	}
	defer rows.Close()

	var out []models.Winner
	for rows.Next() {
		winner, err := scanWinner(rows)
		if err != nil {
			return nil, errs.Storage("scan winner", err)
		}
		out = append(out, *winner)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("list winners", err)
	}
	return out, nil
}

func (r *PostgresRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM winners`); err != nil {
		return errs.Storage("clear winners", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWinner(row rowScanner) (*models.Winner, error) {
	var winner models.Winner
	var status string
	if err := row.Scan(&winner.ID, &winner.Name, &winner.PlayerID, &winner.Prize,
		&winner.SessionID, &winner.CreatedAt, &status); err != nil {
		return nil, err
	}
	winner.Status = models.WinnerStatus(status)
	return &winner, nil
}
