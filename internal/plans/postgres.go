package plans

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/models"
)

// PostgresRepository stores plans as JSONB documents keyed by name, mirroring
// the document model the planning data has always used. The active-plan
// pointer lives in a single-row app_state table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a plan repository over the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the plans and app_state tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS plans (
    name       TEXT PRIMARY KEY,
    doc        JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS app_state (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errs.Storage("ensure plans schema", err)
	}
	return nil
}

func (r *PostgresRepository) SavePlan(ctx context.Context, plan models.Plan) error {
	doc, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan %q: %w", plan.Name, err)
	}
	const q = `
INSERT INTO plans (name, doc, updated_at) VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`
	if _, err := r.db.ExecContext(ctx, q, plan.Name, doc); err != nil {
		return errs.Storage("save plan", err)
	}
	return nil
}

func (r *PostgresRepository) GetPlan(ctx context.Context, name string) (*models.Plan, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM plans WHERE name = $1`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("plan", name)
	}
	if err != nil {
		return nil, errs.Storage("get plan", err)
	}
	var plan models.Plan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan %q: %w", name, err)
	}
	return &plan, nil
}

func (r *PostgresRepository) ListPlans(ctx context.Context) ([]models.Plan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM plans`)
	if err != nil {
		return nil, errs.Storage("list plans", err)
	}
	defer rows.Close()

	var out []models.Plan
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errs.Storage("scan plan", err)
		}
		var plan models.Plan
		if err := json.Unmarshal(doc, &plan); err != nil {
			return nil, fmt.Errorf("unmarshal plan: %w", err)
		}
		out = append(out, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("list plans", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeletePlan(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE name = $1`, name); err != nil {
		return errs.Storage("delete plan", err)
	}
	return nil
}

func (r *PostgresRepository) SetActivePlan(ctx context.Context, name string) error {
	const q = `
INSERT INTO app_state (key, value) VALUES ('active_plan', $1)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, q, name); err != nil {
		return errs.Storage("set active plan", err)
	}
	return nil
}

func (r *PostgresRepository) GetActivePlanName(ctx context.Context) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = 'active_plan'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errs.Storage("get active plan", err)
	}
	return name, nil
}
