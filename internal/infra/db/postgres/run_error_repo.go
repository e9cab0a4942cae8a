package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/automaton-rca/internal/domain/runerrors"
)

type RunErrorRepository struct{ db *sql.DB }

func NewRunErrorRepository(db *sql.DB) *RunErrorRepository { return &RunErrorRepository{db: db} }

func (r *RunErrorRepository) Save(ctx context.Context, e *domain.RunError) error {
	const q = `
INSERT INTO analysis_run_errors
  (tenant_id, run_id, stage, code, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	tenant := stringOrDash(e.TenantID)
	run := stringOrDash(e.RunID)
	stage := stringOrDash(e.Stage)
	code := stringOrDash(e.Code)
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, tenant, run, stage, code, msg, created)
	return err
}

func (r *RunErrorRepository) ListByRun(ctx context.Context, tenant string, runID string, limit int) ([]*domain.RunError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, run_id, stage, code, message, created_at
FROM analysis_run_errors
WHERE tenant_id = $1 AND run_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3;`
	rows, err := r.db.QueryContext(ctx, q, tenant, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.RunError
	for rows.Next() {
		var e domain.RunError
		var created time.Time
		if err := rows.Scan(&e.ID, &e.TenantID, &e.RunID, &e.Stage, &e.Code, &e.Message, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = created
		out = append(out, &e)
	}
	return out, rows.Err()
}
