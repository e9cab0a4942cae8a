package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/automaton-rca/internal/domain/narrative"
)

type NarrativeRepository struct {
	db *sql.DB
}

func NewNarrativeRepository(db *sql.DB) *NarrativeRepository {
	return &NarrativeRepository{db: db}
}

// Save inserts a narrative record
func (r *NarrativeRepository) Save(ctx context.Context, n *domain.Narrative) error {
	const q = `
INSERT INTO analysis_narratives
  (id, tenant_id, run_id, model, text, created_at)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  tenant_id=VALUES(tenant_id), run_id=VALUES(run_id), model=VALUES(model), text=VALUES(text);
`
	// Ensure non-nullable fields have safe defaults
	tenant := stringOrDash(n.TenantID)
	text := n.Text
	if strings.TrimSpace(text) == "" {
		text = "-"
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, n.ID, tenant, n.RunID, n.Model, text, createdAt)
	return err
}

// Paginate returns a page of narratives ordered by created_at desc
func (r *NarrativeRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Narrative, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, run_id, model, text, created_at
FROM analysis_narratives
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Narrative
	for rows.Next() {
		var n domain.Narrative
		var created time.Time
		if err := rows.Scan(&n.ID, &n.TenantID, &n.RunID, &n.Model, &n.Text, &created); err != nil {
			return nil, err
		}
		n.CreatedAt = created
		out = append(out, &n)
	}
	return out, rows.Err()
}

// LatestByRun returns the newest narrative for one run
func (r *NarrativeRepository) LatestByRun(ctx context.Context, tenant string, runID string) (*domain.Narrative, error) {
	const q = `
SELECT id, tenant_id, run_id, model, text, created_at
FROM analysis_narratives
WHERE tenant_id=? AND run_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, tenant, runID)

	var n domain.Narrative
	var created time.Time
	if err := row.Scan(&n.ID, &n.TenantID, &n.RunID, &n.Model, &n.Text, &created); err != nil {
		return nil, err
	}
	n.CreatedAt = created
	return &n, nil
}
