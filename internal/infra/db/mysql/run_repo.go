package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
(id, tenant_id, target, triggered_at, finished_at, status,
 critical, high, medium, low, findings_total,
 risk_score, risk_level, report_url, duration_ms, failure, result_json)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), finished_at=VALUES(finished_at),
 critical=VALUES(critical), high=VALUES(high), medium=VALUES(medium), low=VALUES(low),
 findings_total=VALUES(findings_total),
 risk_score=VALUES(risk_score), risk_level=VALUES(risk_level),
 report_url=VALUES(report_url), duration_ms=VALUES(duration_ms),
 failure=VALUES(failure), result_json=VALUES(result_json);
`
	// Ensure non-nullable string fields have safe defaults
	tenant := stringOrDash(run.TenantID)
	status := stringOrDash(string(run.Status))
	triggered := run.TriggeredAt
	if triggered.IsZero() {
		triggered = time.Now()
	}
	var finished sql.NullTime
	if run.FinishedAt != nil {
		finished = sql.NullTime{Time: *run.FinishedAt, Valid: true}
	}
	var result sql.NullString
	if run.Result != nil {
		data, err := json.Marshal(run.Result)
		if err != nil {
			return err
		}
		result = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, q,
		run.ID, tenant, run.Target, triggered, finished, status,
		run.Counts.Critical, run.Counts.High, run.Counts.Medium, run.Counts.Low, run.Counts.Total,
		run.RiskScore, run.RiskLevel, run.ReportURL, run.DurationMS, run.Failure, result,
	)
	return err
}

// Get by ID + Tenant
func (r *RunRepository) Get(ctx context.Context, tenant string, id domain.RunID) (*domain.Run, error) {
	const q = `
SELECT id, tenant_id, target, triggered_at, finished_at, status,
       critical, high, medium, low, findings_total,
       risk_score, risk_level, report_url, duration_ms, failure, result_json
FROM analysis_runs
WHERE tenant_id=? AND id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, tenant, id)

	var run domain.Run
	var crit, hi, med, lo, tot int
	var finished sql.NullTime
	var result sql.NullString
	if err := row.Scan(
		&run.ID, &run.TenantID, &run.Target, &run.TriggeredAt, &finished, &run.Status,
		&crit, &hi, &med, &lo, &tot,
		&run.RiskScore, &run.RiskLevel, &run.ReportURL, &run.DurationMS, &run.Failure, &result,
	); err != nil {
		return nil, err
	}
	run.Counts = domain.SeverityCounts{Critical: crit, High: hi, Medium: med, Low: lo, Total: tot}
	hydrateRun(&run, finished, result)
	return &run, nil
}

// Latest runs per tenant
func (r *RunRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, target, triggered_at, finished_at, status,
       critical, high, medium, low, findings_total,
       risk_score, risk_level, report_url, duration_ms, failure, result_json
FROM analysis_runs
WHERE tenant_id=? ORDER BY triggered_at DESC, id DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		var run domain.Run
		var crit, hi, med, lo, tot int
		var finished sql.NullTime
		var result sql.NullString
		if err := rows.Scan(
			&run.ID, &run.TenantID, &run.Target, &run.TriggeredAt, &finished, &run.Status,
			&crit, &hi, &med, &lo, &tot,
			&run.RiskScore, &run.RiskLevel, &run.ReportURL, &run.DurationMS, &run.Failure, &result,
		); err != nil {
			return nil, err
		}
		run.Counts = domain.SeverityCounts{Critical: crit, High: hi, Medium: med, Low: lo, Total: tot}
		hydrateRun(&run, finished, result)
		out = append(out, &run)
	}
	return out, rows.Err()
}

// Summary counts run findings since N days
func (r *RunRepository) Summary(ctx context.Context, tenant string, sinceDays int) (int, int, int, int, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total_runs,
       COALESCE(SUM(critical),0) AS critical,
       COALESCE(SUM(high),0)     AS high,
       COALESCE(SUM(medium),0)   AS medium
FROM analysis_runs
WHERE tenant_id=? AND triggered_at >= ?;
`
	var t, c, h, m int
	if err := r.db.QueryRowContext(ctx, q, tenant, cut).Scan(&t, &c, &h, &m); err != nil {
		return 0, 0, 0, 0, err
	}
	return t, c, h, m, nil
}

// Paginate with offset + limit (classic pagination)
func (r *RunRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Run, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, target, triggered_at, finished_at, status,
       critical, high, medium, low, findings_total,
       risk_score, risk_level, report_url, duration_ms, failure, result_json
FROM analysis_runs
WHERE tenant_id=?
ORDER BY triggered_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		var run domain.Run
		var crit, hi, med, lo, tot int
		var finished sql.NullTime
		var result sql.NullString
		if err := rows.Scan(
			&run.ID, &run.TenantID, &run.Target, &run.TriggeredAt, &finished, &run.Status,
			&crit, &hi, &med, &lo, &tot,
			&run.RiskScore, &run.RiskLevel, &run.ReportURL, &run.DurationMS, &run.Failure, &result,
		); err != nil {
			return nil, err
		}
		run.Counts = domain.SeverityCounts{Critical: crit, High: hi, Medium: med, Low: lo, Total: tot}
		hydrateRun(&run, finished, result)
		out = append(out, &run)
	}
	return out, rows.Err()
}

// Cursor-based pagination (after cursorTime, cursorID)
func (r *RunRepository) Cursor(ctx context.Context, tenant string, cursorTime time.Time, cursorID string, pageSize int) ([]*domain.Run, error) {
	if pageSize <= 0 {
		pageSize = 20
	}

	const q = `
SELECT id, tenant_id, target, triggered_at, finished_at, status,
       critical, high, medium, low, findings_total,
       risk_score, risk_level, report_url, duration_ms, failure, result_json
FROM analysis_runs
WHERE tenant_id=?
  AND (triggered_at < ? OR (triggered_at = ? AND id < ?))
ORDER BY triggered_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, cursorTime, cursorTime, cursorID, pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		var run domain.Run
		var crit, hi, med, lo, tot int
		var finished sql.NullTime
		var result sql.NullString
		if err := rows.Scan(
			&run.ID, &run.TenantID, &run.Target, &run.TriggeredAt, &finished, &run.Status,
			&crit, &hi, &med, &lo, &tot,
			&run.RiskScore, &run.RiskLevel, &run.ReportURL, &run.DurationMS, &run.Failure, &result,
		); err != nil {
			return nil, err
		}
		run.Counts = domain.SeverityCounts{Critical: crit, High: hi, Medium: med, Low: lo, Total: tot}
		hydrateRun(&run, finished, result)
		out = append(out, &run)
	}
	return out, rows.Err()
}

// Count returns the total number of runs for a tenant
func (r *RunRepository) Count(ctx context.Context, tenant string) (int64, error) {
	const q = `SELECT COUNT(*) FROM analysis_runs WHERE tenant_id = ?;`
	var count int64
	if err := r.db.QueryRowContext(ctx, q, tenant).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// hydrateRun fills the nullable columns back into the aggregate
func hydrateRun(run *domain.Run, finished sql.NullTime, result sql.NullString) {
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	if result.Valid && result.String != "" {
		var res domain.Result
		if err := json.Unmarshal([]byte(result.String), &res); err == nil {
			run.Result = &res
		}
	}
}
