package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
)

type RunRepository struct{ db *sql.DB }

func NewRunRepository(db *sql.DB) *RunRepository { return &RunRepository{db: db} }

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
(id, tenant_id, target, triggered_at, finished_at, status,
 critical, high, medium, low, findings_total,
 risk_score, risk_level, report_url, duration_ms, failure, result_json)
VALUES ($1,$2,$3,$4,$5,$6,
        $7,$8,$9,$10,$11,
        $12,$13,$14,$15,$16,$17)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 finished_at = EXCLUDED.finished_at,
 critical = EXCLUDED.critical,
 high = EXCLUDED.high,
 medium = EXCLUDED.medium,
 low = EXCLUDED.low,
 findings_total = EXCLUDED.findings_total,
 risk_score = EXCLUDED.risk_score,
 risk_level = EXCLUDED.risk_level,
 report_url = EXCLUDED.report_url,
 duration_ms = EXCLUDED.duration_ms,
 failure = EXCLUDED.failure,
 result_json = EXCLUDED.result_json;`

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
WHERE tenant_id=$1 AND id=$2
LIMIT 1;`
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
WHERE tenant_id=$1 ORDER BY triggered_at DESC, id DESC
LIMIT $2;`
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
WHERE tenant_id=$1 AND triggered_at >= $2;`
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
WHERE tenant_id=$1
ORDER BY triggered_at DESC, id DESC
LIMIT $2 OFFSET $3;`
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
WHERE tenant_id=$1
  AND (triggered_at < $2 OR (triggered_at = $2 AND id < $3))
ORDER BY triggered_at DESC, id DESC
LIMIT $4;`
	rows, err := r.db.QueryContext(ctx, q, tenant, cursorTime, cursorID, pageSize)
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
	const q = `SELECT COUNT(*) FROM analysis_runs WHERE tenant_id = $1;`
	var count int64
	if err := r.db.QueryRowContext(ctx, q, tenant).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

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

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
