package analysis

import (
	"time"
)

// Status enum
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// CountFindings tallies severities across every category of a findings set.
func CountFindings(fs Findings) SeverityCounts {
	var c SeverityCounts
	for _, f := range fs.All() {
		switch f.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		default:
			c.Low++
		}
		c.Total++
	}
	return c
}

// Aggregate Root: Run. One row per analysis run; Result is attached once the
// pipeline completes and stays nil while the run is in flight or failed.
type Run struct {
	ID          RunID          `json:"id"`
	TenantID    string         `json:"tenant_id"`
	Target      string         `json:"target"`
	TriggeredAt time.Time      `json:"triggered_at"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
	Status      Status         `json:"status"`
	Counts      SeverityCounts `json:"counts"`
	RiskScore   int            `json:"risk_score"`
	RiskLevel   RiskLevel      `json:"risk_level"`
	ReportURL   string         `json:"report_url,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	Failure     string         `json:"failure,omitempty"`
	Result      *Result        `json:"result,omitempty"`
}

// NewRun returns an in-flight run row for immediate persistence, so the id
// handed back to the caller is queryable before the pipeline finishes.
func NewRun(id RunID, tenant, target string, at time.Time) *Run {
	return &Run{
		ID:          id,
		TenantID:    tenant,
		Target:      target,
		TriggeredAt: at,
		Status:      StatusRunning,
	}
}

// Complete attaches the finished result and derived summary columns.
func (r *Run) Complete(res *Result, reportURL string, at time.Time) {
	r.Status = StatusSuccess
	r.FinishedAt = &at
	r.Counts = CountFindings(res.Findings)
	r.RiskScore = res.Risk.Score
	r.RiskLevel = res.Risk.Level
	r.ReportURL = reportURL
	r.DurationMS = at.Sub(r.TriggeredAt).Milliseconds()
	r.Result = res
}

// Fail marks the run failed with the cause; no result is attached.
func (r *Run) Fail(err error, at time.Time) {
	r.Status = StatusFailed
	r.FinishedAt = &at
	r.DurationMS = at.Sub(r.TriggeredAt).Milliseconds()
	if err != nil {
		r.Failure = err.Error()
	}
}
