package analysis

import (
	"fmt"
	"time"
)

// RunID identifier type
type RunID string

// Result is the single aggregate handed to collaborators (renderers,
// notifiers, the knowledge index). Immutable once built; one per run.
type Result struct {
	ID            RunID           `json:"id"`
	TenantID      string          `json:"tenant_id,omitempty"`
	TargetService string          `json:"target_service"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Findings      Findings        `json:"findings"`
	Correlations  []Correlation   `json:"correlations"`
	Risk          RiskAssessment  `json:"risk_assessment"`
	Plan          RemediationPlan `json:"remediation_plan"`
	Warnings      []Warning       `json:"warnings"`
}

// RunParams carries run identity into the pure pipeline.
type RunParams struct {
	ID          RunID
	TenantID    string
	Target      string
	GeneratedAt time.Time
}

// Analyze runs the full pipeline over an already-loaded dataset: extract,
// correlate, score, plan, aggregate. It performs no I/O. loadWarnings are
// the loader's recoverable warnings, prepended so the result carries the
// complete warning trail.
func Analyze(ds SourceDataset, p RunParams, loadWarnings []Warning) (*Result, error) {
	findings, extractWarnings := Extract(ds)
	correlations := Correlate(findings)
	risk := AssessRisk(findings, p.Target)
	plan := BuildRemediationPlan(findings)

	warnings := make([]Warning, 0, len(loadWarnings)+len(extractWarnings))
	warnings = append(warnings, loadWarnings...)
	warnings = append(warnings, extractWarnings...)

	return buildResult(p, findings, correlations, risk, plan, warnings)
}

// buildResult assembles and validates the aggregate. Invariant failures here
// indicate a pipeline bug, not bad input, and fail the run.
func buildResult(p RunParams, fs Findings, correlations []Correlation, risk RiskAssessment, plan RemediationPlan, warnings []Warning) (*Result, error) {
	ids := make(map[string]bool, fs.Total())
	for _, f := range fs.All() {
		key := string(f.Category) + "\x00" + f.ID
		if ids[key] {
			return nil, &InvariantViolationError{
				Invariant: "finding-uniqueness",
				Detail:    fmt.Sprintf("duplicate finding category=%s id=%s", f.Category, f.ID),
			}
		}
		ids[key] = true
	}

	known := make(map[string]bool, fs.Total())
	for _, f := range fs.All() {
		known[f.ID] = true
	}
	for _, c := range correlations {
		if len(c.RelatedFindingIDs) == 0 {
			return nil, &InvariantViolationError{
				Invariant: "correlation-references",
				Detail:    fmt.Sprintf("correlation %s references no findings", c.Kind),
			}
		}
		for _, id := range c.RelatedFindingIDs {
			if !known[id] {
				return nil, &InvariantViolationError{
					Invariant: "correlation-references",
					Detail:    fmt.Sprintf("correlation %s references unknown finding id %q", c.Kind, id),
				}
			}
		}
	}

	if warnings == nil {
		warnings = []Warning{}
	}
	return &Result{
		ID:            p.ID,
		TenantID:      p.TenantID,
		TargetService: p.Target,
		GeneratedAt:   p.GeneratedAt,
		Findings:      fs,
		Correlations:  correlations,
		Risk:          risk,
		Plan:          plan,
		Warnings:      warnings,
	}, nil
}
