package analysis

import "fmt"

// Priority enum for remediation actions
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Bucket enum grouping actions by urgency
type Bucket string

const (
	BucketImmediate  Bucket = "immediate"
	BucketShortTerm  Bucket = "short_term"
	BucketLongTerm   Bucket = "long_term"
	BucketMonitoring Bucket = "monitoring"
)

// ActionOrigin separates findings-derived actions from standing templates so
// the two stay distinguishable in output and in tests.
type ActionOrigin string

const (
	OriginFinding  ActionOrigin = "finding"
	OriginTemplate ActionOrigin = "template"
)

// RemediationAction is one actionable item of the plan.
type RemediationAction struct {
	Description string       `json:"action"`
	Priority    Priority     `json:"priority"`
	Effort      string       `json:"estimated_time"`
	Owner       string       `json:"owner"`
	Bucket      Bucket       `json:"bucket"`
	Origin      ActionOrigin `json:"origin"`
	FindingID   string       `json:"finding_id,omitempty"`
}

// RemediationPlan groups actions into the four fixed buckets. Long-term
// actions and monitoring recommendations are standing organizational
// practice, independent of the run's findings.
type RemediationPlan struct {
	Immediate  []RemediationAction `json:"immediate_actions"`
	ShortTerm  []RemediationAction `json:"short_term_fixes"`
	LongTerm   []RemediationAction `json:"long_term_improvements"`
	Monitoring []string            `json:"monitoring_recommendations"`
}

// BuildRemediationPlan maps findings to prioritized actions. Immediate
// actions originate only from high/critical vulnerabilities and compliance
// failures; misconfigurations land in short_term.
func BuildRemediationPlan(fs Findings) RemediationPlan {
	plan := RemediationPlan{
		LongTerm:   longTermImprovements(),
		Monitoring: monitoringRecommendations(),
	}

	for _, f := range fs.Vulnerabilities {
		if !f.Severity.AtLeast(SeverityHigh) {
			continue
		}
		plan.Immediate = append(plan.Immediate, RemediationAction{
			Description: fmt.Sprintf("Update %s to fix %s", f.Package, f.ID),
			Priority:    PriorityCritical,
			Effort:      "2-4 hours",
			Owner:       "DevSecOps Team",
			Bucket:      BucketImmediate,
			Origin:      OriginFinding,
			FindingID:   f.ID,
		})
	}

	for _, f := range fs.Compliance {
		if !f.Severity.AtLeast(SeverityHigh) {
			continue
		}
		plan.Immediate = append(plan.Immediate, RemediationAction{
			Description: f.Remediation,
			Priority:    PriorityHigh,
			Effort:      "1-2 hours",
			Owner:       "Platform Team",
			Bucket:      BucketImmediate,
			Origin:      OriginFinding,
			FindingID:   f.ID,
		})
	}

	for _, f := range fs.Misconfigurations {
		plan.ShortTerm = append(plan.ShortTerm, RemediationAction{
			Description: f.Remediation,
			Priority:    PriorityMedium,
			Effort:      "4-8 hours",
			Owner:       "Development Team",
			Bucket:      BucketShortTerm,
			Origin:      OriginFinding,
			FindingID:   f.ID,
		})
	}

	return plan
}

func longTermImprovements() []RemediationAction {
	return []RemediationAction{
		{
			Description: "Implement automated vulnerability scanning in CI/CD pipeline",
			Priority:    PriorityMedium,
			Effort:      "1-2 weeks",
			Owner:       "DevSecOps Team",
			Bucket:      BucketLongTerm,
			Origin:      OriginTemplate,
		},
		{
			Description: "Establish CIS benchmark compliance monitoring",
			Priority:    PriorityMedium,
			Effort:      "1 week",
			Owner:       "Platform Team",
			Bucket:      BucketLongTerm,
			Origin:      OriginTemplate,
		},
		{
			Description: "Implement SBOM generation and analysis in build process",
			Priority:    PriorityLow,
			Effort:      "2-3 weeks",
			Owner:       "Development Team",
			Bucket:      BucketLongTerm,
			Origin:      OriginTemplate,
		},
	}
}

func monitoringRecommendations() []string {
	return []string{
		"Implement continuous vulnerability scanning",
		"Set up CIS compliance monitoring alerts",
		"Monitor network policy violations",
		"Track application error rates and patterns",
		"Regular SBOM analysis and dependency updates",
	}
}
