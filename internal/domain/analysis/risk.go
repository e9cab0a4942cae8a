package analysis

// RiskLevel enum derived from the score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Fixed risk weights. These reproduce the established scoring contract
// exactly; do not tune them.
const (
	weightVulnerabilityCritical = 10
	weightVulnerabilityHigh     = 5
	weightComplianceCritical    = 8
	weightComplianceHigh        = 4
	weightMisconfigurationHigh  = 6
)

// RiskAssessment is the aggregate posture for one run.
type RiskAssessment struct {
	Score              int       `json:"risk_score"`
	Level              RiskLevel `json:"overall_risk_level"`
	Factors            []string  `json:"risk_factors"`
	AffectedComponents []string  `json:"affected_components"`
}

// AssessRisk sums the fixed weights over the findings. Factors are listed in
// weighing order: category precedence (vulnerabilities, compliance,
// misconfigurations), critical before high within a category. The score is a
// plain sum, so permuting the input never changes score or level.
//
// AffectedComponents states the blast-radius assumption of the model (the
// target plus the three infrastructure layers), not a discovered fact.
func AssessRisk(fs Findings, target string) RiskAssessment {
	score := 0
	var factors []string

	add := func(list []Finding, sev Severity, weight int, label string) {
		for _, f := range list {
			if f.Severity != sev {
				continue
			}
			score += weight
			factors = append(factors, label+": "+riskFactorRef(f))
		}
	}

	add(fs.Vulnerabilities, SeverityCritical, weightVulnerabilityCritical, "Critical vulnerability")
	add(fs.Vulnerabilities, SeverityHigh, weightVulnerabilityHigh, "High vulnerability")
	add(fs.Compliance, SeverityCritical, weightComplianceCritical, "Critical compliance failure")
	add(fs.Compliance, SeverityHigh, weightComplianceHigh, "High compliance failure")
	add(fs.Misconfigurations, SeverityHigh, weightMisconfigurationHigh, "High misconfiguration")

	return RiskAssessment{
		Score:              score,
		Level:              LevelForScore(score),
		Factors:            factors,
		AffectedComponents: affectedComponents(target),
	}
}

// riskFactorRef picks the human reference for a factor line: the stable id
// for identified findings, the headline for misconfigurations.
func riskFactorRef(f Finding) string {
	if f.Category == CategoryMisconfiguration {
		return f.Description
	}
	return f.ID
}

// LevelForScore maps a score to its level. Boundaries are exact:
// 20 and above is critical, 10..19 high, 5..9 medium, below 5 low.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= 20:
		return RiskCritical
	case score >= 10:
		return RiskHigh
	case score >= 5:
		return RiskMedium
	default:
		return RiskLow
	}
}

func affectedComponents(target string) []string {
	fixed := []string{"kubernetes-cluster", "network-infrastructure", "container-runtime"}
	out := make([]string, 0, 1+len(fixed))
	if target != "" {
		out = append(out, target)
	}
	for _, c := range fixed {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}
