package notify

import "strings"

// Alert is one outbound notification about a run or scheduled check.
type Alert struct {
	Name     string   `json:"name"`
	Text     string   `json:"text"`
	TenantID string   `json:"tenant_id,omitempty"`
	RunID    string   `json:"run_id,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// Threshold names map to keyword sets that trip an alert when any keyword
// appears in the analysis text, case-insensitively.
var thresholdKeywords = map[string][]string{
	"critical_cve":   {"CRITICAL", "HIGH severity", "exploit available"},
	"high_drop_rate": {"high rate", "unexpected DROP", "misconfiguration"},
	"security_risk":  {"overly permissive", "security risk", "should be restricted"},
}

// ShouldAlert reports whether text trips the named threshold. Unknown
// threshold names never alert.
func ShouldAlert(text, threshold string) bool {
	lower := strings.ToLower(text)
	for _, kw := range thresholdKeywords[threshold] {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
