package analysis

// Category enum for findings
type Category string

const (
	CategoryVulnerability    Category = "vulnerability"
	CategoryCompliance       Category = "compliance"
	CategoryMisconfiguration Category = "misconfiguration"
	CategoryDependency       Category = "dependency"
	CategoryApplicationError Category = "application-error"
)

// Finding kinds (subtype within a category)
const (
	KindContainerMisconfiguration = "container_misconfiguration"
	KindNetworkPolicy             = "network_policy"
	KindHTTPError                 = "http_error"
	KindPodFailure                = "pod_failure"
)

// Finding is a normalized security or compliance observation extracted from
// one source artifact. Immutable after extraction; (Category, ID) is unique
// within a run.
type Finding struct {
	Category    Category `json:"category"`
	ID          string   `json:"id"`
	Kind        string   `json:"kind,omitempty"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Package     string   `json:"package,omitempty"`
	Version     string   `json:"version,omitempty"`
	License     string   `json:"license,omitempty"`
	CVSS        float64  `json:"cvss_score,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	Impact      string   `json:"impact,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// Findings groups extracted findings by category. Slice order is the
// deterministic discovery order of each extractor.
type Findings struct {
	Vulnerabilities   []Finding `json:"vulnerabilities"`
	Compliance        []Finding `json:"compliance_failures"`
	Misconfigurations []Finding `json:"misconfigurations"`
	Dependencies      []Finding `json:"dependencies"`
	ApplicationErrors []Finding `json:"application_errors"`
}

// All returns every finding in category traversal order (vulnerabilities,
// compliance, misconfigurations, dependencies, application errors).
func (f Findings) All() []Finding {
	out := make([]Finding, 0,
		len(f.Vulnerabilities)+len(f.Compliance)+len(f.Misconfigurations)+
			len(f.Dependencies)+len(f.ApplicationErrors))
	out = append(out, f.Vulnerabilities...)
	out = append(out, f.Compliance...)
	out = append(out, f.Misconfigurations...)
	out = append(out, f.Dependencies...)
	out = append(out, f.ApplicationErrors...)
	return out
}

// Total counts findings across all categories.
func (f Findings) Total() int {
	return len(f.Vulnerabilities) + len(f.Compliance) + len(f.Misconfigurations) +
		len(f.Dependencies) + len(f.ApplicationErrors)
}

// CountBySeverity tallies one category slice per severity level.
func CountBySeverity(list []Finding, sev Severity) int {
	n := 0
	for _, f := range list {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
