package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
)

// SystemPrompt frames the model as a root cause analyst. Keep it short; the
// local models this runs against burn context fast.
func SystemPrompt() string {
	return `You are a senior security analyst writing root cause analyses for infrastructure and compliance findings. Be concrete and concise. Link findings to their probable shared causes and state the business impact in plain language. Do not invent findings that are not listed in the request.`
}

// NarrativePrompt builds the user message from a finished analysis result.
// Only identifiers and counts go to the model, never raw artifact content.
func NarrativePrompt(res *analysis.Result) string {
	fs := res.Findings

	var highVulns []string
	for _, f := range fs.Vulnerabilities {
		if f.Severity.AtLeast(analysis.SeverityHigh) {
			highVulns = append(highVulns, f.ID)
		}
	}
	var violations []string
	for _, f := range fs.Compliance {
		if f.Severity.AtLeast(analysis.SeverityHigh) {
			violations = append(violations, f.ID)
		}
	}
	var policyIssues []string
	for _, f := range fs.Misconfigurations {
		if f.Severity == analysis.SeverityHigh {
			policyIssues = append(policyIssues, f.Description)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following security findings for %s:\n\n", res.TargetService)
	fmt.Fprintf(&b, "Vulnerabilities: %d\n", len(fs.Vulnerabilities))
	fmt.Fprintf(&b, "Compliance Failures: %d\n", len(fs.Compliance))
	fmt.Fprintf(&b, "Misconfigurations: %d\n", len(fs.Misconfigurations))
	fmt.Fprintf(&b, "Dependency Issues: %d\n\n", len(fs.Dependencies))
	b.WriteString("Key Issues:\n")
	fmt.Fprintf(&b, "- Critical/High Vulnerabilities: %s\n", listOrNone(highVulns))
	fmt.Fprintf(&b, "- Compliance Violations: %s\n", listOrNone(violations))
	fmt.Fprintf(&b, "- Network/Policy Issues: %s\n", listOrNone(policyIssues))
	if len(res.Correlations) > 0 {
		b.WriteString("\nCorrelations:\n")
		for _, c := range res.Correlations {
			fmt.Fprintf(&b, "- %s\n", c.Description)
		}
	}
	b.WriteString("\nProvide a comprehensive root cause analysis linking these issues and their business impact.")
	return b.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
