package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
)

// Markdown renders analysis results as markdown reports. The compliance
// formats share the comprehensive body under their own title; json returns
// the raw result for machine consumers.
type Markdown struct{}

func NewMarkdown() *Markdown { return &Markdown{} }

var formatTitles = map[analysis.ReportFormat]string{
	analysis.FormatPCIDSS: "PCI DSS Compliance RCA Report",
	analysis.Format3DS:    "3DS Security RCA Report",
	analysis.FormatSOX:    "SOX Compliance RCA Report",
}

func (m *Markdown) Render(res *analysis.Result, narrative string, format analysis.ReportFormat) ([]byte, string, error) {
	switch format {
	case analysis.FormatJSON:
		content, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return content, "application/json", nil
	case "", analysis.FormatComprehensive:
		return []byte(m.comprehensive(res, narrative)), "text/markdown", nil
	case analysis.FormatPCIDSS, analysis.Format3DS, analysis.FormatSOX:
		report := strings.ReplaceAll(m.comprehensive(res, narrative), "Root Cause Analysis Report", formatTitles[format])
		return []byte(report), "text/markdown", nil
	default:
		return nil, "", fmt.Errorf("unknown report format %q", format)
	}
}

func (m *Markdown) comprehensive(res *analysis.Result, narrative string) string {
	fs := res.Findings
	var b strings.Builder

	fmt.Fprintf(&b, "# Root Cause Analysis Report - %s\n\n", res.TargetService)
	fmt.Fprintf(&b, "**Generated:** %s\n", res.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Target Service:** %s\n", res.TargetService)
	b.WriteString("**Analysis Period:** Last 24 hours\n\n")

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "This report provides a comprehensive Root Cause Analysis (RCA) of security, compliance, and operational issues affecting %s. The analysis correlates data from multiple sources including vulnerability scans, compliance benchmarks, configuration audits, and application logs.\n\n", res.TargetService)
	fmt.Fprintf(&b, "**Overall Risk Level:** %s\n", upper(string(res.Risk.Level)))
	fmt.Fprintf(&b, "**Risk Score:** %d/100\n\n", res.Risk.Score)

	b.WriteString("## Findings Summary\n\n")
	b.WriteString("| Category | Critical | High | Medium | Total |\n")
	b.WriteString("|----------|----------|------|--------|-------|\n")
	fmt.Fprintf(&b, "| Vulnerabilities | %d | %d | %d | %d |\n",
		analysis.CountBySeverity(fs.Vulnerabilities, analysis.SeverityCritical),
		analysis.CountBySeverity(fs.Vulnerabilities, analysis.SeverityHigh),
		analysis.CountBySeverity(fs.Vulnerabilities, analysis.SeverityMedium),
		len(fs.Vulnerabilities))
	fmt.Fprintf(&b, "| Compliance | %d | %d | %d | %d |\n",
		analysis.CountBySeverity(fs.Compliance, analysis.SeverityCritical),
		analysis.CountBySeverity(fs.Compliance, analysis.SeverityHigh),
		analysis.CountBySeverity(fs.Compliance, analysis.SeverityMedium),
		len(fs.Compliance))
	fmt.Fprintf(&b, "| Misconfigurations | %d | %d | %d | %d |\n\n",
		analysis.CountBySeverity(fs.Misconfigurations, analysis.SeverityCritical),
		analysis.CountBySeverity(fs.Misconfigurations, analysis.SeverityHigh),
		analysis.CountBySeverity(fs.Misconfigurations, analysis.SeverityMedium),
		len(fs.Misconfigurations))

	b.WriteString("## Detailed Findings\n\n")

	b.WriteString("### 🔴 Critical Vulnerabilities\n\n")
	for _, f := range fs.Vulnerabilities {
		if f.Severity != analysis.SeverityCritical {
			continue
		}
		writeVulnerability(&b, f)
	}

	b.WriteString("### 🟠 High Vulnerabilities\n\n")
	for _, f := range fs.Vulnerabilities {
		if f.Severity != analysis.SeverityHigh {
			continue
		}
		writeVulnerability(&b, f)
	}

	b.WriteString("### 🔵 Compliance Failures\n\n")
	for _, f := range fs.Compliance {
		fmt.Fprintf(&b, "#### %s\n", f.ID)
		fmt.Fprintf(&b, "- **Severity:** %s\n", upper(string(f.Severity)))
		fmt.Fprintf(&b, "- **Description:** %s\n", f.Description)
		fmt.Fprintf(&b, "- **Remediation:** %s\n", f.Remediation)
		fmt.Fprintf(&b, "- **Impact:** %s\n\n", f.Impact)
	}

	b.WriteString("### 🟡 Misconfigurations\n\n")
	for _, f := range fs.Misconfigurations {
		fmt.Fprintf(&b, "#### %s\n", f.Description)
		fmt.Fprintf(&b, "- **Type:** %s\n", f.Kind)
		fmt.Fprintf(&b, "- **Severity:** %s\n", upper(string(f.Severity)))
		fmt.Fprintf(&b, "- **Issue:** %s\n", f.Impact)
		fmt.Fprintf(&b, "- **Resolution:** %s\n\n", f.Remediation)
	}

	b.WriteString("## Correlation Analysis\n\n")
	for _, c := range res.Correlations {
		fmt.Fprintf(&b, "### %s\n", correlationTitle(c.Kind))
		fmt.Fprintf(&b, "- **Description:** %s\n", c.Description)
		fmt.Fprintf(&b, "- **Business Impact:** %s\n\n", c.Impact)
	}

	b.WriteString("## AI-Powered Analysis\n\n")
	if narrative == "" {
		narrative = "AI analysis not available for this run."
	}
	b.WriteString(narrative)
	b.WriteString("\n\n")

	b.WriteString("## Risk Assessment\n\n")
	fmt.Fprintf(&b, "### Risk Level: %s\n", upper(string(res.Risk.Level)))
	fmt.Fprintf(&b, "### Risk Score: %d/100\n\n", res.Risk.Score)
	b.WriteString("### Risk Factors:\n")
	for _, factor := range res.Risk.Factors {
		fmt.Fprintf(&b, "- %s\n", factor)
	}
	b.WriteString("\n### Affected Components:\n")
	for _, component := range res.Risk.AffectedComponents {
		fmt.Fprintf(&b, "- %s\n", component)
	}

	b.WriteString("\n## Remediation Plan\n\n")
	b.WriteString("### 🚨 Immediate Actions (Execute within 24 hours)\n\n")
	for _, a := range res.Plan.Immediate {
		writeAction(&b, a)
	}
	b.WriteString("### 📅 Short-term Fixes (Execute within 1 week)\n\n")
	for _, a := range res.Plan.ShortTerm {
		writeAction(&b, a)
	}
	b.WriteString("### 🏗️ Long-term Improvements (Execute within 1 month)\n\n")
	for _, a := range res.Plan.LongTerm {
		writeAction(&b, a)
	}

	b.WriteString("## Monitoring Recommendations\n\n")
	for _, rec := range res.Plan.Monitoring {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	b.WriteString("\n## Compliance Mapping\n\n")
	b.WriteString("### PCI DSS Requirements\n")
	b.WriteString("- **Requirement 6.1:** Develop and maintain secure systems and applications\n")
	b.WriteString("- **Requirement 6.2:** Ensure systems are protected from known vulnerabilities\n")
	b.WriteString("- **Requirement 11.2.3:** Regular external vulnerability scans\n\n")
	b.WriteString("### 3DS Security Requirements\n")
	b.WriteString("- **Requirement 3.1.1:** Secure development and maintenance processes\n")
	b.WriteString("- **Requirement 3.2.1:** Vulnerability management program\n")
	b.WriteString("- **Requirement 3.5.1:** Secure software development lifecycle\n\n")
	b.WriteString("### SOX Compliance\n")
	b.WriteString("- **Section 404:** Internal controls over financial reporting\n")
	b.WriteString("- **Risk Assessment:** Identification and analysis of relevant risks\n")
	b.WriteString("- **Control Activities:** Policies and procedures for risk mitigation\n\n")

	b.WriteString("## Conclusion\n\n")
	fmt.Fprintf(&b, "This RCA has identified %d vulnerabilities, %d compliance failures, and %d misconfigurations affecting %s. The correlated analysis shows interconnected security issues that require immediate attention.\n\n",
		len(fs.Vulnerabilities), len(fs.Compliance), len(fs.Misconfigurations), res.TargetService)
	b.WriteString("**Recommended Next Steps:**\n")
	b.WriteString("1. Execute immediate remediation actions\n")
	b.WriteString("2. Implement automated scanning and monitoring\n")
	b.WriteString("3. Establish regular security assessments\n")
	b.WriteString("4. Review and update security policies and procedures\n\n")
	b.WriteString("---\n\n")
	b.WriteString("*This report was generated automatically by the Infrastructure as Spec platform.*\n")
	b.WriteString("*For questions or additional analysis, contact the DevSecOps team.*\n")

	return b.String()
}

func writeVulnerability(b *strings.Builder, f analysis.Finding) {
	fmt.Fprintf(b, "#### %s - %s\n", f.ID, f.Package)
	fmt.Fprintf(b, "- **Severity:** %s\n", upper(string(f.Severity)))
	fmt.Fprintf(b, "- **CVSS Score:** %s\n", cvssOrNA(f.CVSS))
	fmt.Fprintf(b, "- **Description:** %s\n", f.Description)
	fmt.Fprintf(b, "- **Impact:** %s\n\n", f.Impact)
}

func writeAction(b *strings.Builder, a analysis.RemediationAction) {
	fmt.Fprintf(b, "#### %s\n", a.Description)
	fmt.Fprintf(b, "- **Priority:** %s\n", upper(string(a.Priority)))
	fmt.Fprintf(b, "- **Estimated Time:** %s\n", a.Effort)
	fmt.Fprintf(b, "- **Owner:** %s\n\n", a.Owner)
}

func upper(s string) string { return strings.ToUpper(s) }

func cvssOrNA(score float64) string {
	if score == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", score)
}

// correlationTitle turns a correlation kind like vulnerability_dependency_link
// into a section heading ("Vulnerability Dependency Link").
func correlationTitle(kind analysis.CorrelationKind) string {
	words := strings.Split(string(kind), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
