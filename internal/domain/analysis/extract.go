package analysis

import (
	"fmt"
	"strings"
)

// Extraction normalizes raw artifact records into findings. Each extractor is
// a pure function over the dataset: severity strings are normalized at this
// boundary, the high/critical filters are applied here, and absent fields
// default to "unknown"/empty instead of failing.

const unknown = "unknown"

// Extract runs every category extractor in fixed order and de-duplicates
// (category, id) collisions with a warning so the uniqueness invariant holds
// by construction.
func Extract(ds SourceDataset) (Findings, []Warning) {
	var warns []Warning

	fs := Findings{
		Vulnerabilities:   extractVulnerabilities(ds.Vulnerabilities, &warns),
		Compliance:        extractCompliance(ds.Benchmark, &warns),
		Misconfigurations: extractMisconfigurations(ds.Vulnerabilities, ds.Policies, &warns),
		Dependencies:      extractDependencies(ds.SBOM, &warns),
		ApplicationErrors: extractApplicationErrors(ds.Logs),
	}

	seen := make(map[string]bool, fs.Total())
	dedupe := func(list []Finding) []Finding {
		out := list[:0]
		for _, f := range list {
			key := string(f.Category) + "\x00" + f.ID
			if seen[key] {
				warns = append(warns, warnf("extract", WarnDuplicateFinding,
					"duplicate finding dropped: category=%s id=%s", f.Category, f.ID))
				continue
			}
			seen[key] = true
			out = append(out, f)
		}
		return out
	}
	fs.Vulnerabilities = dedupe(fs.Vulnerabilities)
	fs.Compliance = dedupe(fs.Compliance)
	fs.Misconfigurations = dedupe(fs.Misconfigurations)
	fs.Dependencies = dedupe(fs.Dependencies)
	fs.ApplicationErrors = dedupe(fs.ApplicationErrors)

	return fs, warns
}

// normalizeSeverity parses a raw severity and records a warning when the
// value is unrecognized and defaulted.
func normalizeSeverity(raw, context string, warns *[]Warning) Severity {
	sev, ok := ParseSeverity(raw)
	if !ok {
		*warns = append(*warns, warnf("extract", WarnUnrecognizedSeverity,
			"unrecognized severity %q on %s, defaulted to low", raw, context))
	}
	return sev
}

func extractVulnerabilities(report *VulnerabilityReport, warns *[]Warning) []Finding {
	if report == nil {
		return nil
	}
	var out []Finding
	for _, v := range report.Report.Findings {
		sev := normalizeSeverity(v.Severity, "vulnerability "+v.VulnerabilityID, warns)
		if !sev.AtLeast(SeverityHigh) {
			continue
		}
		out = append(out, Finding{
			Category:    CategoryVulnerability,
			ID:          v.VulnerabilityID,
			Severity:    sev,
			Description: v.Description,
			Package:     v.PackageName,
			CVSS:        v.CVSSScore,
			Impact:      "Container security vulnerability",
			Source:      vulnerabilityFile,
		})
	}
	return out
}

func extractCompliance(report *BenchmarkReport, warns *[]Warning) []Finding {
	if report == nil {
		return nil
	}
	var out []Finding
	for _, c := range report.Report.FailedChecks {
		sev := normalizeSeverity(c.Severity, "compliance check "+c.ID, warns)
		if !sev.AtLeast(SeverityHigh) {
			continue
		}
		out = append(out, Finding{
			Category:    CategoryCompliance,
			ID:          c.ID,
			Severity:    sev,
			Description: c.Description,
			Remediation: c.Remediation,
			Impact:      "Kubernetes security compliance violation",
			Source:      benchmarkFile,
		})
	}
	return out
}

func extractMisconfigurations(report *VulnerabilityReport, policies []Document, warns *[]Warning) []Finding {
	var out []Finding
	if report != nil {
		for _, m := range report.Report.Misconfigurations {
			// the scanner's misconfiguration list keeps high only
			sev := normalizeSeverity(m.Severity, "misconfiguration "+m.Title, warns)
			if sev != SeverityHigh {
				continue
			}
			out = append(out, Finding{
				Category:    CategoryMisconfiguration,
				ID:          m.Title,
				Kind:        KindContainerMisconfiguration,
				Severity:    sev,
				Description: m.Title,
				Remediation: m.Resolution,
				Impact:      m.Message,
				Source:      vulnerabilityFile,
			})
		}
	}

	// textual heuristic over policy bodies: a policy that allows traffic from
	// any source is flagged once per matching document
	for _, doc := range policies {
		body := strings.ToLower(doc.Content)
		if strings.Contains(body, "allow") && strings.Contains(body, "any") {
			out = append(out, Finding{
				Category:    CategoryMisconfiguration,
				ID:          doc.Name,
				Kind:        KindNetworkPolicy,
				Severity:    SeverityHigh,
				Description: "Overly permissive network policy",
				Remediation: "Restrict network policies to specific namespaces/services",
				Impact:      "Network policy allows traffic from any source",
				Source:      doc.Name,
			})
		}
	}
	return out
}

func extractDependencies(sbom *SBOMDocument, warns *[]Warning) []Finding {
	if sbom == nil {
		return nil
	}
	var out []Finding
	for _, pkg := range sbom.Packages {
		for _, vuln := range sbom.Vulnerabilities {
			if !containsString(vuln.AffectedPackages, pkg.SPDXID) {
				continue
			}
			name := pkg.Name
			if name == "" {
				name = unknown
			}
			version := pkg.VersionInfo
			if version == "" {
				version = unknown
			}
			license := pkg.License
			if license == "" {
				license = unknown
			}
			out = append(out, Finding{
				Category:    CategoryDependency,
				ID:          fmt.Sprintf("%s/%s", vuln.Name, pkg.SPDXID),
				Severity:    normalizeSeverity(vuln.Severity, "sbom vulnerability "+vuln.Name, warns),
				Description: fmt.Sprintf("%s %s affected by %s", name, version, vuln.Name),
				Package:     name,
				Version:     version,
				License:     license,
				Source:      sbomFile,
			})
		}
	}
	return out
}

func extractApplicationErrors(logs []Document) []Finding {
	var out []Finding
	for _, doc := range logs {
		lower := strings.ToLower(doc.Content)

		if strings.Contains(doc.Content, "405") && strings.Contains(lower, "method not allowed") {
			out = append(out, Finding{
				Category:    CategoryApplicationError,
				ID:          "http-405:" + doc.Name,
				Kind:        KindHTTPError,
				Severity:    SeverityMedium,
				Description: "Method Not Allowed error detected",
				Impact:      "API authentication/authorization issue",
				Source:      doc.Name,
			})
		}

		if strings.Contains(lower, "crashloopbackoff") {
			out = append(out, Finding{
				Category:    CategoryApplicationError,
				ID:          "crashloopbackoff:" + doc.Name,
				Kind:        KindPodFailure,
				Severity:    SeverityHigh,
				Description: "Pod repeatedly crashing",
				Impact:      "Application stability issue",
				Source:      doc.Name,
			})
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
