package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// CorrelationKind enum
type CorrelationKind string

const (
	CorrelationVulnerabilityDependency CorrelationKind = "vulnerability_dependency_link"
	CorrelationComplianceConfig        CorrelationKind = "compliance_config_link"
	CorrelationNetworkError            CorrelationKind = "network_error_link"
)

// Correlation is a derived relationship between findings of different
// categories. It is never hand-authored; every referenced id must exist in
// the finding set of the same run.
type Correlation struct {
	Kind              CorrelationKind `json:"kind"`
	Description       string          `json:"description"`
	Impact            string          `json:"impact"`
	RelatedFindingIDs []string        `json:"related_finding_ids"`
}

// Correlate cross-references the findings and emits correlations in fixed
// order: vulnerability↔dependency, compliance↔misconfiguration, then
// application-error↔network-policy. The first rule matches on shared package
// identifiers; the other two are coarse co-occurrence signals and stay that
// way on purpose.
func Correlate(fs Findings) []Correlation {
	var out []Correlation

	// packages present both in vulnerability findings and in the SBOM
	vulnPkgs := packageSet(fs.Vulnerabilities)
	depPkgs := packageSet(fs.Dependencies)
	shared := intersect(vulnPkgs, depPkgs)
	if len(shared) > 0 {
		var ids []string
		for _, f := range fs.Vulnerabilities {
			if shared[f.Package] {
				ids = append(ids, f.ID)
			}
		}
		for _, f := range fs.Dependencies {
			if shared[f.Package] {
				ids = append(ids, f.ID)
			}
		}
		out = append(out, Correlation{
			Kind:              CorrelationVulnerabilityDependency,
			Description:       fmt.Sprintf("Vulnerable packages found in SBOM: %s", strings.Join(sortedKeys(shared), ", ")),
			Impact:            "Direct security vulnerability in application dependencies",
			RelatedFindingIDs: ids,
		})
	}

	if len(fs.Compliance) > 0 && len(fs.Misconfigurations) > 0 {
		ids := make([]string, 0, len(fs.Compliance)+len(fs.Misconfigurations))
		for _, f := range fs.Compliance {
			ids = append(ids, f.ID)
		}
		for _, f := range fs.Misconfigurations {
			ids = append(ids, f.ID)
		}
		out = append(out, Correlation{
			Kind:              CorrelationComplianceConfig,
			Description:       "CIS compliance failures related to container and network misconfigurations",
			Impact:            "Infrastructure security posture compromised",
			RelatedFindingIDs: ids,
		})
	}

	if len(fs.ApplicationErrors) > 0 {
		var policyIDs []string
		for _, f := range fs.Misconfigurations {
			if f.Kind == KindNetworkPolicy {
				policyIDs = append(policyIDs, f.ID)
			}
		}
		if len(policyIDs) > 0 {
			ids := make([]string, 0, len(fs.ApplicationErrors)+len(policyIDs))
			for _, f := range fs.ApplicationErrors {
				ids = append(ids, f.ID)
			}
			ids = append(ids, policyIDs...)
			out = append(out, Correlation{
				Kind:              CorrelationNetworkError,
				Description:       "Application errors potentially caused by restrictive network policies",
				Impact:            "Service availability affected by security controls",
				RelatedFindingIDs: ids,
			})
		}
	}

	return out
}

func packageSet(list []Finding) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, f := range list {
		if f.Package != "" {
			set[f.Package] = true
		}
	}
	return set
}

func intersect(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
