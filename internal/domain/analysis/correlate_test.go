package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelate_SharedPackageLinksVulnerabilityAndDependency(t *testing.T) {
	fs := Findings{
		Vulnerabilities: []Finding{
			{Category: CategoryVulnerability, ID: "CVE-2024-0001", Package: "openssl", Severity: SeverityCritical},
			{Category: CategoryVulnerability, ID: "CVE-2024-0002", Package: "bash", Severity: SeverityHigh},
		},
		Dependencies: []Finding{
			{Category: CategoryDependency, ID: "CVE-2024-0001/SPDXRef-openssl", Package: "openssl", Severity: SeverityCritical},
		},
	}

	out := Correlate(fs)

	require.Len(t, out, 1)
	c := out[0]
	assert.Equal(t, CorrelationVulnerabilityDependency, c.Kind)
	assert.Equal(t, "Vulnerable packages found in SBOM: openssl", c.Description)
	assert.Equal(t, []string{"CVE-2024-0001", "CVE-2024-0001/SPDXRef-openssl"}, c.RelatedFindingIDs)
}

func TestCorrelate_NoSharedPackageNoLink(t *testing.T) {
	fs := Findings{
		Vulnerabilities: []Finding{{ID: "CVE-2024-0001", Package: "openssl"}},
		Dependencies:    []Finding{{ID: "CVE-2024-0002/SPDXRef-zlib", Package: "zlib"}},
	}
	assert.Empty(t, Correlate(fs))
}

func TestCorrelate_ComplianceAndMisconfigurationCoOccurrence(t *testing.T) {
	fs := Findings{
		Compliance:        []Finding{{ID: "5.1.1", Severity: SeverityCritical}},
		Misconfigurations: []Finding{{ID: "allow-all.yaml", Kind: KindNetworkPolicy, Severity: SeverityHigh}},
	}

	out := Correlate(fs)

	require.Len(t, out, 1)
	assert.Equal(t, CorrelationComplianceConfig, out[0].Kind)
	assert.Equal(t, []string{"5.1.1", "allow-all.yaml"}, out[0].RelatedFindingIDs)
}

func TestCorrelate_NetworkErrorNeedsPolicyFinding(t *testing.T) {
	appErrors := []Finding{{ID: "http-405:gateway.log", Kind: KindHTTPError}}

	// errors alone do not correlate
	out := Correlate(Findings{ApplicationErrors: appErrors})
	assert.Empty(t, out)

	// a network policy misconfiguration completes the pair, and the
	// co-occurrence rule fires alongside when compliance is present too
	fs := Findings{
		ApplicationErrors: appErrors,
		Misconfigurations: []Finding{
			{ID: "root-user", Kind: KindContainerMisconfiguration},
			{ID: "allow-all.yaml", Kind: KindNetworkPolicy},
		},
	}
	out = Correlate(fs)
	require.Len(t, out, 1)
	assert.Equal(t, CorrelationNetworkError, out[0].Kind)
	assert.Equal(t, []string{"http-405:gateway.log", "allow-all.yaml"}, out[0].RelatedFindingIDs)
}

func TestCorrelate_EmissionOrderIsFixed(t *testing.T) {
	fs := Findings{
		Vulnerabilities:   []Finding{{ID: "CVE-2024-0001", Package: "openssl"}},
		Compliance:        []Finding{{ID: "5.1.1"}},
		Misconfigurations: []Finding{{ID: "allow-all.yaml", Kind: KindNetworkPolicy}},
		Dependencies:      []Finding{{ID: "CVE-2024-0001/SPDXRef-openssl", Package: "openssl"}},
		ApplicationErrors: []Finding{{ID: "http-405:gateway.log"}},
	}

	out := Correlate(fs)

	require.Len(t, out, 3)
	assert.Equal(t, CorrelationVulnerabilityDependency, out[0].Kind)
	assert.Equal(t, CorrelationComplianceConfig, out[1].Kind)
	assert.Equal(t, CorrelationNetworkError, out[2].Kind)
}

func TestCorrelate_EmptyFindings(t *testing.T) {
	assert.Empty(t, Correlate(Findings{}))
}
