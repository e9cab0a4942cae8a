package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func richDataset() SourceDataset {
	bench := &BenchmarkReport{}
	bench.Report.FailedChecks = []FailedCheck{
		{ID: "5.1.1", Description: "RBAC not enforced", Severity: "critical", Remediation: "enable RBAC"},
	}

	vulns := &VulnerabilityReport{}
	vulns.Report.Findings = []VulnerabilityRecord{
		{VulnerabilityID: "CVE-2024-0001", PackageName: "openssl", Severity: "CRITICAL", CVSSScore: 9.8, Description: "overflow"},
	}
	vulns.Report.Misconfigurations = []MisconfigurationItem{
		{Title: "Container runs as root", Severity: "HIGH", Message: "root user", Resolution: "set runAsNonRoot"},
	}

	sbom := &SBOMDocument{
		Packages: []SBOMPackage{{SPDXID: "SPDXRef-openssl", Name: "openssl", VersionInfo: "1.1.1k"}},
		Vulnerabilities: []SBOMVulnerability{
			{Name: "CVE-2024-0001", Severity: "critical", AffectedPackages: []string{"SPDXRef-openssl"}},
		},
	}

	return SourceDataset{
		Benchmark:       bench,
		Vulnerabilities: vulns,
		SBOM:            sbom,
		Policies:        []Document{{Name: "allow-all.yaml", Content: "action: Allow\nsource: any"}},
		Logs:            []Document{{Name: "gateway.log", Content: `"GET /x" 405 Method Not Allowed`}},
	}
}

func testParams() RunParams {
	return RunParams{
		ID:          RunID("run-1"),
		TenantID:    "acme",
		Target:      "payment-gateway",
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAnalyze_AssemblesFullResult(t *testing.T) {
	res, err := Analyze(richDataset(), testParams(), nil)

	require.NoError(t, err)
	assert.Equal(t, RunID("run-1"), res.ID)
	assert.Equal(t, "acme", res.TenantID)
	assert.Equal(t, "payment-gateway", res.TargetService)

	assert.Len(t, res.Findings.Vulnerabilities, 1)
	assert.Len(t, res.Findings.Compliance, 1)
	assert.Len(t, res.Findings.Misconfigurations, 2)
	assert.Len(t, res.Findings.Dependencies, 1)
	assert.Len(t, res.Findings.ApplicationErrors, 1)

	// all three correlation rules fire on this dataset
	require.Len(t, res.Correlations, 3)

	// 10 (crit vuln) + 8 (crit compliance) + 6 + 6 (two high misconfigs)
	assert.Equal(t, 30, res.Risk.Score)
	assert.Equal(t, RiskCritical, res.Risk.Level)

	assert.Len(t, res.Plan.Immediate, 2)
	assert.Len(t, res.Plan.ShortTerm, 2)
	assert.NotNil(t, res.Warnings)
	assert.Empty(t, res.Warnings)
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	a, err := Analyze(richDataset(), testParams(), nil)
	require.NoError(t, err)
	b, err := Analyze(richDataset(), testParams(), nil)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestAnalyze_EmptyDataset(t *testing.T) {
	res, err := Analyze(SourceDataset{}, testParams(), nil)

	require.NoError(t, err)
	assert.Empty(t, res.Findings.All())
	assert.Empty(t, res.Correlations)
	assert.Equal(t, 0, res.Risk.Score)
	assert.Equal(t, RiskLow, res.Risk.Level)
	assert.Empty(t, res.Plan.Immediate)
	assert.Empty(t, res.Plan.ShortTerm)
	assert.Len(t, res.Plan.LongTerm, 3)
	assert.Len(t, res.Plan.Monitoring, 5)
}

func TestAnalyze_PrependsLoadWarnings(t *testing.T) {
	loadWarn := Warning{Stage: "load", Code: WarnMalformedArtifact, Message: "bad json"}

	ds := SourceDataset{
		Vulnerabilities: vulnReport(
			VulnerabilityRecord{VulnerabilityID: "CVE-X", Severity: "weird"},
		),
	}

	res, err := Analyze(ds, testParams(), []Warning{loadWarn})

	require.NoError(t, err)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "load", res.Warnings[0].Stage)
	assert.Equal(t, "extract", res.Warnings[1].Stage)
	assert.Equal(t, WarnUnrecognizedSeverity, res.Warnings[1].Code)
}

func TestAnalyze_CorrelationReferencesResolve(t *testing.T) {
	res, err := Analyze(richDataset(), testParams(), nil)
	require.NoError(t, err)

	known := make(map[string]bool)
	for _, f := range res.Findings.All() {
		known[f.ID] = true
	}
	for _, c := range res.Correlations {
		require.NotEmpty(t, c.RelatedFindingIDs)
		for _, id := range c.RelatedFindingIDs {
			assert.True(t, known[id], "correlation %s references unknown id %s", c.Kind, id)
		}
	}
}

func TestBuildResult_RejectsDuplicateFindings(t *testing.T) {
	fs := Findings{
		Vulnerabilities: []Finding{
			{Category: CategoryVulnerability, ID: "CVE-1", Severity: SeverityHigh},
			{Category: CategoryVulnerability, ID: "CVE-1", Severity: SeverityHigh},
		},
	}

	_, err := buildResult(testParams(), fs, nil, RiskAssessment{}, RemediationPlan{}, nil)

	var iv *InvariantViolationError
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, "finding-uniqueness", iv.Invariant)
}

func TestBuildResult_RejectsDanglingCorrelation(t *testing.T) {
	fs := Findings{
		Vulnerabilities: []Finding{{Category: CategoryVulnerability, ID: "CVE-1", Severity: SeverityHigh}},
	}
	correlations := []Correlation{
		{Kind: CorrelationVulnerabilityDependency, RelatedFindingIDs: []string{"CVE-1", "CVE-MISSING"}},
	}

	_, err := buildResult(testParams(), fs, correlations, RiskAssessment{}, RemediationPlan{}, nil)

	var iv *InvariantViolationError
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, "correlation-references", iv.Invariant)
}

func TestBuildResult_RejectsEmptyCorrelation(t *testing.T) {
	_, err := buildResult(testParams(), Findings{}, []Correlation{{Kind: CorrelationComplianceConfig}}, RiskAssessment{}, RemediationPlan{}, nil)

	var iv *InvariantViolationError
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, "correlation-references", iv.Invariant)
}
