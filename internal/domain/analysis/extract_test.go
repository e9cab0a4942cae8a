package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vulnReport(findings ...VulnerabilityRecord) *VulnerabilityReport {
	r := &VulnerabilityReport{}
	r.Report.Findings = findings
	return r
}

func TestExtract_VulnerabilitiesKeepHighAndCritical(t *testing.T) {
	ds := SourceDataset{
		Vulnerabilities: vulnReport(
			VulnerabilityRecord{VulnerabilityID: "CVE-2024-0001", PackageName: "openssl", Severity: "CRITICAL", CVSSScore: 9.8, Description: "buffer overflow"},
			VulnerabilityRecord{VulnerabilityID: "CVE-2024-0002", PackageName: "libxml2", Severity: "HIGH", CVSSScore: 7.5, Description: "xxe"},
			VulnerabilityRecord{VulnerabilityID: "CVE-2024-0003", PackageName: "bash", Severity: "MEDIUM", Description: "minor"},
			VulnerabilityRecord{VulnerabilityID: "CVE-2024-0004", PackageName: "curl", Severity: "LOW", Description: "info leak"},
		),
	}

	fs, warns := Extract(ds)

	require.Len(t, fs.Vulnerabilities, 2)
	assert.Empty(t, warns)

	first := fs.Vulnerabilities[0]
	assert.Equal(t, CategoryVulnerability, first.Category)
	assert.Equal(t, "CVE-2024-0001", first.ID)
	assert.Equal(t, SeverityCritical, first.Severity)
	assert.Equal(t, "openssl", first.Package)
	assert.Equal(t, 9.8, first.CVSS)
	assert.Equal(t, "Container security vulnerability", first.Impact)

	assert.Equal(t, SeverityHigh, fs.Vulnerabilities[1].Severity)
}

func TestExtract_ComplianceFiltersBelowHigh(t *testing.T) {
	bench := &BenchmarkReport{}
	bench.Report.FailedChecks = []FailedCheck{
		{ID: "5.1.1", Description: "RBAC not enforced", Severity: "critical", Remediation: "enable RBAC"},
		{ID: "5.2.3", Description: "privileged containers", Severity: "high", Remediation: "drop privileges"},
		{ID: "5.7.4", Description: "default namespace in use", Severity: "medium", Remediation: "use namespaces"},
	}

	fs, warns := Extract(SourceDataset{Benchmark: bench})

	require.Len(t, fs.Compliance, 2)
	assert.Empty(t, warns)
	assert.Equal(t, "5.1.1", fs.Compliance[0].ID)
	assert.Equal(t, "enable RBAC", fs.Compliance[0].Remediation)
	assert.Equal(t, "Kubernetes security compliance violation", fs.Compliance[0].Impact)
}

func TestExtract_MisconfigurationsKeepScannerHighOnly(t *testing.T) {
	r := &VulnerabilityReport{}
	r.Report.Misconfigurations = []MisconfigurationItem{
		{Title: "Container runs as root", Severity: "HIGH", Message: "root user", Resolution: "set runAsNonRoot"},
		{Title: "Read-only fs missing", Severity: "MEDIUM", Message: "writable fs", Resolution: "set readOnlyRootFilesystem"},
	}

	fs, _ := Extract(SourceDataset{Vulnerabilities: r})

	require.Len(t, fs.Misconfigurations, 1)
	m := fs.Misconfigurations[0]
	assert.Equal(t, KindContainerMisconfiguration, m.Kind)
	assert.Equal(t, "Container runs as root", m.ID)
	assert.Equal(t, "root user", m.Impact)
	assert.Equal(t, "set runAsNonRoot", m.Remediation)
}

func TestExtract_PermissivePolicyFlagged(t *testing.T) {
	ds := SourceDataset{
		Policies: []Document{
			{Name: "allow-all.yaml", Content: "spec:\n  action: Allow\n  source: any\n"},
			{Name: "deny-external.yaml", Content: "spec:\n  action: Deny\n"},
		},
	}

	fs, _ := Extract(ds)

	require.Len(t, fs.Misconfigurations, 1)
	m := fs.Misconfigurations[0]
	assert.Equal(t, "allow-all.yaml", m.ID)
	assert.Equal(t, KindNetworkPolicy, m.Kind)
	assert.Equal(t, SeverityHigh, m.Severity)
	assert.Equal(t, "Overly permissive network policy", m.Description)
}

func TestExtract_DependenciesCrossReferenceSBOM(t *testing.T) {
	sbom := &SBOMDocument{
		Packages: []SBOMPackage{
			{SPDXID: "SPDXRef-openssl", Name: "openssl", VersionInfo: "1.1.1k", License: "Apache-2.0"},
			{SPDXID: "SPDXRef-zlib", Name: "zlib", VersionInfo: "1.2.11"},
		},
		Vulnerabilities: []SBOMVulnerability{
			{Name: "CVE-2024-0001", Severity: "critical", AffectedPackages: []string{"SPDXRef-openssl"}},
		},
	}

	fs, warns := Extract(SourceDataset{SBOM: sbom})

	require.Len(t, fs.Dependencies, 1)
	assert.Empty(t, warns)
	d := fs.Dependencies[0]
	assert.Equal(t, "CVE-2024-0001/SPDXRef-openssl", d.ID)
	assert.Equal(t, SeverityCritical, d.Severity)
	assert.Equal(t, "openssl 1.1.1k affected by CVE-2024-0001", d.Description)
	assert.Equal(t, "Apache-2.0", d.License)
}

func TestExtract_DependencyMissingFieldsDefaultUnknown(t *testing.T) {
	sbom := &SBOMDocument{
		Packages: []SBOMPackage{{SPDXID: "SPDXRef-mystery"}},
		Vulnerabilities: []SBOMVulnerability{
			{Name: "CVE-2024-0009", Severity: "high", AffectedPackages: []string{"SPDXRef-mystery"}},
		},
	}

	fs, _ := Extract(SourceDataset{SBOM: sbom})

	require.Len(t, fs.Dependencies, 1)
	d := fs.Dependencies[0]
	assert.Equal(t, "unknown", d.Package)
	assert.Equal(t, "unknown", d.Version)
	assert.Equal(t, "unknown", d.License)
	assert.Equal(t, "unknown unknown affected by CVE-2024-0009", d.Description)
}

func TestExtract_ApplicationErrorsFromLogs(t *testing.T) {
	ds := SourceDataset{
		Logs: []Document{
			{Name: "gateway.log", Content: `10.0.0.1 - "POST /api" 405 Method Not Allowed`},
			{Name: "pods.log", Content: "payment-svc-7d9f CrashLoopBackOff restarts=12"},
			{Name: "quiet.log", Content: "all good"},
		},
	}

	fs, _ := Extract(ds)

	require.Len(t, fs.ApplicationErrors, 2)
	assert.Equal(t, "http-405:gateway.log", fs.ApplicationErrors[0].ID)
	assert.Equal(t, KindHTTPError, fs.ApplicationErrors[0].Kind)
	assert.Equal(t, SeverityMedium, fs.ApplicationErrors[0].Severity)
	assert.Equal(t, "crashloopbackoff:pods.log", fs.ApplicationErrors[1].ID)
	assert.Equal(t, KindPodFailure, fs.ApplicationErrors[1].Kind)
	assert.Equal(t, SeverityHigh, fs.ApplicationErrors[1].Severity)
}

func TestExtract_DuplicateFindingDroppedWithWarning(t *testing.T) {
	ds := SourceDataset{
		Vulnerabilities: vulnReport(
			VulnerabilityRecord{VulnerabilityID: "CVE-2024-0001", PackageName: "openssl", Severity: "HIGH"},
			VulnerabilityRecord{VulnerabilityID: "CVE-2024-0001", PackageName: "openssl", Severity: "CRITICAL"},
		),
	}

	fs, warns := Extract(ds)

	require.Len(t, fs.Vulnerabilities, 1)
	assert.Equal(t, SeverityHigh, fs.Vulnerabilities[0].Severity, "first occurrence wins")
	require.Len(t, warns, 1)
	assert.Equal(t, WarnDuplicateFinding, warns[0].Code)
	assert.Equal(t, "extract", warns[0].Stage)
}

func TestExtract_UnrecognizedSeverityWarnsAndDefaults(t *testing.T) {
	sbom := &SBOMDocument{
		Packages: []SBOMPackage{{SPDXID: "SPDXRef-a", Name: "a", VersionInfo: "1"}},
		Vulnerabilities: []SBOMVulnerability{
			{Name: "CVE-2024-0010", Severity: "severe", AffectedPackages: []string{"SPDXRef-a"}},
		},
	}

	fs, warns := Extract(SourceDataset{SBOM: sbom})

	require.Len(t, fs.Dependencies, 1)
	assert.Equal(t, SeverityLow, fs.Dependencies[0].Severity)
	require.Len(t, warns, 1)
	assert.Equal(t, WarnUnrecognizedSeverity, warns[0].Code)
}

func TestExtract_EmptyDataset(t *testing.T) {
	fs, warns := Extract(SourceDataset{})
	assert.Zero(t, fs.Total())
	assert.Empty(t, warns)
}
