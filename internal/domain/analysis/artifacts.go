package analysis

// Raw artifact records as parsed from disk. Field names follow the wire
// formats of the producing tools; extraction normalizes them into Finding.

// BenchmarkReport is a CIS-style compliance benchmark result.
type BenchmarkReport struct {
	Report struct {
		FailedChecks []FailedCheck `json:"failed_checks_details"`
	} `json:"report"`
}

// FailedCheck is one failed control; severity arrives lowercase.
type FailedCheck struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Remediation string `json:"remediation"`
}

// VulnerabilityReport is a container scan result; severities arrive uppercase.
type VulnerabilityReport struct {
	Report struct {
		Findings          []VulnerabilityRecord  `json:"findings"`
		Misconfigurations []MisconfigurationItem `json:"misconfigurations"`
	} `json:"report"`
}

type VulnerabilityRecord struct {
	VulnerabilityID string  `json:"vulnerability_id"`
	PackageName     string  `json:"package_name"`
	Severity        string  `json:"severity"`
	CVSSScore       float64 `json:"cvss_score"`
	Description     string  `json:"description"`
}

type MisconfigurationItem struct {
	Title      string `json:"title"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Resolution string `json:"resolution"`
}

// SBOMDocument is an SPDX-style software bill of materials with a
// vulnerability cross-reference list.
type SBOMDocument struct {
	Packages        []SBOMPackage       `json:"packages"`
	Vulnerabilities []SBOMVulnerability `json:"vulnerabilities"`
}

type SBOMPackage struct {
	SPDXID      string `json:"SPDXID"`
	Name        string `json:"name"`
	VersionInfo string `json:"versionInfo"`
	License     string `json:"licenseConcluded"`
}

type SBOMVulnerability struct {
	Name             string   `json:"name"`
	Severity         string   `json:"severity"`
	AffectedPackages []string `json:"affectedPackages"`
}

// Document is a plain text artifact (network policy or log excerpt) carried
// with its filename for provenance.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// SourceDataset is the type-keyed output of the loader. A nil report means
// the artifact was absent or skipped; document slices may be empty.
type SourceDataset struct {
	Benchmark       *BenchmarkReport
	Vulnerabilities *VulnerabilityReport
	SBOM            *SBOMDocument
	Policies        []Document
	Logs            []Document
}
