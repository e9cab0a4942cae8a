package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRemediationPlan_ImmediateFromVulnerabilitiesAndCompliance(t *testing.T) {
	fs := Findings{
		Vulnerabilities: []Finding{
			{ID: "CVE-2024-0001", Package: "openssl", Severity: SeverityCritical},
			{ID: "CVE-2024-0005", Package: "bash", Severity: SeverityMedium},
		},
		Compliance: []Finding{
			{ID: "5.1.1", Severity: SeverityHigh, Remediation: "enable RBAC"},
		},
	}

	plan := BuildRemediationPlan(fs)

	require.Len(t, plan.Immediate, 2)

	vuln := plan.Immediate[0]
	assert.Equal(t, "Update openssl to fix CVE-2024-0001", vuln.Description)
	assert.Equal(t, PriorityCritical, vuln.Priority)
	assert.Equal(t, "2-4 hours", vuln.Effort)
	assert.Equal(t, "DevSecOps Team", vuln.Owner)
	assert.Equal(t, BucketImmediate, vuln.Bucket)
	assert.Equal(t, OriginFinding, vuln.Origin)
	assert.Equal(t, "CVE-2024-0001", vuln.FindingID)

	comp := plan.Immediate[1]
	assert.Equal(t, "enable RBAC", comp.Description)
	assert.Equal(t, PriorityHigh, comp.Priority)
	assert.Equal(t, "Platform Team", comp.Owner)
}

func TestBuildRemediationPlan_MisconfigurationsGoShortTerm(t *testing.T) {
	fs := Findings{
		Misconfigurations: []Finding{
			{ID: "allow-all.yaml", Severity: SeverityHigh, Remediation: "Restrict network policies to specific namespaces/services"},
		},
	}

	plan := BuildRemediationPlan(fs)

	assert.Empty(t, plan.Immediate)
	require.Len(t, plan.ShortTerm, 1)
	st := plan.ShortTerm[0]
	assert.Equal(t, PriorityMedium, st.Priority)
	assert.Equal(t, "4-8 hours", st.Effort)
	assert.Equal(t, "Development Team", st.Owner)
	assert.Equal(t, BucketShortTerm, st.Bucket)
	assert.Equal(t, "allow-all.yaml", st.FindingID)
}

func TestBuildRemediationPlan_StandingItemsAlwaysPresent(t *testing.T) {
	plan := BuildRemediationPlan(Findings{})

	assert.Empty(t, plan.Immediate)
	assert.Empty(t, plan.ShortTerm)

	require.Len(t, plan.LongTerm, 3)
	for _, a := range plan.LongTerm {
		assert.Equal(t, BucketLongTerm, a.Bucket)
		assert.Equal(t, OriginTemplate, a.Origin)
		assert.Empty(t, a.FindingID)
	}

	assert.Len(t, plan.Monitoring, 5)
	assert.Contains(t, plan.Monitoring, "Implement continuous vulnerability scanning")
}
