package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldAlert_CriticalCVEKeywords(t *testing.T) {
	assert.True(t, ShouldAlert("Two CRITICAL vulnerabilities found in openssl.", "critical_cve"))
	assert.True(t, ShouldAlert("a HIGH severity issue with exploit available", "critical_cve"))
	assert.False(t, ShouldAlert("only medium findings this run", "critical_cve"))
}

func TestShouldAlert_MatchingIsCaseInsensitive(t *testing.T) {
	assert.True(t, ShouldAlert("critical path blocked", "critical_cve"))
	assert.True(t, ShouldAlert("Unexpected drop rule hit", "high_drop_rate"))
}

func TestShouldAlert_SecurityRiskKeywords(t *testing.T) {
	assert.True(t, ShouldAlert("The policy is overly permissive and should be tightened.", "security_risk"))
	assert.False(t, ShouldAlert("policy scoped to one namespace", "security_risk"))
}

func TestShouldAlert_UnknownThresholdNeverAlerts(t *testing.T) {
	assert.False(t, ShouldAlert("CRITICAL everything is on fire", "no_such_threshold"))
	assert.False(t, ShouldAlert("CRITICAL", ""))
}
