package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/automaton-rca/internal/config"
)

func TestRegister_SkipsInvalidEntries(t *testing.T) {
	s := New(nil, nil)

	s.Register([]config.Schedule{
		{Name: "no-cron", Target: "payment-gateway"},
		{Name: "no-target", Cron: "0 0 3 * * *"},
		{Name: "bad-expr", Cron: "not a cron", Target: "payment-gateway"},
		{Name: "nightly", Cron: "0 0 3 * * *", Target: "payment-gateway"},
	})

	assert.Len(t, s.cron.Entries(), 1)
}

func TestTenantOf_DefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, "default", tenantOf(config.Schedule{}))
	assert.Equal(t, "acme", tenantOf(config.Schedule{Tenant: "acme"}))
}

func TestChannelSelected(t *testing.T) {
	assert.True(t, channelSelected(nil, "slack_webhook"))
	assert.True(t, channelSelected([]string{"slack_webhook", "gitlab_issue"}, "gitlab_issue"))
	assert.False(t, channelSelected([]string{"slack_webhook"}, "gitlab_issue"))
}
