package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaTemplate_TierLimits(t *testing.T) {
	starter := QuotaTemplate(TierStarter)
	assert.Equal(t, int64(5), starter.MaxProjects)
	assert.Equal(t, int64(1_000), starter.MaxNotificationsPerMonth)
	assert.False(t, starter.CustomBranding)

	pro := QuotaTemplate(TierProfessional)
	assert.Equal(t, int64(15), pro.MaxProjects)
	assert.True(t, pro.CustomBranding)
	assert.False(t, pro.WhiteLabel)

	partner := QuotaTemplate(TierPlatformPartner)
	assert.Equal(t, Unlimited, partner.MaxProjects)
	assert.Equal(t, Unlimited, partner.MaxNotificationsPerMonth)
	assert.True(t, partner.WhiteLabel)
}

func TestQuotaTemplate_UnknownTierFallsBackToStarter(t *testing.T) {
	assert.Equal(t, QuotaTemplate(TierStarter), QuotaTemplate("vip"))
}

func TestResourceQuota_Limit(t *testing.T) {
	q := QuotaTemplate(TierEnterprise)

	limit, ok := q.Limit(ResourceUsers)
	assert.True(t, ok)
	assert.Equal(t, int64(100), limit)

	_, ok = q.Limit("maxSpaceships")
	assert.False(t, ok)
}

func TestUsage_SetAndCurrent(t *testing.T) {
	var u Usage
	u.Set(ResourceNotifications, 42)

	current, ok := u.Current(ResourceNotifications)
	assert.True(t, ok)
	assert.Equal(t, int64(42), current)

	u.Set("maxSpaceships", 7)
	_, ok = u.Current("maxSpaceships")
	assert.False(t, ok)
}

func TestRateLimitForTier(t *testing.T) {
	assert.Equal(t, RateLimitPolicy{RequestsPerSecond: 5, Burst: 10}, RateLimitForTier(TierStarter))
	assert.Equal(t, RateLimitPolicy{RequestsPerSecond: 1000, Burst: 2000}, RateLimitForTier(TierPlatformPartner))
	assert.Equal(t, RateLimitForTier(TierStarter), RateLimitForTier("vip"))
}

func TestTerminalMessageStatus(t *testing.T) {
	assert.True(t, TerminalMessageStatus(MessageStatusFailed))
	assert.True(t, TerminalMessageStatus(MessageStatusBounced))
	assert.True(t, TerminalMessageStatus(MessageStatusSpam))
	assert.True(t, TerminalMessageStatus(MessageStatusUnsubscribed))
	assert.False(t, TerminalMessageStatus(MessageStatusSent))
	assert.False(t, TerminalMessageStatus(MessageStatusConverted))
}
