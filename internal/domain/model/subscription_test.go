package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromProvider(t *testing.T) {
	assert.Equal(t, SubscriptionStatusActive, StatusFromProvider("active"))
	for _, status := range []string{"past_due", "canceled", "unpaid", "trialing", ""} {
		assert.Equal(t, SubscriptionStatusInactive, StatusFromProvider(status), status)
	}
}

func TestSubscription_IsActive(t *testing.T) {
	assert.True(t, (&Subscription{Status: SubscriptionStatusActive}).IsActive())
	assert.False(t, (&Subscription{Status: SubscriptionStatusInactive}).IsActive())
}

func TestResource_IsValid(t *testing.T) {
	for _, r := range []Resource{ResourceWorkspace, ResourceDocument, ResourceFile} {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, Resource("seat").IsValid())
}
