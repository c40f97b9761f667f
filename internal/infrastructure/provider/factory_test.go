package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"go.uber.org/zap"
)

func TestFactory_GetProvider(t *testing.T) {
	cfg := &config.Config{Stripe: config.StripeConfig{APIKey: "sk_test", WebhookSecret: "whsec_test"}}
	factory := NewFactory(cfg, zap.NewNop())

	p, err := factory.GetProvider(provider.ProviderTypeStripe)
	require.NoError(t, err)
	assert.Equal(t, "stripe", p.GetProviderName())

	_, err = factory.GetProvider("unknown")
	assert.Error(t, err)
}

func TestFactory_RequiresWebhookSecret(t *testing.T) {
	factory := NewFactory(&config.Config{}, zap.NewNop())

	_, err := factory.GetProvider(provider.ProviderTypeStripe)
	assert.Error(t, err)
}
