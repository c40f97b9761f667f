package provider

import (
	"fmt"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	stripeProvider "github.com/wekeepgrowing/semo-billing/internal/infrastructure/provider/stripe"
	"go.uber.org/zap"
)

// Factory creates billing providers based on the provider type
type Factory struct {
	config *config.Config
	logger *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// GetProvider returns a billing provider based on the provider type
func (f *Factory) GetProvider(providerType provider.ProviderType) (provider.BillingProvider, error) {
	switch providerType {
	case provider.ProviderTypeStripe, "":
		return f.createStripeProvider()
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// createStripeProvider creates a new Stripe provider instance
func (f *Factory) createStripeProvider() (provider.BillingProvider, error) {
	cfg := f.config.Stripe
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("Stripe webhook secret not configured")
	}
	if cfg.APIKey == "" {
		f.logger.Warn("Stripe API key not configured; checkout, portal and price lookups will fail")
	}

	return stripeProvider.NewStripeProvider(cfg, nil, f.logger.Named("stripe")), nil
}
