package provider

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/semo-billing/internal/domain/event"
)

// BillingProvider is the external payment provider the service keeps subscriptions in sync with
type BillingProvider interface {
	// CreateCheckoutSession starts a subscription checkout for a user
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*Session, error)

	// CreatePortalSession opens the self-service billing portal for a customer
	CreatePortalSession(ctx context.Context, customerID string) (*Session, error)

	// GetPrice looks up a price in the provider's catalog
	GetPrice(ctx context.Context, priceID string) (*Price, error)

	WebhookVerifier

	// GetProviderName returns the provider name
	GetProviderName() string
}

// WebhookVerifier authenticates provider deliveries and decodes them into domain events
type WebhookVerifier interface {
	// VerifyWebhook checks the signature header against the raw payload
	VerifyWebhook(payload []byte, signature string) (*event.ProviderEvent, error)

	// TranslateWebhook decodes a verified delivery. Unhandled types yield a nil event.
	TranslateWebhook(delivery *event.ProviderEvent) (event.Webhook, error)
}

// CheckoutSessionRequest carries what the provider needs to attribute the
// resulting subscription back to the user and offer
type CheckoutSessionRequest struct {
	UserID  int64
	OfferID int64
	PriceID string
}

// Session is a provider hosted page the client is redirected to
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Price is the subset of a provider price the catalog sync checks
type Price struct {
	ID        string
	Active    bool
	Currency  string
	Amount    decimal.Decimal
	Recurring bool
}

// ProviderType represents the type of payment provider
type ProviderType string

const (
	ProviderTypeStripe ProviderType = "stripe"
)

// Error types for provider operations
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
