package stripe

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"go.uber.org/zap"
)

// StripeProvider implements the BillingProvider interface for Stripe
type StripeProvider struct {
	api             *client.API
	webhookSecret   string
	successURL      string
	cancelURL       string
	portalReturnURL string
	logger          *zap.Logger
}

// NewStripeProvider creates a new Stripe provider. backends may be nil to use the live API.
func NewStripeProvider(cfg config.StripeConfig, backends *stripe.Backends, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		api:             client.New(cfg.APIKey, backends),
		webhookSecret:   cfg.WebhookSecret,
		successURL:      cfg.CheckoutSuccessURL,
		cancelURL:       cfg.CheckoutCancelURL,
		portalReturnURL: cfg.PortalReturnURL,
		logger:          logger,
	}
}

// GetProviderName returns the provider name
func (s *StripeProvider) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}

// CreateCheckoutSession creates a subscription checkout for a single price.
// The session metadata is read back when checkout.session.completed arrives.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (*provider.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(req.UserID, 10)),
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, strconv.FormatInt(req.UserID, 10))
	params.AddMetadata(metadataOfferID, strconv.FormatInt(req.OfferID, 10))

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.Int64("user_id", req.UserID),
			zap.String("price_id", req.PriceID),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "CHECKOUT_FAILED",
			Message: "failed to create checkout session",
			Details: err.Error(),
		}
	}

	return &provider.Session{ID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalSession creates a billing portal session for an existing customer
func (s *StripeProvider) CreatePortalSession(ctx context.Context, customerID string) (*provider.Session, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.portalReturnURL),
	}
	params.Context = ctx

	sess, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		s.logger.Error("Failed to create portal session",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "PORTAL_FAILED",
			Message: "failed to create portal session",
			Details: err.Error(),
		}
	}

	return &provider.Session{ID: sess.ID, URL: sess.URL}, nil
}

// GetPrice retrieves a price from the Stripe catalog
func (s *StripeProvider) GetPrice(ctx context.Context, priceID string) (*provider.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx

	p, err := s.api.Prices.Get(priceID, params)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "PRICE_LOOKUP_FAILED",
			Message: "failed to get price " + priceID,
			Details: err.Error(),
		}
	}

	// UnitAmountDecimal is expressed in the currency's minor unit
	amount := decimal.NewFromFloat(p.UnitAmountDecimal).Shift(-2)
	return &provider.Price{
		ID:        p.ID,
		Active:    p.Active,
		Currency:  string(p.Currency),
		Amount:    amount,
		Recurring: p.Recurring != nil,
	}, nil
}
