package usecase

import (
	"context"
	"fmt"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	apperrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
	"go.uber.org/zap"
)

// CheckoutService opens provider hosted checkout and billing portal pages
type CheckoutService struct {
	provider  provider.BillingProvider
	txManager repository.TxManager
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(billingProvider provider.BillingProvider, txManager repository.TxManager, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		provider:  billingProvider,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateCheckoutSession starts checkout of offerID at priceID for userID.
// The price must be the one the offer is sold at. An unknown offer is a
// validation error wrapping ErrOfferNotFound.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, userID, offerID int64, priceID string) (*provider.Session, error) {
	offer, err := s.txManager.Reader().Offers().GetByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidArgument,
			fmt.Sprintf("offer %d does not exist", offerID), domainerrors.ErrOfferNotFound)
	}
	if offer.ProviderPriceID != "" && offer.ProviderPriceID != priceID {
		return nil, domainerrors.NewValidationError(fmt.Sprintf("price %s is not the price of offer %d", priceID, offerID))
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, &provider.CheckoutSessionRequest{
		UserID:  userID,
		OfferID: offerID,
		PriceID: priceID,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info("Checkout session created",
		zap.Int64("user_id", userID),
		zap.Int64("offer_id", offerID),
		zap.String("session_id", sess.ID))
	return sess, nil
}

// CreatePortalSession opens the billing portal for the user's provider customer.
// Users without a subscription get ErrSubscriptionNotFound.
func (s *CheckoutService) CreatePortalSession(ctx context.Context, userID int64) (*provider.Session, error) {
	sub, err := s.txManager.Reader().Subscriptions().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		return nil, domainerrors.ErrSubscriptionNotFound
	}

	sess, err := s.provider.CreatePortalSession(ctx, sub.ProviderCustomerID)
	if err != nil {
		return nil, fmt.Errorf("create portal session: %w", err)
	}
	return sess, nil
}
