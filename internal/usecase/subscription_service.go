package usecase

import (
	"context"
	"fmt"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// SubscriptionService serves the read side of the offer catalog and subscription registry
type SubscriptionService struct {
	txManager repository.TxManager
	logger    *zap.Logger
}

// NewSubscriptionService creates a new subscription service instance
func NewSubscriptionService(txManager repository.TxManager, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		txManager: txManager,
		logger:    logger,
	}
}

// ListOffers returns the offer catalog
func (s *SubscriptionService) ListOffers(ctx context.Context) ([]model.Offer, error) {
	offers, err := s.txManager.Reader().Offers().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return offers, nil
}

// GetSubscription returns the user's subscription or ErrSubscriptionNotFound
func (s *SubscriptionService) GetSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	sub, err := s.txManager.Reader().Subscriptions().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		return nil, domainerrors.ErrSubscriptionNotFound
	}
	return sub, nil
}
