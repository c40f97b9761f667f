package usecase

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// WorkspaceUsageAndLimits pairs a workspace's counters with the offer of its creator's subscription
type WorkspaceUsageAndLimits struct {
	Usage              model.WorkspaceUsage
	Offer              model.Offer
	SubscriptionStatus model.SubscriptionStatus
}

// UserUsageAndLimits pairs a user's counters with the offer of their subscription
type UserUsageAndLimits struct {
	Usage              model.UserUsage
	Offer              model.Offer
	SubscriptionStatus model.SubscriptionStatus
}

// UsageQueryService reports usage alongside offer limits. Whether a caller
// is over a limit is left to the caller.
type UsageQueryService struct {
	txManager repository.TxManager
	ledger    *UsageLedger
	logger    *zap.Logger
}

// NewUsageQueryService creates a new usage query service
func NewUsageQueryService(txManager repository.TxManager, ledger *UsageLedger, logger *zap.Logger) *UsageQueryService {
	return &UsageQueryService{
		txManager: txManager,
		ledger:    ledger,
		logger:    logger,
	}
}

// GetWorkspaceUsageAndLimits returns nil when the workspace has no usage row,
// its creator has no subscription, or the subscription has no offer.
func (s *UsageQueryService) GetWorkspaceUsageAndLimits(ctx context.Context, workspaceID int64) (*WorkspaceUsageAndLimits, error) {
	reader := s.txManager.Reader()

	usage, err := reader.Usage().GetWorkspaceUsage(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace usage: %w", err)
	}
	if usage == nil {
		return nil, nil
	}

	sub, err := s.subscriptionWithOffer(ctx, reader, usage.CreatorUserID)
	if err != nil || sub == nil {
		return nil, err
	}

	return &WorkspaceUsageAndLimits{
		Usage:              *usage,
		Offer:              *sub.Offer,
		SubscriptionStatus: sub.Status,
	}, nil
}

// GetUserUsageAndLimits creates the user's usage row if needed, then joins it
// with the user's subscription offer. It returns nil when there is no offer.
func (s *UsageQueryService) GetUserUsageAndLimits(ctx context.Context, userID int64) (*UserUsageAndLimits, error) {
	var usage *model.UserUsage
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		usage, err = s.ledger.GetOrCreateUserUsage(ctx, uow, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	sub, err := s.subscriptionWithOffer(ctx, s.txManager.Reader(), userID)
	if err != nil || sub == nil {
		return nil, err
	}

	return &UserUsageAndLimits{
		Usage:              *usage,
		Offer:              *sub.Offer,
		SubscriptionStatus: sub.Status,
	}, nil
}

func (s *UsageQueryService) subscriptionWithOffer(ctx context.Context, uow repository.UnitOfWork, userID int64) (*model.Subscription, error) {
	sub, err := uow.Subscriptions().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil || sub.Offer == nil {
		s.logger.Debug("No offer resolves for user", zap.Int64("user_id", userID))
		return nil, nil
	}
	return sub, nil
}
