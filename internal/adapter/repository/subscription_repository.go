package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// GetByUserID retrieves the user's subscription with its offer and items
func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Preload("Offer").
		Preload("Offer.Items", orderedItems).
		Where("user_id = ?", userID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by user ID",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// LockByUserID locks the user's subscription row
func (r *subscriptionRepository) LockByUserID(ctx context.Context, userID int64) (*model.Subscription, error) {
	return r.lock(ctx, "user_id = ?", userID)
}

// LockByProviderSubscriptionID locks the row linked to a provider subscription
func (r *subscriptionRepository) LockByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error) {
	return r.lock(ctx, "provider_subscription_id = ?", providerSubscriptionID)
}

// LockByProviderCustomerID locks the row linked to a provider customer
func (r *subscriptionRepository) LockByProviderCustomerID(ctx context.Context, providerCustomerID string) (*model.Subscription, error) {
	return r.lock(ctx, "provider_customer_id = ?", providerCustomerID)
}

func (r *subscriptionRepository) lock(ctx context.Context, query string, arg interface{}) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, arg).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock subscription: %w", err)
	}

	return &sub, nil
}

// Create inserts a new subscription
func (r *subscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	if err := r.db.WithContext(ctx).Omit("Offer").Create(subscription).Error; err != nil {
		r.logger.Error("Failed to create subscription",
			zap.Int64("user_id", subscription.UserID),
			zap.String("provider_subscription_id", subscription.ProviderSubscriptionID),
			zap.Error(err))
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts the subscription with ON CONFLICT DO NOTHING over all
// unique columns. A concurrent insert of the same row waits and then skips.
func (r *subscriptionRepository) CreateIfAbsent(ctx context.Context, subscription *model.Subscription) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit("Offer").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(subscription)
	if result.Error != nil {
		r.logger.Error("Failed to create subscription",
			zap.Int64("user_id", subscription.UserID),
			zap.String("provider_subscription_id", subscription.ProviderSubscriptionID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to create subscription: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// Save writes the mutable columns of an existing subscription
func (r *subscriptionRepository) Save(ctx context.Context, subscription *model.Subscription) error {
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", subscription.ID).
		Updates(map[string]interface{}{
			"offer_id":                 subscription.OfferID,
			"provider_subscription_id": subscription.ProviderSubscriptionID,
			"provider_customer_id":     subscription.ProviderCustomerID,
			"status":                   subscription.Status,
		}).Error
	if err != nil {
		r.logger.Error("Failed to update subscription",
			zap.Int64("subscription_id", subscription.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}
