package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
)

// SubscriptionRepository returns nil without an error when no row matches.
// The Lock methods take a row lock held until the surrounding transaction ends.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Subscription, error)
	LockByUserID(ctx context.Context, userID int64) (*model.Subscription, error)
	LockByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error)
	LockByProviderCustomerID(ctx context.Context, providerCustomerID string) (*model.Subscription, error)
	Create(ctx context.Context, subscription *model.Subscription) error
	// CreateIfAbsent inserts the row unless one with the same user or provider
	// ids exists, reporting whether it was inserted.
	CreateIfAbsent(ctx context.Context, subscription *model.Subscription) (bool, error)
	Save(ctx context.Context, subscription *model.Subscription) error
}
