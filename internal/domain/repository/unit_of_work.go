package repository

import "context"

// UnitOfWork exposes repositories bound to one transaction.
type UnitOfWork interface {
	Offers() OfferRepository
	Subscriptions() SubscriptionRepository
	Usage() UsageRepository
	WebhookEvents() WebhookEventRepository
}

// TxManager scopes a unit of work to a single transaction. The transaction is
// committed when fn returns nil and rolled back when it returns an error or panics.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error

	// Reader returns repositories that run outside any transaction
	Reader() UnitOfWork
}
