package database

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds repository instances bound to one *gorm.DB, either the
// pool or an open transaction.
type Repositories struct {
	offers        domainRepo.OfferRepository
	subscriptions domainRepo.SubscriptionRepository
	usage         domainRepo.UsageRepository
	webhookEvents domainRepo.WebhookEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		offers:        repository.NewOfferRepository(db, logger),
		subscriptions: repository.NewSubscriptionRepository(db, logger),
		usage:         repository.NewUsageRepository(db, logger),
		webhookEvents: repository.NewWebhookRepository(db, logger),
	}
}

func (r *Repositories) Offers() domainRepo.OfferRepository               { return r.offers }
func (r *Repositories) Subscriptions() domainRepo.SubscriptionRepository { return r.subscriptions }
func (r *Repositories) Usage() domainRepo.UsageRepository                { return r.usage }
func (r *Repositories) WebhookEvents() domainRepo.WebhookEventRepository { return r.webhookEvents }

// TxManager runs units of work in GORM transactions
type TxManager struct {
	db     *gorm.DB
	logger *zap.Logger
	reader *Repositories
}

// NewTxManager creates a transaction manager over db
func NewTxManager(db *gorm.DB, logger *zap.Logger) *TxManager {
	return &TxManager{
		db:     db,
		logger: logger,
		reader: NewRepositories(db, logger),
	}
}

// WithinTransaction commits when fn returns nil and rolls back on error or panic
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, uow domainRepo.UnitOfWork) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx, m.logger))
	})
}

// Reader returns repositories bound to the connection pool
func (m *TxManager) Reader() domainRepo.UnitOfWork {
	return m.reader
}
