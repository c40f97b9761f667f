package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type offerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *gorm.DB, logger *zap.Logger) repository.OfferRepository {
	return &offerRepository{
		db:     db,
		logger: logger,
	}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("offer_items.id ASC")
}

// List retrieves all offers with their items
func (r *offerRepository) List(ctx context.Context) ([]model.Offer, error) {
	var offers []model.Offer

	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Order("id ASC").
		Find(&offers).Error
	if err != nil {
		r.logger.Error("Failed to list offers", zap.Error(err))
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	return offers, nil
}

// GetByID retrieves an offer by its primary key
func (r *offerRepository) GetByID(ctx context.Context, id int64) (*model.Offer, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByName retrieves an offer by its unique name
func (r *offerRepository) GetByName(ctx context.Context, name string) (*model.Offer, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *offerRepository) first(ctx context.Context, query string, arg interface{}) (*model.Offer, error) {
	var offer model.Offer

	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where(query, arg).
		First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	return &offer, nil
}

// UpsertByName creates the offer or overwrites the one with the same name.
// Existing items are replaced, so callers should run it inside a transaction.
func (r *offerRepository) UpsertByName(ctx context.Context, offer *model.Offer) error {
	db := r.db.WithContext(ctx)

	existing, err := r.GetByName(ctx, offer.Name)
	if err != nil {
		return err
	}

	if existing == nil {
		for i := range offer.Items {
			offer.Items[i].ID = 0
		}
		if err := db.Create(offer).Error; err != nil {
			r.logger.Error("Failed to create offer",
				zap.String("name", offer.Name),
				zap.Error(err))
			return fmt.Errorf("failed to create offer: %w", err)
		}
		return nil
	}

	offer.ID = existing.ID
	offer.CreatedAt = existing.CreatedAt
	err = db.Model(&model.Offer{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"price":             offer.Price,
			"provider_price_id": offer.ProviderPriceID,
			"is_default":        offer.IsDefault,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}

	if err := db.Where("offer_id = ?", existing.ID).Delete(&model.OfferItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete offer items: %w", err)
	}

	if len(offer.Items) == 0 {
		return nil
	}
	for i := range offer.Items {
		offer.Items[i].ID = 0
		offer.Items[i].OfferID = existing.ID
	}
	if err := db.Create(&offer.Items).Error; err != nil {
		return fmt.Errorf("failed to create offer items: %w", err)
	}

	return nil
}
