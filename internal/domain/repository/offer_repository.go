package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
)

type OfferRepository interface {
	// List returns all offers with their items ordered by id
	List(ctx context.Context) ([]model.Offer, error)
	GetByID(ctx context.Context, id int64) (*model.Offer, error)
	GetByName(ctx context.Context, name string) (*model.Offer, error)
	// UpsertByName creates or updates the offer with the same name and replaces its items
	UpsertByName(ctx context.Context, offer *model.Offer) error
}
