package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

// OfferCatalog is the file form of the offer catalog
type OfferCatalog struct {
	Offers []OfferDefinition `yaml:"offers" validate:"required,min=1,dive"`
}

// OfferDefinition describes one offer. Price is a decimal string.
type OfferDefinition struct {
	Name            string                `yaml:"name" validate:"required,max=255"`
	Price           string                `yaml:"price" validate:"required,numeric"`
	ProviderPriceID string                `yaml:"provider_price_id" validate:"max=255"`
	Default         bool                  `yaml:"default"`
	Items           []OfferItemDefinition `yaml:"items" validate:"dive"`
}

type OfferItemDefinition struct {
	Resource    string `yaml:"resource" validate:"required"`
	Limit       int64  `yaml:"limit" validate:"gte=0"`
	Description string `yaml:"description" validate:"max=255"`
}

// LoadOfferCatalog decodes and validates a YAML catalog
func LoadOfferCatalog(r io.Reader) (*OfferCatalog, error) {
	var catalog OfferCatalog

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode offer catalog: %w", err)
	}

	if err := validator.New().Struct(&catalog); err != nil {
		return nil, fmt.Errorf("invalid offer catalog: %w", err)
	}

	names := make(map[string]bool, len(catalog.Offers))
	defaults := 0
	for _, def := range catalog.Offers {
		if names[def.Name] {
			return nil, fmt.Errorf("invalid offer catalog: duplicate offer %q", def.Name)
		}
		names[def.Name] = true

		if def.Default {
			defaults++
		}

		resources := make(map[string]bool, len(def.Items))
		for _, item := range def.Items {
			if !model.Resource(item.Resource).IsValid() {
				return nil, fmt.Errorf("invalid offer catalog: offer %q limits unknown resource %q", def.Name, item.Resource)
			}
			if resources[item.Resource] {
				return nil, fmt.Errorf("invalid offer catalog: offer %q limits %s twice", def.Name, item.Resource)
			}
			resources[item.Resource] = true
		}

		if price, err := decimal.NewFromString(def.Price); err != nil || price.IsNegative() {
			return nil, fmt.Errorf("invalid offer catalog: offer %q has invalid price %q", def.Name, def.Price)
		}
	}
	if defaults > 1 {
		return nil, fmt.Errorf("invalid offer catalog: %d offers marked default", defaults)
	}

	return &catalog, nil
}

// toModel converts a validated definition
func (d OfferDefinition) toModel() model.Offer {
	items := make(model.OfferItems, 0, len(d.Items))
	for _, item := range d.Items {
		oi := model.OfferItem{
			Resource: model.Resource(item.Resource),
			Limit:    item.Limit,
		}
		if item.Description != "" {
			description := item.Description
			oi.Description = &description
		}
		items = append(items, oi)
	}

	return model.Offer{
		Name:            d.Name,
		Price:           decimal.RequireFromString(d.Price),
		ProviderPriceID: d.ProviderPriceID,
		IsDefault:       d.Default,
		Items:           items,
	}
}

// OfferSyncService writes the offer catalog into the database
type OfferSyncService struct {
	txManager repository.TxManager
	provider  provider.BillingProvider
	logger    *zap.Logger
}

// NewOfferSyncService creates a new offer sync service. billingProvider may be
// nil, in which case prices are not checked against the provider.
func NewOfferSyncService(txManager repository.TxManager, billingProvider provider.BillingProvider, logger *zap.Logger) *OfferSyncService {
	return &OfferSyncService{
		txManager: txManager,
		provider:  billingProvider,
		logger:    logger,
	}
}

// Sync upserts every offer of the catalog by name in a single transaction.
// Offers missing from the catalog are left untouched since subscriptions may reference them.
func (s *OfferSyncService) Sync(ctx context.Context, catalog *OfferCatalog) (int, error) {
	if s.provider != nil {
		for _, def := range catalog.Offers {
			if err := s.verifyPrice(ctx, def); err != nil {
				return 0, err
			}
		}
	}

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		for _, def := range catalog.Offers {
			offer := def.toModel()
			if err := uow.Offers().UpsertByName(ctx, &offer); err != nil {
				return fmt.Errorf("upsert offer %q: %w", def.Name, err)
			}
			s.logger.Info("Offer synced",
				zap.Int64("offer_id", offer.ID),
				zap.String("name", offer.Name),
				zap.String("price", offer.Price.StringFixed(2)),
				zap.Int("items", len(offer.Items)))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(catalog.Offers), nil
}

func (s *OfferSyncService) verifyPrice(ctx context.Context, def OfferDefinition) error {
	if def.ProviderPriceID == "" {
		return nil
	}

	price, err := s.provider.GetPrice(ctx, def.ProviderPriceID)
	if err != nil {
		return fmt.Errorf("offer %q: %w", def.Name, err)
	}
	if !price.Active {
		return fmt.Errorf("offer %q: price %s is not active", def.Name, price.ID)
	}
	if !price.Recurring {
		return fmt.Errorf("offer %q: price %s is not recurring", def.Name, price.ID)
	}

	want := decimal.RequireFromString(def.Price)
	if !price.Amount.Equal(want) {
		s.logger.Warn("Offer price differs from provider price",
			zap.String("name", def.Name),
			zap.String("price_id", price.ID),
			zap.String("catalog", want.StringFixed(2)),
			zap.String("provider", price.Amount.StringFixed(2)))
	}
	return nil
}
