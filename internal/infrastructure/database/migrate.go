package database

import (
	"fmt"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...", zap.String("driver", db.Dialector.Name()))

	// Auto-migrate all models
	err := db.AutoMigrate(
		&model.Offer{},
		&model.OfferItem{},
		&model.Subscription{},
		&model.UserUsage{},
		&model.WorkspaceUsage{},
		&model.ProcessedBillingEvent{},
		&model.StripeWebhookEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := createConstraints(db); err != nil {
			logger.Error("Failed to create constraints", zap.Error(err))
			return err
		}
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createConstraints adds the non-negativity checks GORM tags cannot express
func createConstraints(db *gorm.DB) error {
	checks := []struct {
		table, name, expr string
	}{
		{"user_usages", "chk_user_usages_workspace_count", "workspace_count >= 0"},
		{"workspace_usages", "chk_workspace_usages_document_count", "document_count >= 0"},
		{"workspace_usages", "chk_workspace_usages_storage_size_count", "storage_size_count >= 0"},
		{"offer_items", "chk_offer_items_resource_limit", "resource_limit >= 0"},
	}

	for _, c := range checks {
		stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
		ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
	END IF;
END $$;`, c.name, c.table, c.name, c.expr)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create constraint %s: %w", c.name, err)
		}
	}

	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed ON stripe_webhook_events (created_at) WHERE status IN ('pending', 'failed')`).Error; err != nil {
		return fmt.Errorf("failed to create webhook index: %w", err)
	}

	return nil
}
