package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook journal repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) repository.WebhookEventRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

// Record saves a webhook event; redeliveries keep the original row
func (r *webhookRepository) Record(ctx context.Context, event *model.StripeWebhookEvent) (bool, error) {
	if event.Status == "" {
		event.Status = model.WebhookStatusPending
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", event.StripeEventID),
			zap.String("event_type", event.EventType),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to save webhook event: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetByEventID retrieves a webhook event by provider event ID
func (r *webhookRepository) GetByEventID(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error) {
	var event model.StripeWebhookEvent

	err := r.db.WithContext(ctx).
		Where("stripe_event_id = ?", eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &event, nil
}

// MarkCompleted marks a webhook event as processed
func (r *webhookRepository) MarkCompleted(ctx context.Context, eventID string) error {
	now := time.Now()

	return r.mark(ctx, eventID, map[string]interface{}{
		"status":              model.WebhookStatusCompleted,
		"processing_attempts": gorm.Expr("processing_attempts + 1"),
		"processed_at":        &now,
		"last_error":          nil,
	})
}

// MarkFailed marks a webhook event as failed and keeps the error message
func (r *webhookRepository) MarkFailed(ctx context.Context, eventID string, cause error) error {
	errorMsg := cause.Error()

	return r.mark(ctx, eventID, map[string]interface{}{
		"status":              model.WebhookStatusFailed,
		"processing_attempts": gorm.Expr("processing_attempts + 1"),
		"last_error":          &errorMsg,
	})
}

func (r *webhookRepository) mark(ctx context.Context, eventID string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.StripeWebhookEvent{}).
		Where("stripe_event_id = ?", eventID).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to update webhook event",
			zap.String("event_id", eventID),
			zap.Any("status", updates["status"]),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update webhook event: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}

	return nil
}
