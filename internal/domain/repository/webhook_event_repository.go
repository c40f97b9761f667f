package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
)

// WebhookEventRepository journals provider deliveries
type WebhookEventRepository interface {
	// Record stores the event unless one with the same provider id exists and reports whether it was new
	Record(ctx context.Context, event *model.StripeWebhookEvent) (bool, error)
	GetByEventID(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error)
	MarkCompleted(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string, cause error) error
}
