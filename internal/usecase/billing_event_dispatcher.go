package usecase

import (
	"context"
	"fmt"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/event"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// Dispatch outcomes reported to metrics
const (
	outcomeApplied   = "applied"
	outcomeClamped   = "clamped"
	outcomeDuplicate = "duplicate"
	outcomeIgnored   = "ignored"
	outcomeInvalid   = "invalid"
	outcomeDesync    = "desync"
	outcomeFailed    = "failed"
)

// BillingEventDispatcher applies resource lifecycle events to the usage ledger.
// Every event runs in its own transaction.
type BillingEventDispatcher struct {
	txManager repository.TxManager
	ledger    *UsageLedger
	logger    *zap.Logger
	metrics   MetricsRecorder
}

// NewBillingEventDispatcher creates a new dispatcher
func NewBillingEventDispatcher(
	txManager repository.TxManager,
	ledger *UsageLedger,
	logger *zap.Logger,
	metrics MetricsRecorder,
) *BillingEventDispatcher {
	return &BillingEventDispatcher{
		txManager: txManager,
		ledger:    ledger,
		logger:    logger,
		metrics:   metricsOrNop(metrics),
	}
}

// HandlePayload parses a wire payload for userID and dispatches it.
// Unknown event types are logged and ignored.
func (d *BillingEventDispatcher) HandlePayload(ctx context.Context, payload event.BillingPayload, userID int64) error {
	evt, err := event.ParseBilling(payload, userID)
	if err != nil {
		d.metrics.BillingEventProcessed(payload.Type, outcomeInvalid)
		return err
	}
	if evt == nil {
		d.logger.Info("Ignoring unknown billing event type",
			zap.String("type", payload.Type),
			zap.Int64("user_id", userID))
		d.metrics.BillingEventProcessed("unknown", outcomeIgnored)
		return nil
	}
	return d.Dispatch(ctx, evt)
}

// Dispatch applies evt atomically. A duplicate idempotency key makes it a no-op.
func (d *BillingEventDispatcher) Dispatch(ctx context.Context, evt event.Billing) error {
	meta := evt.Meta()
	outcome := outcomeApplied

	err := d.txManager.WithinTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		if meta.IdempotencyKey != "" {
			fresh, err := uow.Usage().MarkProcessed(ctx, &model.ProcessedBillingEvent{
				IdempotencyKey: meta.IdempotencyKey,
				EventType:      string(evt.Type()),
				UserID:         meta.UserID,
				WorkspaceID:    meta.WorkspaceID,
			})
			if err != nil {
				return err
			}
			if !fresh {
				outcome = outcomeDuplicate
				d.logger.Info("Billing event already processed",
					zap.String("idempotency_key", meta.IdempotencyKey),
					zap.String("type", string(evt.Type())))
				return nil
			}
		}

		var err error
		outcome, err = d.apply(ctx, uow, evt)
		return err
	})
	if err != nil {
		if domainerrors.IsDesync(err) {
			outcome = outcomeDesync
			d.logger.Error("Usage ledger out of sync with resource lifecycle",
				zap.String("type", string(evt.Type())),
				zap.Int64("user_id", meta.UserID),
				zap.Int64("workspace_id", meta.WorkspaceID),
				zap.Error(err))
		} else {
			outcome = outcomeFailed
		}
		d.metrics.BillingEventProcessed(string(evt.Type()), outcome)
		return fmt.Errorf("dispatch %s: %w", evt.Type(), err)
	}

	d.metrics.BillingEventProcessed(string(evt.Type()), outcome)
	d.logger.Debug("Billing event dispatched",
		zap.String("type", string(evt.Type())),
		zap.Int64("user_id", meta.UserID),
		zap.Int64("workspace_id", meta.WorkspaceID),
		zap.String("outcome", outcome))
	return nil
}

func (d *BillingEventDispatcher) apply(ctx context.Context, uow repository.UnitOfWork, evt event.Billing) (string, error) {
	switch e := evt.(type) {
	case event.WorkspaceCreated:
		return d.workspaceCreated(ctx, uow, e)
	case event.WorkspaceDeleted:
		return d.workspaceDeleted(ctx, uow, e)
	case event.DocumentCreated:
		return d.adjustWorkspace(ctx, uow, e.WorkspaceID, model.UsageFieldDocumentCount, 1)
	case event.DocumentDeleted:
		return d.adjustWorkspace(ctx, uow, e.WorkspaceID, model.UsageFieldDocumentCount, -1)
	case event.StorageCreated:
		return d.adjustWorkspace(ctx, uow, e.WorkspaceID, model.UsageFieldStorageSizeCount, e.Size)
	case event.StorageDeleted:
		return d.adjustWorkspace(ctx, uow, e.WorkspaceID, model.UsageFieldStorageSizeCount, -e.Size)
	default:
		return "", fmt.Errorf("unhandled billing event %T", evt)
	}
}

func (d *BillingEventDispatcher) workspaceCreated(ctx context.Context, uow repository.UnitOfWork, e event.WorkspaceCreated) (string, error) {
	created, err := uow.Usage().CreateWorkspaceUsage(ctx, &model.WorkspaceUsage{
		WorkspaceID:   e.WorkspaceID,
		CreatorUserID: e.UserID,
	})
	if err != nil {
		return "", err
	}
	if !created {
		d.logger.Warn("Workspace usage already exists, treating as redelivery",
			zap.Int64("workspace_id", e.WorkspaceID),
			zap.Int64("user_id", e.UserID))
		return outcomeDuplicate, nil
	}

	delta, err := d.ledger.ApplyDelta(ctx, uow, model.UsageScopeUser, e.UserID, model.UsageFieldWorkspaceCount, 1)
	if err != nil {
		return "", err
	}
	return outcomeOf(delta), nil
}

func (d *BillingEventDispatcher) workspaceDeleted(ctx context.Context, uow repository.UnitOfWork, e event.WorkspaceDeleted) (string, error) {
	usage, err := uow.Usage().LockWorkspaceUsage(ctx, e.WorkspaceID)
	if err != nil {
		return "", err
	}
	if usage == nil {
		d.logger.Warn("Workspace usage already deleted, treating as redelivery",
			zap.Int64("workspace_id", e.WorkspaceID),
			zap.Int64("user_id", e.UserID))
		return outcomeDuplicate, nil
	}

	// The workspace counts against whoever created it, not whoever deletes it.
	if usage.CreatorUserID != e.UserID {
		d.logger.Info("Workspace deleted by a user other than its creator",
			zap.Int64("workspace_id", e.WorkspaceID),
			zap.Int64("creator_user_id", usage.CreatorUserID),
			zap.Int64("user_id", e.UserID))
	}

	delta, err := d.ledger.ApplyDelta(ctx, uow, model.UsageScopeUser, usage.CreatorUserID, model.UsageFieldWorkspaceCount, -1)
	if err != nil {
		return "", err
	}
	if _, err := uow.Usage().DeleteWorkspaceUsage(ctx, e.WorkspaceID); err != nil {
		return "", err
	}
	return outcomeOf(delta), nil
}

func (d *BillingEventDispatcher) adjustWorkspace(ctx context.Context, uow repository.UnitOfWork, workspaceID int64, field model.UsageField, amount int64) (string, error) {
	delta, err := d.ledger.ApplyDelta(ctx, uow, model.UsageScopeWorkspace, workspaceID, field, amount)
	if err != nil {
		return "", err
	}
	return outcomeOf(delta), nil
}

func outcomeOf(delta Delta) string {
	if delta.Applied {
		return outcomeApplied
	}
	return outcomeClamped
}
