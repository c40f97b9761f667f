package usecase

import (
	"context"
	"fmt"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// Delta is the outcome of a counter mutation. Applied is false when the
// mutation was skipped because the counter would have gone below zero.
type Delta struct {
	Value   int64
	Applied bool
}

// UsageLedger mutates usage counters inside a caller supplied unit of work
type UsageLedger struct {
	logger  *zap.Logger
	metrics MetricsRecorder
}

// NewUsageLedger creates a new usage ledger
func NewUsageLedger(logger *zap.Logger, metrics MetricsRecorder) *UsageLedger {
	return &UsageLedger{
		logger:  logger,
		metrics: metricsOrNop(metrics),
	}
}

// GetOrCreateUserUsage returns the user's usage row, creating it atomically if missing
func (l *UsageLedger) GetOrCreateUserUsage(ctx context.Context, uow repository.UnitOfWork, userID int64) (*model.UserUsage, error) {
	usage, err := uow.Usage().GetOrCreateUserUsage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create user usage: %w", err)
	}
	return usage, nil
}

// ApplyDelta adds delta to field of the row identified by scope and key.
// The row is locked for the rest of the transaction. A result below zero
// leaves the counter unchanged and is reported with Applied=false.
func (l *UsageLedger) ApplyDelta(
	ctx context.Context,
	uow repository.UnitOfWork,
	scope model.UsageScope,
	key int64,
	field model.UsageField,
	delta int64,
) (Delta, error) {
	if owner, ok := field.Scope(); !ok || owner != scope {
		return Delta{}, fmt.Errorf("usage field %q does not belong to %s scope", field, scope)
	}

	var id, current int64
	switch scope {
	case model.UsageScopeUser:
		if _, err := l.GetOrCreateUserUsage(ctx, uow, key); err != nil {
			return Delta{}, err
		}
		usage, err := uow.Usage().LockUserUsage(ctx, key)
		if err != nil {
			return Delta{}, err
		}
		if usage == nil {
			return Delta{}, domainerrors.NewDesyncError(string(scope), key)
		}
		id = usage.ID
		current, _ = usage.Get(field)

	case model.UsageScopeWorkspace:
		usage, err := uow.Usage().LockWorkspaceUsage(ctx, key)
		if err != nil {
			return Delta{}, err
		}
		if usage == nil {
			return Delta{}, domainerrors.NewDesyncError(string(scope), key)
		}
		id = usage.ID
		current, _ = usage.Get(field)

	default:
		return Delta{}, fmt.Errorf("unknown usage scope %q", scope)
	}

	next := current + delta
	if next < 0 {
		l.logger.Warn("Usage counter would go below zero, delta skipped",
			zap.String("scope", string(scope)),
			zap.Int64("key", key),
			zap.String("field", string(field)),
			zap.Int64("current", current),
			zap.Int64("delta", delta))
		l.metrics.LedgerClamped(string(field))
		return Delta{Value: current, Applied: false}, nil
	}

	if delta != 0 {
		if err := uow.Usage().SetCounter(ctx, scope, id, field, next); err != nil {
			return Delta{}, err
		}
	}

	return Delta{Value: next, Applied: true}, nil
}
