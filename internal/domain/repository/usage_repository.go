package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
)

// UsageRepository stores the usage ledger. Lookups return nil without an error when no row matches.
type UsageRepository interface {
	// GetOrCreateUserUsage inserts the row if missing and never produces duplicates
	GetOrCreateUserUsage(ctx context.Context, userID int64) (*model.UserUsage, error)
	LockUserUsage(ctx context.Context, userID int64) (*model.UserUsage, error)

	GetWorkspaceUsage(ctx context.Context, workspaceID int64) (*model.WorkspaceUsage, error)
	LockWorkspaceUsage(ctx context.Context, workspaceID int64) (*model.WorkspaceUsage, error)
	// CreateWorkspaceUsage reports false when a row for the workspace already exists
	CreateWorkspaceUsage(ctx context.Context, usage *model.WorkspaceUsage) (bool, error)
	// DeleteWorkspaceUsage reports false when there was no row to delete
	DeleteWorkspaceUsage(ctx context.Context, workspaceID int64) (bool, error)

	// SetCounter writes value to field of the row with the given primary key
	SetCounter(ctx context.Context, scope model.UsageScope, id int64, field model.UsageField, value int64) error

	// MarkProcessed records an idempotency key and reports false if it was already present
	MarkProcessed(ctx context.Context, processed *model.ProcessedBillingEvent) (bool, error)
}
