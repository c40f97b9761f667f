package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type usageRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUsageRepository creates a new usage ledger repository
func NewUsageRepository(db *gorm.DB, logger *zap.Logger) repository.UsageRepository {
	return &usageRepository{
		db:     db,
		logger: logger,
	}
}

// GetOrCreateUserUsage inserts the user's row with ON CONFLICT DO NOTHING and reads it back.
// Concurrent callers for the same user all observe the single row.
func (r *usageRepository) GetOrCreateUserUsage(ctx context.Context, userID int64) (*model.UserUsage, error) {
	db := r.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.UserUsage{UserID: userID}).Error
	if err != nil {
		r.logger.Error("Failed to upsert user usage",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to upsert user usage: %w", err)
	}

	var usage model.UserUsage
	if err := db.Where("user_id = ?", userID).First(&usage).Error; err != nil {
		return nil, fmt.Errorf("failed to get user usage: %w", err)
	}

	return &usage, nil
}

// LockUserUsage locks the user's usage row
func (r *usageRepository) LockUserUsage(ctx context.Context, userID int64) (*model.UserUsage, error) {
	var usage model.UserUsage

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock user usage: %w", err)
	}

	return &usage, nil
}

// GetWorkspaceUsage retrieves the workspace's usage row without locking
func (r *usageRepository) GetWorkspaceUsage(ctx context.Context, workspaceID int64) (*model.WorkspaceUsage, error) {
	return r.workspaceUsage(r.db.WithContext(ctx), workspaceID)
}

// LockWorkspaceUsage locks the workspace's usage row
func (r *usageRepository) LockWorkspaceUsage(ctx context.Context, workspaceID int64) (*model.WorkspaceUsage, error) {
	return r.workspaceUsage(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), workspaceID)
}

func (r *usageRepository) workspaceUsage(db *gorm.DB, workspaceID int64) (*model.WorkspaceUsage, error) {
	var usage model.WorkspaceUsage

	err := db.Where("workspace_id = ?", workspaceID).First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workspace usage: %w", err)
	}

	return &usage, nil
}

// CreateWorkspaceUsage inserts the workspace's row unless it already exists
func (r *usageRepository) CreateWorkspaceUsage(ctx context.Context, usage *model.WorkspaceUsage) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}},
			DoNothing: true,
		}).
		Create(usage)
	if result.Error != nil {
		r.logger.Error("Failed to create workspace usage",
			zap.Int64("workspace_id", usage.WorkspaceID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to create workspace usage: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// DeleteWorkspaceUsage removes the workspace's row
func (r *usageRepository) DeleteWorkspaceUsage(ctx context.Context, workspaceID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Delete(&model.WorkspaceUsage{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete workspace usage: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// SetCounter updates a single counter column by primary key
func (r *usageRepository) SetCounter(ctx context.Context, scope model.UsageScope, id int64, field model.UsageField, value int64) error {
	owner, ok := field.Scope()
	if !ok || owner != scope {
		return fmt.Errorf("field %q does not belong to %s usage", field, scope)
	}

	var target interface{}
	switch scope {
	case model.UsageScopeUser:
		target = &model.UserUsage{}
	case model.UsageScopeWorkspace:
		target = &model.WorkspaceUsage{}
	}

	result := r.db.WithContext(ctx).
		Model(target).
		Where("id = ?", id).
		Update(string(field), value)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", field, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update %s: no %s usage row with id %d", field, scope, id)
	}

	return nil
}

// MarkProcessed stores the idempotency key of a billing event
func (r *usageRepository) MarkProcessed(ctx context.Context, processed *model.ProcessedBillingEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(processed)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record billing event: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
