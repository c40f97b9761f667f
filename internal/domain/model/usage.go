package model

import "time"

// UsageScope selects which ledger table a counter lives in
type UsageScope string

const (
	UsageScopeUser      UsageScope = "user"
	UsageScopeWorkspace UsageScope = "workspace"
)

// UsageField is a counter column of the usage ledger
type UsageField string

const (
	UsageFieldWorkspaceCount   UsageField = "workspace_count"
	UsageFieldDocumentCount    UsageField = "document_count"
	UsageFieldStorageSizeCount UsageField = "storage_size_count"
)

// Scope returns the ledger scope that owns the field
func (f UsageField) Scope() (UsageScope, bool) {
	switch f {
	case UsageFieldWorkspaceCount:
		return UsageScopeUser, true
	case UsageFieldDocumentCount, UsageFieldStorageSizeCount:
		return UsageScopeWorkspace, true
	}
	return "", false
}

// UserUsage counts the workspaces a user has created. One row per user.
type UserUsage struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	WorkspaceCount int64     `gorm:"not null;default:0" json:"workspace_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserUsage) TableName() string {
	return "user_usages"
}

// Get returns the value of a user scoped counter
func (u *UserUsage) Get(field UsageField) (int64, bool) {
	if field == UsageFieldWorkspaceCount {
		return u.WorkspaceCount, true
	}
	return 0, false
}

// WorkspaceUsage counts documents and stored bytes of a live workspace.
// The row exists exactly as long as the workspace does.
type WorkspaceUsage struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID      int64     `gorm:"uniqueIndex;not null" json:"workspace_id"`
	CreatorUserID    int64     `gorm:"not null;index" json:"creator_user_id"`
	DocumentCount    int64     `gorm:"not null;default:0" json:"document_count"`
	StorageSizeCount int64     `gorm:"not null;default:0" json:"storage_size_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (WorkspaceUsage) TableName() string {
	return "workspace_usages"
}

// Get returns the value of a workspace scoped counter
func (w *WorkspaceUsage) Get(field UsageField) (int64, bool) {
	switch field {
	case UsageFieldDocumentCount:
		return w.DocumentCount, true
	case UsageFieldStorageSizeCount:
		return w.StorageSizeCount, true
	}
	return 0, false
}
