package model

import "time"

// ProcessedBillingEvent records the idempotency key of an applied billing event
type ProcessedBillingEvent struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	IdempotencyKey string    `gorm:"uniqueIndex;not null;size:255" json:"idempotency_key"`
	EventType      string    `gorm:"not null;size:64" json:"event_type"`
	UserID         int64     `gorm:"not null" json:"user_id"`
	WorkspaceID    int64     `gorm:"not null;index" json:"workspace_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (ProcessedBillingEvent) TableName() string {
	return "processed_billing_events"
}
