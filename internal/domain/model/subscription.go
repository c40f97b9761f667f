package model

import (
	"database/sql/driver"
	"time"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusInactive
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// StatusFromProvider maps the provider's subscription status string.
// Only "active" counts as active; trialing, past_due and the rest do not.
func StatusFromProvider(providerStatus string) SubscriptionStatus {
	if providerStatus == "active" {
		return SubscriptionStatusActive
	}
	return SubscriptionStatusInactive
}

// Subscription links a user to provider identifiers and a status.
// Rows are never deleted; a cancelled subscription is inactive.
type Subscription struct {
	ID                     int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID                *int64             `gorm:"index" json:"offer_id"`
	UserID                 int64              `gorm:"uniqueIndex;not null" json:"user_id"`
	ProviderSubscriptionID string             `gorm:"column:provider_subscription_id;uniqueIndex;not null;size:255" json:"provider_subscription_id"`
	ProviderCustomerID     string             `gorm:"column:provider_customer_id;uniqueIndex;not null;size:255" json:"provider_customer_id"`
	Status                 SubscriptionStatus `gorm:"not null;size:20;default:'inactive'" json:"status"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`

	// Relations
	Offer *Offer `gorm:"foreignKey:OfferID" json:"offer,omitempty"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActive reports whether the subscription is currently paid up
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
