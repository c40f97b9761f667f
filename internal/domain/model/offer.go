package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resource is the kind of resource an offer item limits
type Resource string

const (
	ResourceWorkspace Resource = "workspace"
	ResourceDocument  Resource = "document"
	ResourceFile      Resource = "file"
)

// IsValid reports whether r is a known resource kind
func (r Resource) IsValid() bool {
	switch r {
	case ResourceWorkspace, ResourceDocument, ResourceFile:
		return true
	}
	return false
}

// Offer is a purchasable plan with a price and a set of resource limits.
// Offers are written only by the catalog sync command.
type Offer struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string          `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ProviderPriceID string          `gorm:"column:provider_price_id;size:255" json:"provider_price_id"`
	IsDefault       bool            `gorm:"not null;default:false" json:"is_default"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relations
	Items OfferItems `gorm:"foreignKey:OfferID" json:"items"`
}

// TableName specifies the table name for GORM
func (Offer) TableName() string {
	return "offers"
}

// OfferItem is one resource limit belonging to an offer. A zero limit is a hard cap.
type OfferItem struct {
	ID          int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID     int64    `gorm:"not null;index" json:"offer_id"`
	Resource    Resource `gorm:"not null;size:20" json:"resource"`
	Limit       int64    `gorm:"column:resource_limit;not null;default:0" json:"limit"`
	Description *string  `gorm:"size:255" json:"description,omitempty"`
}

// TableName specifies the table name for GORM
func (OfferItem) TableName() string {
	return "offer_items"
}

// OfferItems is the ordered item set of an offer
type OfferItems []OfferItem

// Limit returns the limit configured for resource, if the offer has one.
func (items OfferItems) Limit(resource Resource) (int64, bool) {
	for _, item := range items {
		if item.Resource == resource {
			return item.Limit, true
		}
	}
	return 0, false
}
