// Package event defines the closed sets of events the billing service reacts to:
// resource lifecycle events from the workspace system and verified provider webhooks.
package event

import (
	"fmt"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
)

// BillingType is the wire name of a resource lifecycle event
type BillingType string

const (
	TypeWorkspaceCreated BillingType = "WORKSPACE_CREATED"
	TypeWorkspaceDeleted BillingType = "WORKSPACE_DELETED"
	TypeDocumentCreated  BillingType = "WORKSPACE_DOCUMENT_CREATED"
	TypeDocumentDeleted  BillingType = "WORKSPACE_DOCUMENT_DELETED"
	TypeStorageCreated   BillingType = "WORKSPACE_STORAGE_CREATED"
	TypeStorageDeleted   BillingType = "WORKSPACE_STORAGE_DELETED"
)

// Billing is implemented only by the event types in this file.
type Billing interface {
	Type() BillingType
	Meta() BillingMeta
	isBilling()
}

// BillingMeta is carried by every billing event
type BillingMeta struct {
	UserID         int64
	WorkspaceID    int64
	IdempotencyKey string
}

func (m BillingMeta) Meta() BillingMeta { return m }
func (BillingMeta) isBilling()          {}

type WorkspaceCreated struct{ BillingMeta }

type WorkspaceDeleted struct{ BillingMeta }

type DocumentCreated struct{ BillingMeta }

type DocumentDeleted struct{ BillingMeta }

// StorageCreated adds Size bytes to the workspace's storage counter
type StorageCreated struct {
	BillingMeta
	Size int64
}

// StorageDeleted removes Size bytes from the workspace's storage counter
type StorageDeleted struct {
	BillingMeta
	Size int64
}

func (WorkspaceCreated) Type() BillingType { return TypeWorkspaceCreated }
func (WorkspaceDeleted) Type() BillingType { return TypeWorkspaceDeleted }
func (DocumentCreated) Type() BillingType  { return TypeDocumentCreated }
func (DocumentDeleted) Type() BillingType  { return TypeDocumentDeleted }
func (StorageCreated) Type() BillingType   { return TypeStorageCreated }
func (StorageDeleted) Type() BillingType   { return TypeStorageDeleted }

// BillingPayload is the wire form shared by the HTTP endpoint and the Redis channel.
// UserID is only read from the Redis channel; HTTP callers are identified by their token.
type BillingPayload struct {
	EventID     string `json:"eventId,omitempty"`
	Type        string `json:"type"`
	UserID      *int64 `json:"userId,omitempty"`
	WorkspaceID *int64 `json:"workspaceId,omitempty"`
	StorageSize *int64 `json:"storageSize,omitempty"`
}

// ParseBilling converts a wire payload into a typed event for userID.
// An unknown type yields a nil event and a nil error.
func ParseBilling(p BillingPayload, userID int64) (Billing, error) {
	kind := BillingType(p.Type)
	switch kind {
	case TypeWorkspaceCreated, TypeWorkspaceDeleted,
		TypeDocumentCreated, TypeDocumentDeleted,
		TypeStorageCreated, TypeStorageDeleted:
	default:
		return nil, nil
	}

	if p.WorkspaceID == nil {
		return nil, domainerrors.NewValidationError(fmt.Sprintf("workspaceId is required for %s", kind))
	}
	meta := BillingMeta{
		UserID:         userID,
		WorkspaceID:    *p.WorkspaceID,
		IdempotencyKey: p.EventID,
	}

	switch kind {
	case TypeWorkspaceCreated:
		return WorkspaceCreated{meta}, nil
	case TypeWorkspaceDeleted:
		return WorkspaceDeleted{meta}, nil
	case TypeDocumentCreated:
		return DocumentCreated{meta}, nil
	case TypeDocumentDeleted:
		return DocumentDeleted{meta}, nil
	}

	if p.StorageSize == nil {
		return nil, domainerrors.NewValidationError(fmt.Sprintf("storageSize is required for %s", kind))
	}
	if *p.StorageSize < 0 {
		return nil, domainerrors.NewValidationError("storageSize must not be negative")
	}
	if kind == TypeStorageCreated {
		return StorageCreated{BillingMeta: meta, Size: *p.StorageSize}, nil
	}
	return StorageDeleted{BillingMeta: meta, Size: *p.StorageSize}, nil
}
