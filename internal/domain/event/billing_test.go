package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func TestParseBilling(t *testing.T) {
	tests := []struct {
		name    string
		payload BillingPayload
		want    Billing
	}{
		{
			name:    "workspace created",
			payload: BillingPayload{Type: "WORKSPACE_CREATED", WorkspaceID: int64Ptr(100), EventID: "evt-1"},
			want:    WorkspaceCreated{BillingMeta{UserID: 7, WorkspaceID: 100, IdempotencyKey: "evt-1"}},
		},
		{
			name:    "workspace deleted",
			payload: BillingPayload{Type: "WORKSPACE_DELETED", WorkspaceID: int64Ptr(100)},
			want:    WorkspaceDeleted{BillingMeta{UserID: 7, WorkspaceID: 100}},
		},
		{
			name:    "document created",
			payload: BillingPayload{Type: "WORKSPACE_DOCUMENT_CREATED", WorkspaceID: int64Ptr(100)},
			want:    DocumentCreated{BillingMeta{UserID: 7, WorkspaceID: 100}},
		},
		{
			name:    "document deleted",
			payload: BillingPayload{Type: "WORKSPACE_DOCUMENT_DELETED", WorkspaceID: int64Ptr(100)},
			want:    DocumentDeleted{BillingMeta{UserID: 7, WorkspaceID: 100}},
		},
		{
			name:    "storage created",
			payload: BillingPayload{Type: "WORKSPACE_STORAGE_CREATED", WorkspaceID: int64Ptr(100), StorageSize: int64Ptr(2048)},
			want:    StorageCreated{BillingMeta: BillingMeta{UserID: 7, WorkspaceID: 100}, Size: 2048},
		},
		{
			name:    "storage deleted",
			payload: BillingPayload{Type: "WORKSPACE_STORAGE_DELETED", WorkspaceID: int64Ptr(100), StorageSize: int64Ptr(0)},
			want:    StorageDeleted{BillingMeta: BillingMeta{UserID: 7, WorkspaceID: 100}, Size: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBilling(tt.payload, 7)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, BillingType(tt.payload.Type), got.Type())
		})
	}
}

func TestParseBillingUnknownType(t *testing.T) {
	got, err := ParseBilling(BillingPayload{Type: "WORKSPACE_RENAMED", WorkspaceID: int64Ptr(1)}, 7)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseBillingValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload BillingPayload
		message string
	}{
		{
			name:    "missing workspace",
			payload: BillingPayload{Type: "WORKSPACE_DOCUMENT_CREATED"},
			message: "workspaceId is required",
		},
		{
			name:    "missing storage size",
			payload: BillingPayload{Type: "WORKSPACE_STORAGE_CREATED", WorkspaceID: int64Ptr(1)},
			message: "storageSize is required",
		},
		{
			name:    "negative storage size",
			payload: BillingPayload{Type: "WORKSPACE_STORAGE_DELETED", WorkspaceID: int64Ptr(1), StorageSize: int64Ptr(-5)},
			message: "storageSize must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBilling(tt.payload, 7)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, domainerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestInvoicePaidFirstInvoice(t *testing.T) {
	assert.True(t, InvoicePaid{BillingReason: "subscription_create"}.FirstInvoice())
	assert.False(t, InvoicePaid{BillingReason: "subscription_cycle"}.FirstInvoice())
}
