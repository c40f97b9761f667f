package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/event"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	"go.uber.org/zap"
)

func TestBillingEventDispatcher_WorkspaceLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("workspace created", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))

		assert.Equal(t, int64(1), env.userUsage(t, 7).WorkspaceCount)
		ws := env.workspaceUsage(t, 100)
		require.NotNil(t, ws)
		assert.Equal(t, int64(7), ws.CreatorUserID)
		assert.Zero(t, ws.DocumentCount)
		assert.Zero(t, ws.StorageSizeCount)
	})

	t.Run("redelivered workspace created counts once", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))

		assert.Equal(t, int64(1), env.userUsage(t, 7).WorkspaceCount)
		assert.Equal(t, []string{"WORKSPACE_CREATED:applied", "WORKSPACE_CREATED:duplicate"}, env.metrics.billing)
	})

	t.Run("workspace deleted decrements the creator", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 101)}))
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceDeleted{BillingMeta: meta(8, 100)}))

		assert.Equal(t, int64(1), env.userUsage(t, 7).WorkspaceCount)
		assert.Zero(t, env.userUsage(t, 8).WorkspaceCount)
		assert.Nil(t, env.workspaceUsage(t, 100))
		assert.NotNil(t, env.workspaceUsage(t, 101))
	})

	t.Run("deleting an unknown workspace is a no-op", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceDeleted{BillingMeta: meta(7, 100)}))
		assert.Zero(t, env.userUsage(t, 7).WorkspaceCount)
	})
}

func TestBillingEventDispatcher_WorkspaceCounters(t *testing.T) {
	ctx := context.Background()

	t.Run("document count clamps at zero", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))

		for i := 0; i < 3; i++ {
			require.NoError(t, env.dispatcher.Dispatch(ctx, event.DocumentCreated{BillingMeta: meta(7, 100)}))
		}
		assert.Equal(t, int64(3), env.workspaceUsage(t, 100).DocumentCount)

		for i := 0; i < 4; i++ {
			require.NoError(t, env.dispatcher.Dispatch(ctx, event.DocumentDeleted{BillingMeta: meta(7, 100)}))
		}
		assert.Zero(t, env.workspaceUsage(t, 100).DocumentCount)
		assert.Equal(t, []string{"document_count"}, env.metrics.clamped)
		assert.Equal(t, "WORKSPACE_DOCUMENT_DELETED:clamped", env.metrics.billing[len(env.metrics.billing)-1])
	})

	t.Run("storage size follows byte deltas", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))

		require.NoError(t, env.dispatcher.Dispatch(ctx, event.StorageCreated{BillingMeta: meta(7, 100), Size: 2048}))
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.StorageCreated{BillingMeta: meta(7, 100), Size: 1024}))
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.StorageDeleted{BillingMeta: meta(7, 100), Size: 2048}))
		assert.Equal(t, int64(1024), env.workspaceUsage(t, 100).StorageSizeCount)

		// Removing more than is stored leaves the counter unchanged
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.StorageDeleted{BillingMeta: meta(7, 100), Size: 4096}))
		assert.Equal(t, int64(1024), env.workspaceUsage(t, 100).StorageSizeCount)
	})

	t.Run("counter event for unknown workspace is a desync", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.dispatcher.Dispatch(ctx, event.DocumentCreated{BillingMeta: meta(7, 100)})
		require.Error(t, err)
		assert.True(t, domainerrors.IsDesync(err))
		assert.Equal(t, []string{"WORKSPACE_DOCUMENT_CREATED:desync"}, env.metrics.billing)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, env.dispatcher.Dispatch(ctx, event.DocumentCreated{BillingMeta: meta(7, 100)}))
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(20), env.workspaceUsage(t, 100).DocumentCount)
	})
}

func TestBillingEventDispatcher_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))

	doc := event.DocumentCreated{BillingMeta: event.BillingMeta{UserID: 7, WorkspaceID: 100, IdempotencyKey: "doc-1"}}
	require.NoError(t, env.dispatcher.Dispatch(ctx, doc))
	require.NoError(t, env.dispatcher.Dispatch(ctx, doc))
	assert.Equal(t, int64(1), env.workspaceUsage(t, 100).DocumentCount)

	// A failed event does not consume its key
	env2 := newTestEnv(t)
	early := event.DocumentCreated{BillingMeta: event.BillingMeta{UserID: 7, WorkspaceID: 100, IdempotencyKey: "doc-2"}}
	require.Error(t, env2.dispatcher.Dispatch(ctx, early))
	require.NoError(t, env2.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))
	require.NoError(t, env2.dispatcher.Dispatch(ctx, early))
	assert.Equal(t, int64(1), env2.workspaceUsage(t, 100).DocumentCount)
}

func TestBillingEventDispatcher_HandlePayload(t *testing.T) {
	ctx := context.Background()
	workspaceID := int64(100)

	t.Run("dispatches parsed payload", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.dispatcher.HandlePayload(ctx, event.BillingPayload{
			Type:        string(event.TypeWorkspaceCreated),
			WorkspaceID: &workspaceID,
		}, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), env.userUsage(t, 7).WorkspaceCount)
	})

	t.Run("ignores unknown type", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.dispatcher.HandlePayload(ctx, event.BillingPayload{Type: "WORKSPACE_RENAMED", WorkspaceID: &workspaceID}, 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"unknown:ignored"}, env.metrics.billing)
	})

	t.Run("rejects payload without workspace", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.dispatcher.HandlePayload(ctx, event.BillingPayload{Type: string(event.TypeDocumentCreated)}, 7)
		require.Error(t, err)
		assert.True(t, domainerrors.IsValidation(err))
	})
}

var errStoreDown = errors.New("store down")

// failingTxManager runs real transactions but fails selected usage writes
type failingTxManager struct {
	repository.TxManager
	failDelete     bool
	failUserUpdate bool
}

func (m *failingTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	return m.TxManager.WithinTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		return fn(ctx, failingUnitOfWork{UnitOfWork: uow, m: m})
	})
}

type failingUnitOfWork struct {
	repository.UnitOfWork
	m *failingTxManager
}

func (u failingUnitOfWork) Usage() repository.UsageRepository {
	return failingUsage{UsageRepository: u.UnitOfWork.Usage(), m: u.m}
}

type failingUsage struct {
	repository.UsageRepository
	m *failingTxManager
}

func (f failingUsage) DeleteWorkspaceUsage(ctx context.Context, workspaceID int64) (bool, error) {
	if f.m.failDelete {
		return false, errStoreDown
	}
	return f.UsageRepository.DeleteWorkspaceUsage(ctx, workspaceID)
}

func (f failingUsage) SetCounter(ctx context.Context, scope model.UsageScope, id int64, field model.UsageField, value int64) error {
	if f.m.failUserUpdate && scope == model.UsageScopeUser {
		return errStoreDown
	}
	return f.UsageRepository.SetCounter(ctx, scope, id, field, value)
}

func TestBillingEventDispatcher_FailureLeavesNoPartialWrites(t *testing.T) {
	ctx := context.Background()

	t.Run("delete failing after the creator decrement", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: meta(7, 100)}))
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.DocumentCreated{BillingMeta: meta(7, 100)}))

		txm := &failingTxManager{TxManager: env.txManager, failDelete: true}
		dispatcher := usecase.NewBillingEventDispatcher(txm, env.ledger, zap.NewNop(), env.metrics)

		err := dispatcher.Dispatch(ctx, event.WorkspaceDeleted{BillingMeta: meta(7, 100)})
		require.ErrorIs(t, err, errStoreDown)

		assert.Equal(t, int64(1), env.userUsage(t, 7).WorkspaceCount)
		ws := env.workspaceUsage(t, 100)
		require.NotNil(t, ws)
		assert.Equal(t, int64(1), ws.DocumentCount)
	})

	t.Run("creator increment failing after the workspace insert", func(t *testing.T) {
		env := newTestEnv(t)

		txm := &failingTxManager{TxManager: env.txManager, failUserUpdate: true}
		dispatcher := usecase.NewBillingEventDispatcher(txm, env.ledger, zap.NewNop(), env.metrics)

		err := dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: event.BillingMeta{UserID: 7, WorkspaceID: 100, IdempotencyKey: "evt-1"}})
		require.ErrorIs(t, err, errStoreDown)

		assert.Nil(t, env.workspaceUsage(t, 100))
		assert.Zero(t, env.userUsage(t, 7).WorkspaceCount)

		// Nothing was committed, so the same key applies cleanly once the store recovers
		require.NoError(t, env.dispatcher.Dispatch(ctx, event.WorkspaceCreated{BillingMeta: event.BillingMeta{UserID: 7, WorkspaceID: 100, IdempotencyKey: "evt-1"}}))
		assert.Equal(t, int64(1), env.userUsage(t, 7).WorkspaceCount)
		assert.NotNil(t, env.workspaceUsage(t, 100))
	})
}
