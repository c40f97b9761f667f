package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-billing/internal/domain/event"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/database"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/database/dbtest"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
)

type testEnv struct {
	db         *gorm.DB
	txManager  *database.TxManager
	ledger     *usecase.UsageLedger
	dispatcher *usecase.BillingEventDispatcher
	metrics    *recordingMetrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	db := dbtest.New(t)
	txManager := database.NewTxManager(db, logger)
	metrics := &recordingMetrics{}
	ledger := usecase.NewUsageLedger(logger, metrics)

	return &testEnv{
		db:         db,
		txManager:  txManager,
		ledger:     ledger,
		dispatcher: usecase.NewBillingEventDispatcher(txManager, ledger, logger, metrics),
		metrics:    metrics,
	}
}

func (e *testEnv) createOffer(t *testing.T, name, priceID string, limits map[model.Resource]int64) *model.Offer {
	t.Helper()

	offer := &model.Offer{
		Name:            name,
		Price:           decimal.RequireFromString("9.99"),
		ProviderPriceID: priceID,
	}
	for _, resource := range []model.Resource{model.ResourceWorkspace, model.ResourceDocument, model.ResourceFile} {
		if limit, ok := limits[resource]; ok {
			offer.Items = append(offer.Items, model.OfferItem{Resource: resource, Limit: limit})
		}
	}
	require.NoError(t, e.txManager.Reader().Offers().UpsertByName(context.Background(), offer))
	return offer
}

func (e *testEnv) createSubscription(t *testing.T, sub *model.Subscription) {
	t.Helper()
	require.NoError(t, e.txManager.Reader().Subscriptions().Create(context.Background(), sub))
}

func (e *testEnv) subscription(t *testing.T, userID int64) *model.Subscription {
	t.Helper()
	sub, err := e.txManager.Reader().Subscriptions().GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return sub
}

func (e *testEnv) userUsage(t *testing.T, userID int64) *model.UserUsage {
	t.Helper()
	var usage *model.UserUsage
	err := e.txManager.WithinTransaction(context.Background(), func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		usage, err = uow.Usage().GetOrCreateUserUsage(ctx, userID)
		return err
	})
	require.NoError(t, err)
	return usage
}

func (e *testEnv) workspaceUsage(t *testing.T, workspaceID int64) *model.WorkspaceUsage {
	t.Helper()
	usage, err := e.txManager.Reader().Usage().GetWorkspaceUsage(context.Background(), workspaceID)
	require.NoError(t, err)
	return usage
}

func meta(userID, workspaceID int64) event.BillingMeta {
	return event.BillingMeta{UserID: userID, WorkspaceID: workspaceID}
}

// recordingMetrics counts outcomes per event type
type recordingMetrics struct {
	mu       sync.Mutex
	billing  []string
	webhooks []string
	clamped  []string
}

func (m *recordingMetrics) BillingEventProcessed(eventType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.billing = append(m.billing, eventType+":"+outcome)
}

func (m *recordingMetrics) WebhookEventProcessed(eventType, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks = append(m.webhooks, eventType+":"+outcome)
}

func (m *recordingMetrics) LedgerClamped(field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clamped = append(m.clamped, field)
}

// MockBillingProvider is a mock implementation of provider.BillingProvider
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (*provider.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Session), args.Error(1)
}

func (m *MockBillingProvider) CreatePortalSession(ctx context.Context, customerID string) (*provider.Session, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Session), args.Error(1)
}

func (m *MockBillingProvider) GetPrice(ctx context.Context, priceID string) (*provider.Price, error) {
	args := m.Called(ctx, priceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Price), args.Error(1)
}

func (m *MockBillingProvider) VerifyWebhook(payload []byte, signature string) (*event.ProviderEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.ProviderEvent), args.Error(1)
}

func (m *MockBillingProvider) TranslateWebhook(delivery *event.ProviderEvent) (event.Webhook, error) {
	args := m.Called(delivery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(event.Webhook), args.Error(1)
}

func (m *MockBillingProvider) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}
