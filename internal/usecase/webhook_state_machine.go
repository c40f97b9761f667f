package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/event"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// Webhook outcomes reported to metrics
const (
	webhookRejected   = "rejected"
	webhookMalformed  = "malformed"
	webhookIgnored    = "ignored"
	webhookSoftFailed = "soft_failure"
	webhookCompleted  = "completed"
	webhookFailed     = "failed"
)

// WebhookStateMachine advances subscription status from provider deliveries.
// Each transition depends only on the persisted row and the event, so
// redelivered and reordered events converge on the same state.
type WebhookStateMachine struct {
	verifier  provider.WebhookVerifier
	txManager repository.TxManager
	logger    *zap.Logger
	metrics   MetricsRecorder
}

// NewWebhookStateMachine creates a new webhook state machine
func NewWebhookStateMachine(
	verifier provider.WebhookVerifier,
	txManager repository.TxManager,
	logger *zap.Logger,
	metrics MetricsRecorder,
) *WebhookStateMachine {
	return &WebhookStateMachine{
		verifier:  verifier,
		txManager: txManager,
		logger:    logger,
		metrics:   metricsOrNop(metrics),
	}
}

// HandleWebhook verifies a raw delivery and applies it. A nil error means the
// provider should consider the delivery accepted, including soft failures.
func (s *WebhookStateMachine) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	start := time.Now()

	delivery, err := s.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookEventProcessed("unverified", webhookRejected, time.Since(start))
		return err
	}

	outcome, err := s.process(ctx, delivery)
	s.metrics.WebhookEventProcessed(delivery.Type, outcome, time.Since(start))
	return err
}

func (s *WebhookStateMachine) process(ctx context.Context, delivery *event.ProviderEvent) (string, error) {
	log := s.logger.With(
		zap.String("event_id", delivery.ID),
		zap.String("event_type", delivery.Type))

	s.journal(ctx, delivery)

	wh, err := s.verifier.TranslateWebhook(delivery)
	if err != nil {
		if errors.Is(err, event.ErrInvalidMetadata) {
			log.Warn("Checkout session metadata unusable, acknowledging", zap.Error(err))
			s.markFailed(ctx, delivery.ID, err)
			return webhookSoftFailed, nil
		}
		log.Warn("Malformed webhook object", zap.Error(err))
		s.markFailed(ctx, delivery.ID, err)
		return webhookMalformed, err
	}
	if wh == nil {
		log.Debug("Ignoring unhandled webhook type")
		s.markCompleted(ctx, delivery.ID)
		return webhookIgnored, nil
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		return s.Apply(ctx, uow, wh)
	})
	if err != nil {
		if domainerrors.IsNotFoundSoft(err) {
			log.Warn("Webhook references unknown subscription, acknowledging", zap.Error(err))
			s.markCompleted(ctx, delivery.ID)
			return webhookSoftFailed, nil
		}
		log.Error("Failed to apply webhook", zap.Error(err))
		s.markFailed(ctx, delivery.ID, err)
		return webhookFailed, fmt.Errorf("apply %s: %w", delivery.Type, err)
	}

	s.markCompleted(ctx, delivery.ID)
	return webhookCompleted, nil
}

// Apply runs the transition for wh against the rows visible to uow
func (s *WebhookStateMachine) Apply(ctx context.Context, uow repository.UnitOfWork, wh event.Webhook) error {
	switch e := wh.(type) {
	case event.CheckoutCompleted:
		return s.checkoutCompleted(ctx, uow, e)
	case event.InvoicePaid:
		if e.FirstInvoice() {
			// checkout.session.completed already activated the subscription
			s.logger.Debug("Skipping first invoice",
				zap.String("provider_subscription_id", e.ProviderSubscriptionID))
			return nil
		}
		return s.setStatusBySubscription(ctx, uow, e.ProviderSubscriptionID, model.SubscriptionStatusActive)
	case event.InvoicePaymentFailed:
		return s.setStatusBySubscription(ctx, uow, e.ProviderSubscriptionID, model.SubscriptionStatusInactive)
	case event.SubscriptionUpdated:
		return s.subscriptionUpdated(ctx, uow, e)
	case event.SubscriptionDeleted:
		sub, err := s.lockByCustomer(ctx, uow, e.ProviderCustomerID)
		if err != nil {
			return err
		}
		return s.save(ctx, uow, sub, sub.ProviderSubscriptionID, model.SubscriptionStatusInactive)
	default:
		return fmt.Errorf("unhandled webhook event %T", wh)
	}
}

func (s *WebhookStateMachine) checkoutCompleted(ctx context.Context, uow repository.UnitOfWork, e event.CheckoutCompleted) error {
	offerID := e.OfferID
	if offerID != nil {
		offer, err := uow.Offers().GetByID(ctx, *offerID)
		if err != nil {
			return err
		}
		if offer == nil {
			s.logger.Warn("Checkout references unknown offer, subscription created without one",
				zap.Int64("offer_id", *offerID),
				zap.Int64("user_id", e.UserID))
			offerID = nil
		}
	}

	sub, err := uow.Subscriptions().LockByUserID(ctx, e.UserID)
	if err != nil {
		return err
	}

	if sub == nil {
		sub = &model.Subscription{
			OfferID:                offerID,
			UserID:                 e.UserID,
			ProviderSubscriptionID: e.ProviderSubscriptionID,
			ProviderCustomerID:     e.ProviderCustomerID,
			Status:                 model.SubscriptionStatusActive,
		}
		created, err := uow.Subscriptions().CreateIfAbsent(ctx, sub)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info("Subscription created",
				zap.Int64("user_id", e.UserID),
				zap.String("provider_subscription_id", e.ProviderSubscriptionID))
			return nil
		}

		// A concurrent delivery inserted first; continue against its row
		sub, err = uow.Subscriptions().LockByUserID(ctx, e.UserID)
		if err != nil {
			return err
		}
		if sub == nil {
			return fmt.Errorf("provider subscription %s or customer %s is linked to another user",
				e.ProviderSubscriptionID, e.ProviderCustomerID)
		}
	}

	if sub.ProviderSubscriptionID == e.ProviderSubscriptionID {
		s.logger.Info("Checkout already applied",
			zap.Int64("user_id", e.UserID),
			zap.String("provider_subscription_id", e.ProviderSubscriptionID))
		return nil
	}

	// A user who checks out again gets the new provider subscription
	if sub.IsActive() {
		s.logger.Warn("Checkout replaces a subscription that is still active",
			zap.Int64("user_id", e.UserID),
			zap.String("previous_provider_subscription_id", sub.ProviderSubscriptionID),
			zap.String("provider_subscription_id", e.ProviderSubscriptionID))
	}
	sub.OfferID = offerID
	sub.ProviderSubscriptionID = e.ProviderSubscriptionID
	sub.ProviderCustomerID = e.ProviderCustomerID
	sub.Status = model.SubscriptionStatusActive
	if err := uow.Subscriptions().Save(ctx, sub); err != nil {
		return err
	}
	s.logger.Info("Subscription relinked",
		zap.Int64("user_id", e.UserID),
		zap.String("provider_subscription_id", e.ProviderSubscriptionID))
	return nil
}

func (s *WebhookStateMachine) subscriptionUpdated(ctx context.Context, uow repository.UnitOfWork, e event.SubscriptionUpdated) error {
	sub, err := s.lockByCustomer(ctx, uow, e.ProviderCustomerID)
	if err != nil {
		return err
	}
	return s.save(ctx, uow, sub, e.ProviderSubscriptionID, model.StatusFromProvider(e.ProviderStatus))
}

func (s *WebhookStateMachine) setStatusBySubscription(ctx context.Context, uow repository.UnitOfWork, providerSubscriptionID string, status model.SubscriptionStatus) error {
	sub, err := uow.Subscriptions().LockByProviderSubscriptionID(ctx, providerSubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return domainerrors.NewNotFoundSoft("provider_subscription_id", providerSubscriptionID)
	}
	return s.save(ctx, uow, sub, sub.ProviderSubscriptionID, status)
}

func (s *WebhookStateMachine) lockByCustomer(ctx context.Context, uow repository.UnitOfWork, providerCustomerID string) (*model.Subscription, error) {
	sub, err := uow.Subscriptions().LockByProviderCustomerID(ctx, providerCustomerID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domainerrors.NewNotFoundSoft("provider_customer_id", providerCustomerID)
	}
	return sub, nil
}

// save writes the row only when the transition changes it
func (s *WebhookStateMachine) save(ctx context.Context, uow repository.UnitOfWork, sub *model.Subscription, providerSubscriptionID string, status model.SubscriptionStatus) error {
	if sub.ProviderSubscriptionID == providerSubscriptionID && sub.Status == status {
		return nil
	}

	s.logger.Info("Subscription status changed",
		zap.Int64("user_id", sub.UserID),
		zap.String("from", string(sub.Status)),
		zap.String("to", string(status)),
		zap.String("provider_subscription_id", providerSubscriptionID))

	sub.ProviderSubscriptionID = providerSubscriptionID
	sub.Status = status
	return uow.Subscriptions().Save(ctx, sub)
}

// journal records the delivery for auditing. Failures are logged and never block processing.
func (s *WebhookStateMachine) journal(ctx context.Context, delivery *event.ProviderEvent) {
	created := delivery.Created
	record := &model.StripeWebhookEvent{
		StripeEventID: delivery.ID,
		EventType:     delivery.Type,
		Status:        model.WebhookStatusPending,
		Payload:       datatypes.JSON(delivery.Payload),
	}
	if delivery.APIVersion != "" {
		apiVersion := delivery.APIVersion
		record.APIVersion = &apiVersion
	}
	if !created.IsZero() {
		record.StripeCreatedAt = &created
	}

	fresh, err := s.txManager.Reader().WebhookEvents().Record(ctx, record)
	if err != nil {
		s.logger.Warn("Failed to journal webhook", zap.String("event_id", delivery.ID), zap.Error(err))
		return
	}
	if !fresh {
		s.logger.Info("Webhook redelivered", zap.String("event_id", delivery.ID))
	}
}

func (s *WebhookStateMachine) markCompleted(ctx context.Context, eventID string) {
	if err := s.txManager.Reader().WebhookEvents().MarkCompleted(ctx, eventID); err != nil {
		s.logger.Warn("Failed to mark webhook completed", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (s *WebhookStateMachine) markFailed(ctx context.Context, eventID string, cause error) {
	if err := s.txManager.Reader().WebhookEvents().MarkFailed(ctx, eventID, cause); err != nil {
		s.logger.Warn("Failed to mark webhook failed", zap.String("event_id", eventID), zap.Error(err))
	}
}
