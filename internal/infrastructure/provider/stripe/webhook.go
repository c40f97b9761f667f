package stripe

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/event"
	"go.uber.org/zap"
)

const (
	metadataUserID  = "user_id"
	metadataOfferID = "offer_id"
)

// VerifyWebhook validates the Stripe-Signature header. The account's API
// version may differ from the library's; only the fields read below matter.
func (s *StripeProvider) VerifyWebhook(payload []byte, signature string) (*event.ProviderEvent, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.Warn("Rejected webhook", zap.Error(err))
		return nil, domainerrors.NewSignatureError(err)
	}

	delivery := &event.ProviderEvent{
		ID:         evt.ID,
		Type:       string(evt.Type),
		APIVersion: evt.APIVersion,
		Created:    time.Unix(evt.Created, 0),
		Payload:    payload,
	}
	if evt.Data != nil {
		delivery.Object = evt.Data.Raw
	}
	return delivery, nil
}

// TranslateWebhook decodes the data object of a verified delivery
func (s *StripeProvider) TranslateWebhook(delivery *event.ProviderEvent) (event.Webhook, error) {
	kind := event.WebhookType(delivery.Type)

	switch kind {
	case event.TypeCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := decodeObject(delivery, &sess); err != nil {
			return nil, err
		}
		return checkoutCompleted(&sess)

	case event.TypeInvoicePaid, event.TypeInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := decodeObject(delivery, &inv); err != nil {
			return nil, err
		}
		subscriptionID := ""
		if inv.Subscription != nil {
			subscriptionID = inv.Subscription.ID
		}
		if kind == event.TypeInvoicePaid {
			return event.InvoicePaid{
				InvoiceID:              inv.ID,
				ProviderSubscriptionID: subscriptionID,
				BillingReason:          string(inv.BillingReason),
			}, nil
		}
		return event.InvoicePaymentFailed{
			InvoiceID:              inv.ID,
			ProviderSubscriptionID: subscriptionID,
		}, nil

	case event.TypeSubscriptionUpdated, event.TypeSubscriptionDeleted:
		var sub stripe.Subscription
		if err := decodeObject(delivery, &sub); err != nil {
			return nil, err
		}
		if sub.Customer == nil || sub.Customer.ID == "" {
			return nil, domainerrors.NewWebhookPayloadError(delivery.Type, fmt.Errorf("subscription %s has no customer", sub.ID))
		}
		if kind == event.TypeSubscriptionUpdated {
			return event.SubscriptionUpdated{
				ProviderCustomerID:     sub.Customer.ID,
				ProviderSubscriptionID: sub.ID,
				ProviderStatus:         string(sub.Status),
			}, nil
		}
		return event.SubscriptionDeleted{
			ProviderCustomerID:     sub.Customer.ID,
			ProviderSubscriptionID: sub.ID,
		}, nil
	}

	return nil, nil
}

func decodeObject(delivery *event.ProviderEvent, v interface{}) error {
	if len(delivery.Object) == 0 {
		return domainerrors.NewWebhookPayloadError(delivery.Type, fmt.Errorf("event %s has no data object", delivery.ID))
	}
	if err := json.Unmarshal(delivery.Object, v); err != nil {
		return domainerrors.NewWebhookPayloadError(delivery.Type, err)
	}
	return nil
}

func checkoutCompleted(sess *stripe.CheckoutSession) (event.Webhook, error) {
	if sess.Subscription == nil || sess.Customer == nil {
		return nil, fmt.Errorf("session %s has no subscription or customer: %w", sess.ID, event.ErrInvalidMetadata)
	}

	userID, err := strconv.ParseInt(sess.Metadata[metadataUserID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session %s %s: %w", sess.ID, metadataUserID, event.ErrInvalidMetadata)
	}

	var offerID *int64
	if raw, ok := sess.Metadata[metadataOfferID]; ok && raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("session %s %s: %w", sess.ID, metadataOfferID, event.ErrInvalidMetadata)
		}
		offerID = &id
	}

	return event.CheckoutCompleted{
		SessionID:              sess.ID,
		UserID:                 userID,
		OfferID:                offerID,
		ProviderSubscriptionID: sess.Subscription.ID,
		ProviderCustomerID:     sess.Customer.ID,
	}, nil
}
