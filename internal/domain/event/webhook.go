package event

import (
	"errors"
	"time"
)

// WebhookType is the provider's event type string
type WebhookType string

const (
	TypeCheckoutCompleted    WebhookType = "checkout.session.completed"
	TypeInvoicePaid          WebhookType = "invoice.paid"
	TypeInvoicePaymentFailed WebhookType = "invoice.payment_failed"
	TypeSubscriptionUpdated  WebhookType = "customer.subscription.updated"
	TypeSubscriptionDeleted  WebhookType = "customer.subscription.deleted"
)

// BillingReasonSubscriptionCreate marks the first invoice of a subscription
const BillingReasonSubscriptionCreate = "subscription_create"

// ErrInvalidMetadata is returned when checkout session metadata cannot be read.
var ErrInvalidMetadata = errors.New("invalid checkout session metadata")

// Webhook is implemented only by the provider event types in this file.
type Webhook interface {
	Kind() WebhookType
	isWebhook()
}

// ProviderEvent is a verified provider delivery. Payload is the raw body and
// Object the raw data object the event is about.
type ProviderEvent struct {
	ID         string
	Type       string
	APIVersion string
	Created    time.Time
	Payload    []byte
	Object     []byte
}

// CheckoutCompleted is a finished checkout session. OfferID is nil when the
// session carries no offer.
type CheckoutCompleted struct {
	SessionID              string
	UserID                 int64
	OfferID                *int64
	ProviderSubscriptionID string
	ProviderCustomerID     string
}

// InvoicePaid is a settled invoice of a subscription
type InvoicePaid struct {
	InvoiceID              string
	ProviderSubscriptionID string
	BillingReason          string
}

// FirstInvoice reports whether the invoice opened the subscription
func (e InvoicePaid) FirstInvoice() bool {
	return e.BillingReason == BillingReasonSubscriptionCreate
}

type InvoicePaymentFailed struct {
	InvoiceID              string
	ProviderSubscriptionID string
}

// SubscriptionUpdated carries the subscription object's id and status
type SubscriptionUpdated struct {
	ProviderCustomerID     string
	ProviderSubscriptionID string
	ProviderStatus         string
}

type SubscriptionDeleted struct {
	ProviderCustomerID     string
	ProviderSubscriptionID string
}

func (CheckoutCompleted) Kind() WebhookType    { return TypeCheckoutCompleted }
func (InvoicePaid) Kind() WebhookType          { return TypeInvoicePaid }
func (InvoicePaymentFailed) Kind() WebhookType { return TypeInvoicePaymentFailed }
func (SubscriptionUpdated) Kind() WebhookType  { return TypeSubscriptionUpdated }
func (SubscriptionDeleted) Kind() WebhookType  { return TypeSubscriptionDeleted }

func (CheckoutCompleted) isWebhook()    {}
func (InvoicePaid) isWebhook()          {}
func (InvoicePaymentFailed) isWebhook() {}
func (SubscriptionUpdated) isWebhook()  {}
func (SubscriptionDeleted) isWebhook()  {}
