package errors

import (
	"errors"
	"fmt"

	apperrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

var (
	// ErrSubscriptionNotFound indicates that no subscription matches the lookup
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrOfferNotFound indicates that the referenced offer does not exist
	ErrOfferNotFound = errors.New("offer not found")
)

// NotFoundSoftError is returned by webhook transitions that cannot resolve a
// subscription. The webhook is still acknowledged so the provider does not retry.
type NotFoundSoftError struct {
	Lookup string
	Key    string
}

func (e *NotFoundSoftError) Error() string {
	return fmt.Sprintf("subscription not found by %s %q", e.Lookup, e.Key)
}

func (e *NotFoundSoftError) Unwrap() error {
	return ErrSubscriptionNotFound
}

// NewNotFoundSoft creates a soft not-found error for the given lookup column
func NewNotFoundSoft(lookup, key string) *NotFoundSoftError {
	return &NotFoundSoftError{Lookup: lookup, Key: key}
}

// IsNotFoundSoft reports whether err should be acknowledged instead of surfaced
func IsNotFoundSoft(err error) bool {
	var soft *NotFoundSoftError
	return errors.As(err, &soft)
}

// NewSignatureError reports a webhook whose signature did not verify
func NewSignatureError(cause error) error {
	return apperrors.NewAppError(apperrors.ErrInvalidSignature, "invalid webhook signature", cause)
}

// NewWebhookPayloadError reports a verified webhook whose object could not be decoded
func NewWebhookPayloadError(eventType string, cause error) error {
	return apperrors.NewAppError(
		apperrors.ErrInvalidArgument,
		fmt.Sprintf("malformed %s payload", eventType),
		cause,
	)
}
