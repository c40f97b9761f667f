package errors

import (
	"errors"
	"fmt"

	apperrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

// ErrUsageRecordNotFound indicates that a billing event references a resource
// with no ledger row. Retrying the same event reproduces it.
var ErrUsageRecordNotFound = errors.New("usage record not found")

// NewValidationError reports malformed caller input. The message reaches the caller verbatim.
func NewValidationError(message string) error {
	return apperrors.NewAppError(apperrors.ErrInvalidArgument, message, nil)
}

// NewAuthenticationError reports a missing or unverifiable identity token
func NewAuthenticationError(message string, cause error) error {
	return apperrors.NewAppError(apperrors.ErrUnauthenticated, message, cause)
}

// NewDesyncError reports that the resource lifecycle and billing pipelines disagree
func NewDesyncError(scope string, key int64) error {
	return apperrors.NewAppError(
		apperrors.ErrUsageDesync,
		fmt.Sprintf("usage desync for %s %d", scope, key),
		ErrUsageRecordNotFound,
	)
}

// IsDesync reports whether err is a ledger desync
func IsDesync(err error) bool {
	return errors.Is(err, ErrUsageRecordNotFound)
}

// IsValidation reports whether err carries the invalid argument code
func IsValidation(err error) bool {
	return apperrors.CodeOf(err) == apperrors.ErrInvalidArgument
}
