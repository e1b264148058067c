package release

import (
	"errors"
	"fmt"
	"strings"

	"ThqRel/model"
)

// Sentinel errors for conditions that carry no extra payload. Callers match
// them with errors.Is.
var (
	// ErrNotFound is returned when no release exists under the given id.
	ErrNotFound = errors.New("release not found")

	// ErrPermissionDenied is returned when the actor is neither the owner
	// nor an authorized moderator for the attempted operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConcurrentModification is returned when a compare-and-swap write
	// loses against a concurrent actor. The transition did not take effect.
	ErrConcurrentModification = errors.New("release was modified concurrently")

	// ErrRejectionReasonRequired is returned by Reject when the reason is
	// blank.
	ErrRejectionReasonRequired = errors.New("rejection reason is required")

	// ErrPaymentNotApplicable is returned when a payment operation is
	// attempted on a non-basic release.
	ErrPaymentNotApplicable = errors.New("payment verification applies to basic releases only")

	// ErrEmptyBatch is returned by BulkTransition when no ids were given.
	ErrEmptyBatch = errors.New("bulk operation requires at least one release id")
)

// ValidationError reports every unmet completion category at once so a
// caller can present the complete set of problems in one round trip.
type ValidationError struct {
	Unmet []CategoryResult
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Unmet))
	for _, c := range e.Unmet {
		names = append(names, string(c.Category))
	}
	return fmt.Sprintf("release is incomplete: %s", strings.Join(names, ", "))
}

// InvalidTransitionError is returned when an event is not legal from the
// actual current state. Current names a lifecycle status, or a payment
// status for payment sub-flow events.
type InvalidTransitionError struct {
	Event   Event
	Current string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a release in state %q", e.Event, e.Current)
}

// PaymentNotVerifiedError is the specialization surfaced from Approve on a
// basic-tier release whose payment has not been verified. It is distinct
// from InvalidTransitionError so the caller can render the correct
// remediation.
type PaymentNotVerifiedError struct {
	PaymentStatus model.PaymentStatus
}

func (e *PaymentNotVerifiedError) Error() string {
	return fmt.Sprintf("payment not verified (payment status %q)", e.PaymentStatus)
}

// AssetUploadError wraps a failure of the asset store collaborator. The
// engine propagates it without retrying; retry policy belongs to the caller.
type AssetUploadError struct {
	Object string
	Err    error
}

func (e *AssetUploadError) Error() string {
	return fmt.Sprintf("asset upload failed for %s: %v", e.Object, e.Err)
}

func (e *AssetUploadError) Unwrap() error { return e.Err }
