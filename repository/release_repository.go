package repository

import (
	"context"
	"errors"
	"time"

	"ThqRel/model"
)

// Sentinel errors shared by all repository implementations. The engine in
// core/release maps them onto its own taxonomy.
var (
	// ErrNotFound is returned when no row exists under the given id.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a conditional update found the row in a
	// different state than expected. Nothing was written.
	ErrConflict = errors.New("conditional update conflict")
)

// StatusPatch is the set of fields a lifecycle transition may write
// together with the new status. Nil pointer fields are left untouched;
// ClearRejection resets rejection_reason to empty.
type StatusPatch struct {
	Status          model.Status
	RejectionReason string
	ClearRejection  bool
	ApprovedAt      *time.Time
	ApprovedBy      int64
	PublishedAt     *time.Time
}

// PaymentPatch is the conditional write of the payment sub-flow.
type PaymentPatch struct {
	PaymentStatus model.PaymentStatus
	ReceiptURL    string
	Comment       string
	Amount        int
}

// ReleaseFilter narrows moderation listings.
type ReleaseFilter struct {
	Status model.Status // empty = any
	Tier   model.Tier   // empty = any
	Search string       // matches title or custom id, empty = any
}

// ReleaseRepository defines the persistence operations of the release
// engine. Status and payment transitions are compare-and-swap: the write is
// conditioned on the expected current value still holding at write time.
type ReleaseRepository interface {
	// Create inserts a new draft and assigns its sequential custom id.
	Create(ctx context.Context, r *model.Release) error

	// GetByID returns the release or ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Release, error)

	// ListByOwner returns the owner's releases, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.Release, error)

	// List returns releases matching the filter, newest first.
	List(ctx context.Context, f ReleaseFilter) ([]*model.Release, error)

	// SaveDraft persists the mutable fields of an editable release. The
	// write is conditioned on status still being draft or rejected;
	// ErrConflict otherwise.
	SaveDraft(ctx context.Context, r *model.Release) error

	// CASUpdateStatus applies a lifecycle transition conditioned on the
	// expected current status. Returns the updated release, ErrNotFound,
	// or ErrConflict when a concurrent actor won.
	CASUpdateStatus(ctx context.Context, id string, expected model.Status, patch StatusPatch) (*model.Release, error)

	// CASUpdatePayment applies a payment sub-flow transition conditioned
	// on the expected current payment status.
	CASUpdatePayment(ctx context.Context, id string, expected model.PaymentStatus, patch PaymentPatch) (*model.Release, error)

	// SetUPC assigns the UPC of a published release.
	SetUPC(ctx context.Context, id string, upc string) (*model.Release, error)

	// SetTrackISRC assigns the ISRC of one track of a published release.
	SetTrackISRC(ctx context.Context, id string, trackIndex int, isrc string) (*model.Release, error)

	// Delete removes the release and its moderation history. Irreversible.
	Delete(ctx context.Context, id string) error

	// AppendHistory appends one audit record.
	AppendHistory(ctx context.Context, e *model.ModerationEntry) error

	// HistoryByRelease returns the audit trail, oldest first.
	HistoryByRelease(ctx context.Context, id string) ([]model.ModerationEntry, error)
}
