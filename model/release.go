package model

import (
	"strings"
	"time"
)

// ReleaseKind determines the allowed number of tracks on a release.
type ReleaseKind string

const (
	KindSingle ReleaseKind = "single"
	KindEP     ReleaseKind = "ep"
	KindAlbum  ReleaseKind = "album"
)

// TrackBounds returns the inclusive track-count range for the kind.
func (k ReleaseKind) TrackBounds() (min, max int) {
	switch k {
	case KindSingle:
		return 1, 1
	case KindEP:
		return 2, 7
	case KindAlbum:
		return 8, 50
	}
	return 0, 0
}

// IsValid reports whether k is a known release kind.
func (k ReleaseKind) IsValid() bool {
	switch k {
	case KindSingle, KindEP, KindAlbum:
		return true
	}
	return false
}

// Tier is the distribution plan of a release. Basic releases require a
// verified payment before approval; exclusive releases do not.
type Tier string

const (
	TierBasic     Tier = "basic"
	TierExclusive Tier = "exclusive"
)

// IsValid reports whether t is a known tier.
func (t Tier) IsValid() bool {
	return t == TierBasic || t == TierExclusive
}

// Status is the lifecycle state of a release. It is mutated only through
// the lifecycle engine in core/release, never assigned directly.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPending     Status = "pending"
	StatusDistributed Status = "distributed"
	StatusPublished   Status = "published"
	StatusRejected    Status = "rejected"
)

// PaymentStatus tracks the payment verification sub-flow of basic releases.
type PaymentStatus string

const (
	PaymentNotSubmitted PaymentStatus = "not_submitted"
	PaymentPending      PaymentStatus = "pending"
	PaymentVerified     PaymentStatus = "verified"
	PaymentRejected     PaymentStatus = "rejected"
)

// PromoState is an explicit tri-state: "not started" and "explicitly
// skipped" both pass the completion gate but stay distinguishable for audit.
type PromoState string

const (
	PromoNotStarted PromoState = "not_started"
	PromoSkipped    PromoState = "skipped"
	PromoFilled     PromoState = "filled"
)

// AudioMetadata is informational only; it is never validated against policy.
type AudioMetadata struct {
	Duration   float64 `json:"duration,omitempty"`
	Bitrate    string  `json:"bitrate,omitempty"`
	SampleRate string  `json:"sampleRate,omitempty"`
	Format     string  `json:"format,omitempty"`
	Size       int64   `json:"size,omitempty"`
}

// Track is owned exclusively by its release and has no identity outside it.
// Order within Release.Tracks is the track numbering and is preserved
// across edits.
type Track struct {
	Title           string         `json:"title"`
	AudioURL        string         `json:"audioUrl"`
	AudioMetadata   *AudioMetadata `json:"audioMetadata,omitempty"`
	Lyrics          string         `json:"lyrics,omitempty"`
	Language        string         `json:"language,omitempty"`
	ISRC            string         `json:"isrc,omitempty"`
	ExplicitContent bool           `json:"explicitContent"`
	Authors         []string       `json:"authors,omitempty"`
	Producers       []string       `json:"producers,omitempty"`
	Featuring       []string       `json:"featuring,omitempty"`
	Version         string         `json:"version,omitempty"`
	IsInstrumental  bool           `json:"isInstrumental"`
}

// NormalizedTitle is the form used for the unique-title invariant within
// one release: trimmed and case-folded.
func (t Track) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(t.Title))
}

// ModerationAction names an entry in the moderation history.
type ModerationAction string

const (
	ActionSubmit        ModerationAction = "submit"
	ActionApprove       ModerationAction = "approve"
	ActionReject        ModerationAction = "reject"
	ActionPublish       ModerationAction = "publish"
	ActionDelete        ModerationAction = "delete"
	ActionPaymentSubmit ModerationAction = "payment_submitted"
	ActionPaymentVerify ModerationAction = "payment_verified"
	ActionPaymentReject ModerationAction = "payment_rejected"
	ActionAssignUPC     ModerationAction = "assign_upc"
	ActionAssignISRC    ModerationAction = "assign_isrc"
)

// ModerationEntry is one append-only audit record. The full list per
// release is sufficient to reconstruct the audit trail without any
// side-channel logging.
type ModerationEntry struct {
	ID        int64            `json:"id"`
	ReleaseID string           `json:"releaseId"`
	ActorID   int64            `json:"actorId"`
	Action    ModerationAction `json:"action"`
	Reason    string           `json:"reason,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Release is the central entity of the distribution engine.
type Release struct {
	ID       string      `json:"id"`
	CustomID string      `json:"customId"` // human-facing code, e.g. thqrel-0001
	OwnerID  int64       `json:"ownerId"`
	Kind     ReleaseKind `json:"releaseKind"`
	Tier     Tier        `json:"tier"`
	Status   Status      `json:"status"`

	Title       string   `json:"title"`
	Artists     []string `json:"artists"` // ordered, first is the main artist
	Genre       string   `json:"genre"`
	Subgenres   []string `json:"subgenres,omitempty"` // 0-5
	CoverURL    string   `json:"coverUrl,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"` // YYYY-MM-DD
	UPC         string   `json:"upc,omitempty"`
	Tracks      []Track  `json:"tracks"`
	Territories []string `json:"territories"` // included country codes
	Platforms   []string `json:"platforms"`

	ContractAccepted   bool       `json:"contractAccepted"`
	ContractAcceptedAt *time.Time `json:"contractAcceptedAt,omitempty"`

	PromoState      PromoState `json:"promoState"`
	FocusTrack      string     `json:"focusTrack,omitempty"`
	FocusTrackPromo string     `json:"focusTrackPromo,omitempty"`
	PromoPhotos     []string   `json:"promoPhotos,omitempty"`

	// Payment sub-flow, basic tier only. PaymentStatus is
	// PaymentNotSubmitted until the owner attaches a receipt.
	PaymentStatus     PaymentStatus `json:"paymentStatus,omitempty"`
	PaymentReceiptURL string        `json:"paymentReceiptUrl,omitempty"`
	PaymentComment    string        `json:"paymentComment,omitempty"`
	PaymentAmount     int           `json:"paymentAmount,omitempty"`

	RejectionReason string `json:"rejectionReason,omitempty"`

	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy  int64      `json:"approvedBy,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MainArtist returns the first artist display name, or "" when unset.
func (r *Release) MainArtist() string {
	if len(r.Artists) == 0 {
		return ""
	}
	return r.Artists[0]
}

// Editable reports whether the owner may still mutate the release fields.
func (r *Release) Editable() bool {
	return r.Status == StatusDraft || r.Status == StatusRejected
}
