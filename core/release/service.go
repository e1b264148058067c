package release

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ThqRel/logger"
	"ThqRel/model"
	"ThqRel/repository"

	"github.com/google/uuid"
)

// DefaultPaymentAmount is the fixed basic-tier price in rubles attached to
// a payment receipt.
const DefaultPaymentAmount = 500

// Actor identifies who is performing an operation. Authorization decisions
// are made here, not in the transport layer.
type Actor struct {
	ID   int64
	Role model.Role
}

// IsModerator reports whether the actor holds the moderator role.
func (a Actor) IsModerator() bool {
	return a.Role == model.RoleModerator
}

// ModerationEvent describes a completed transition for downstream
// consumers (notification rows, websocket feeds).
type ModerationEvent struct {
	ReleaseID string                 `json:"releaseId"`
	CustomID  string                 `json:"customId"`
	OwnerID   int64                  `json:"ownerId"`
	Title     string                 `json:"title"`
	Action    model.ModerationAction `json:"action"`
	Status    model.Status           `json:"status"`
	Reason    string                 `json:"reason,omitempty"`
	At        time.Time              `json:"at"`
}

// Notifier receives moderation events after their transition has been
// persisted. Implementations must not block the calling goroutine for long.
type Notifier interface {
	ModerationChanged(ctx context.Context, ev ModerationEvent)
}

// CompletionCache caches completion reports between draft mutations.
type CompletionCache interface {
	Get(ctx context.Context, releaseID string) (*CompletionReport, bool)
	Set(ctx context.Context, releaseID string, report CompletionReport)
	Invalidate(ctx context.Context, releaseID string)
}

// Service is the release lifecycle and moderation engine. All status
// mutations go through it; nothing else writes the status column.
type Service struct {
	repo        repository.ReleaseRepository
	cache       CompletionCache
	notifier    Notifier
	bulkWorkers int
}

// NewService creates the engine. cache and notifier may be nil; workers
// below 1 falls back to 4.
func NewService(repo repository.ReleaseRepository, cache CompletionCache, notifier Notifier, bulkWorkers int) *Service {
	if bulkWorkers < 1 {
		bulkWorkers = 4
	}
	return &Service{repo: repo, cache: cache, notifier: notifier, bulkWorkers: bulkWorkers}
}

// CreateDraft creates an empty draft owned by the actor.
func (s *Service) CreateDraft(ctx context.Context, actor Actor, kind model.ReleaseKind, tier model.Tier) (*model.Release, error) {
	var unmet []CategoryResult
	if !kind.IsValid() {
		unmet = append(unmet, CategoryResult{
			Category: CategoryReleaseInfo,
			Reasons:  []string{fmt.Sprintf("unknown release kind %q", kind)},
		})
	}
	if !tier.IsValid() {
		unmet = append(unmet, CategoryResult{
			Category: CategoryReleaseInfo,
			Reasons:  []string{fmt.Sprintf("unknown tier %q", tier)},
		})
	}
	if len(unmet) > 0 {
		return nil, &ValidationError{Unmet: unmet}
	}

	rel := &model.Release{
		ID:         uuid.New().String(),
		OwnerID:    actor.ID,
		Kind:       kind,
		Tier:       tier,
		Status:     model.StatusDraft,
		PromoState: model.PromoNotStarted,
	}
	if tier == model.TierBasic {
		rel.PaymentStatus = model.PaymentNotSubmitted
	}

	if err := s.repo.Create(ctx, rel); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	logger.Info("draft created",
		logger.String("releaseId", rel.ID),
		logger.String("customId", rel.CustomID),
		logger.Int64("ownerId", actor.ID))
	return rel, nil
}

// GetRelease returns a release visible to the actor: its owner or any
// moderator. Drafts stay invisible to moderators.
func (s *Service) GetRelease(ctx context.Context, actor Actor, id string) (*model.Release, error) {
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if rel.OwnerID == actor.ID {
		return rel, nil
	}
	if actor.IsModerator() && rel.Status != model.StatusDraft {
		return rel, nil
	}
	return nil, ErrPermissionDenied
}

// ListOwn returns the actor's releases, newest first.
func (s *Service) ListOwn(ctx context.Context, actor Actor) ([]*model.Release, error) {
	return s.repo.ListByOwner(ctx, actor.ID)
}

// ListModeration returns non-draft releases for the moderation panel.
func (s *Service) ListModeration(ctx context.Context, actor Actor, f repository.ReleaseFilter) ([]*model.Release, error) {
	if !actor.IsModerator() {
		return nil, ErrPermissionDenied
	}
	releases, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := releases[:0]
	for _, rel := range releases {
		if rel.Status != model.StatusDraft {
			out = append(out, rel)
		}
	}
	return out, nil
}

// History returns the audit trail of a release visible to the actor.
func (s *Service) History(ctx context.Context, actor Actor, id string) ([]model.ModerationEntry, error) {
	if _, err := s.GetRelease(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.HistoryByRelease(ctx, id)
}

// UpdateDraft applies a partial edit to an editable release. Fails with
// ErrPermissionDenied when the actor is not the owner or the release left
// the editable states.
func (s *Service) UpdateDraft(ctx context.Context, actor Actor, id string, patch DraftPatch) (*model.Release, error) {
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if rel.OwnerID != actor.ID || !rel.Editable() {
		return nil, ErrPermissionDenied
	}

	patch.apply(rel)
	normalizeDraft(rel)
	if err := validateDraft(rel); err != nil {
		return nil, err
	}

	if err := s.repo.SaveDraft(ctx, rel); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidateCompletion(ctx, id)
	return s.repo.GetByID(ctx, id)
}

// ComputeCompletion evaluates the completion gate for the actor's release.
// Reports are cached until the next draft mutation.
func (s *Service) ComputeCompletion(ctx context.Context, actor Actor, id string) (CompletionReport, error) {
	rel, err := s.GetRelease(ctx, actor, id)
	if err != nil {
		return CompletionReport{}, err
	}
	if s.cache != nil {
		if report, ok := s.cache.Get(ctx, id); ok {
			return *report, nil
		}
	}
	report := ComputeCompletion(rel)
	if s.cache != nil {
		s.cache.Set(ctx, id, report)
	}
	return report, nil
}

// Submit moves a draft (or a rejected release being resubmitted) to
// pending moderation. Submission is idempotent: a release already pending
// is returned as-is without a second history entry.
func (s *Service) Submit(ctx context.Context, actor Actor, id string) (*model.Release, error) {
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if rel.OwnerID != actor.ID {
		return nil, ErrPermissionDenied
	}
	if rel.Status == model.StatusPending {
		return rel, nil
	}
	to, ok := nextStatus(EventSubmit, rel.Status)
	if !ok {
		return nil, &InvalidTransitionError{Event: EventSubmit, Current: string(rel.Status)}
	}

	if report := ComputeCompletion(rel); !report.AllSatisfied {
		return nil, &ValidationError{Unmet: report.Unmet}
	}

	updated, err := s.repo.CASUpdateStatus(ctx, id, rel.Status, repository.StatusPatch{
		Status:         to,
		ClearRejection: rel.Status == model.StatusRejected,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidateCompletion(ctx, id)
	s.record(ctx, updated, actor, model.ActionSubmit, "")
	return updated, nil
}

// Approve moves a pending release to distributed. On the basic tier the
// payment sub-flow is consulted, never bypassed.
func (s *Service) Approve(ctx context.Context, actor Actor, id string) (*model.Release, error) {
	if !actor.IsModerator() {
		return nil, ErrPermissionDenied
	}
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	to, ok := nextStatus(EventApprove, rel.Status)
	if !ok {
		return nil, &InvalidTransitionError{Event: EventApprove, Current: string(rel.Status)}
	}
	if rel.Tier == model.TierBasic && rel.PaymentStatus != model.PaymentVerified {
		return nil, &PaymentNotVerifiedError{PaymentStatus: rel.PaymentStatus}
	}

	now := time.Now()
	updated, err := s.repo.CASUpdateStatus(ctx, id, rel.Status, repository.StatusPatch{
		Status:     to,
		ApprovedAt: &now,
		ApprovedBy: actor.ID,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, updated, actor, model.ActionApprove, "")
	return updated, nil
}

// Reject moves a pending release to rejected. The reason is mandatory and
// becomes the release's rejection reason verbatim.
func (s *Service) Reject(ctx context.Context, actor Actor, id string, reason string) (*model.Release, error) {
	if !actor.IsModerator() {
		return nil, ErrPermissionDenied
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonRequired
	}
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	to, ok := nextStatus(EventReject, rel.Status)
	if !ok {
		return nil, &InvalidTransitionError{Event: EventReject, Current: string(rel.Status)}
	}

	updated, err := s.repo.CASUpdateStatus(ctx, id, rel.Status, repository.StatusPatch{
		Status:          to,
		RejectionReason: reason,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, updated, actor, model.ActionReject, reason)
	return updated, nil
}

// Publish applies the external publish signal: distributed to published.
func (s *Service) Publish(ctx context.Context, actor Actor, id string) (*model.Release, error) {
	if !actor.IsModerator() {
		return nil, ErrPermissionDenied
	}
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	to, ok := nextStatus(EventPublish, rel.Status)
	if !ok {
		return nil, &InvalidTransitionError{Event: EventPublish, Current: string(rel.Status)}
	}

	now := time.Now()
	updated, err := s.repo.CASUpdateStatus(ctx, id, rel.Status, repository.StatusPatch{
		Status:      to,
		PublishedAt: &now,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, updated, actor, model.ActionPublish, "")
	return updated, nil
}

// AttachPaymentReceipt records the owner's payment receipt and moves the
// payment sub-flow to pending verification. A rejected payment may be
// re-attempted.
func (s *Service) AttachPaymentReceipt(ctx context.Context, actor Actor, id string, receiptURL, comment string) (*model.Release, error) {
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if rel.OwnerID != actor.ID {
		return nil, ErrPermissionDenied
	}
	if rel.Tier != model.TierBasic {
		return nil, ErrPaymentNotApplicable
	}
	if receiptURL == "" {
		return nil, &ValidationError{Unmet: []CategoryResult{{
			Category: CategoryReleaseInfo,
			Reasons:  []string{"payment receipt is missing"},
		}}}
	}
	if rel.PaymentStatus != model.PaymentNotSubmitted && rel.PaymentStatus != model.PaymentRejected {
		return nil, &InvalidTransitionError{Event: "attach_receipt", Current: string(rel.PaymentStatus)}
	}

	updated, err := s.repo.CASUpdatePayment(ctx, id, rel.PaymentStatus, repository.PaymentPatch{
		PaymentStatus: model.PaymentPending,
		ReceiptURL:    receiptURL,
		Comment:       comment,
		Amount:        DefaultPaymentAmount,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, updated, actor, model.ActionPaymentSubmit, "")
	return updated, nil
}

// VerifyPayment records the moderator's decision on a pending payment.
func (s *Service) VerifyPayment(ctx context.Context, actor Actor, id string, approved bool, reason string) (*model.Release, error) {
	if !actor.IsModerator() {
		return nil, ErrPermissionDenied
	}
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if rel.Tier != model.TierBasic {
		return nil, ErrPaymentNotApplicable
	}
	if rel.PaymentStatus != model.PaymentPending {
		return nil, &InvalidTransitionError{Event: "verify_payment", Current: string(rel.PaymentStatus)}
	}

	target := model.PaymentVerified
	action := model.ActionPaymentVerify
	if !approved {
		target = model.PaymentRejected
		action = model.ActionPaymentReject
	}

	updated, err := s.repo.CASUpdatePayment(ctx, id, model.PaymentPending, repository.PaymentPatch{
		PaymentStatus: target,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, updated, actor, action, reason)
	return updated, nil
}

// SetUPC assigns the UPC of a published release. Moderator only.
func (s *Service) SetUPC(ctx context.Context, actor Actor, id string, upc string) (*model.Release, error) {
	if !actor.IsModerator() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(upc) == "" {
		return nil, &ValidationError{Unmet: []CategoryResult{{
			Category: CategoryReleaseInfo,
			Reasons:  []string{"upc is empty"},
		}}}
	}
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if rel.Status != model.StatusPublished {
		return nil, &InvalidTransitionError{Event: "assign_upc", Current: string(rel.Status)}
	}

	updated, err := s.repo.SetUPC(ctx, id, strings.TrimSpace(upc))
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, updated, actor, model.ActionAssignUPC, "")
	return updated, nil
}

// SetTrackISRC assigns the ISRC of one track of a published release.
func (s *Service) SetTrackISRC(ctx context.Context, actor Actor, id string, trackIndex int, isrc string) (*model.Release, error) {
	if !actor.IsModerator() {
		return nil, ErrPermissionDenied
	}
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if rel.Status != model.StatusPublished {
		return nil, &InvalidTransitionError{Event: "assign_isrc", Current: string(rel.Status)}
	}

	updated, err := s.repo.SetTrackISRC(ctx, id, trackIndex, strings.TrimSpace(isrc))
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, updated, actor, model.ActionAssignISRC, "")
	return updated, nil
}

// DeleteRelease hard-deletes a release. Owners may delete their drafts;
// moderators may delete from any state. Irreversible.
func (s *Service) DeleteRelease(ctx context.Context, actor Actor, id string) error {
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if !deletableBy(rel, actor) {
		return ErrPermissionDenied
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidateCompletion(ctx, id)
	logger.Info("release deleted",
		logger.String("releaseId", id),
		logger.String("customId", rel.CustomID),
		logger.Int64("actorId", actor.ID))
	return nil
}

// record appends the audit entry and fans the event out. History append
// failures are logged, not surfaced: the transition itself already
// happened.
func (s *Service) record(ctx context.Context, rel *model.Release, actor Actor, action model.ModerationAction, reason string) {
	entry := &model.ModerationEntry{
		ReleaseID: rel.ID,
		ActorID:   actor.ID,
		Action:    action,
		Reason:    reason,
	}
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		logger.Error("failed to append moderation history",
			logger.String("releaseId", rel.ID),
			logger.String("action", string(action)),
			logger.ErrorField(err))
	}
	if s.notifier != nil {
		s.notifier.ModerationChanged(ctx, ModerationEvent{
			ReleaseID: rel.ID,
			CustomID:  rel.CustomID,
			OwnerID:   rel.OwnerID,
			Title:     rel.Title,
			Action:    action,
			Status:    rel.Status,
			Reason:    reason,
			At:        entry.CreatedAt,
		})
	}
}

func (s *Service) invalidateCompletion(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConcurrentModification
	}
	return err
}
