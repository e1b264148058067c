package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ThqRel/model"
)

// MemoryReleaseRepository is an in-memory ReleaseRepository with the same
// compare-and-swap semantics as the MySQL implementation. It backs the
// engine tests and local development without a database.
type MemoryReleaseRepository struct {
	mu       sync.Mutex
	releases map[string]*model.Release
	history  map[string][]model.ModerationEntry
	seq      int64
	histSeq  int64

	// FailCAS, when non-empty, makes the next conditional update on the
	// listed release ids fail with ErrConflict. Used by tests to simulate
	// a concurrent writer winning the race.
	FailCAS map[string]bool
}

// NewMemoryReleaseRepository creates an empty in-memory repository.
func NewMemoryReleaseRepository() *MemoryReleaseRepository {
	return &MemoryReleaseRepository{
		releases: make(map[string]*model.Release),
		history:  make(map[string][]model.ModerationEntry),
		FailCAS:  make(map[string]bool),
	}
}

func (r *MemoryReleaseRepository) Create(ctx context.Context, rel *model.Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	rel.CustomID = fmt.Sprintf("thqrel-%04d", r.seq)
	now := time.Now()
	rel.CreatedAt = now
	rel.UpdatedAt = now

	cp := cloneRelease(rel)
	r.releases[rel.ID] = cp
	return nil
}

func (r *MemoryReleaseRepository) GetByID(ctx context.Context, id string) (*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rel, ok := r.releases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRelease(rel), nil
}

func (r *MemoryReleaseRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Release
	for _, rel := range r.releases {
		if rel.OwnerID == ownerID {
			out = append(out, cloneRelease(rel))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryReleaseRepository) List(ctx context.Context, f ReleaseFilter) ([]*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Release
	for _, rel := range r.releases {
		if f.Status != "" && rel.Status != f.Status {
			continue
		}
		if f.Tier != "" && rel.Tier != f.Tier {
			continue
		}
		if f.Search != "" {
			s := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(rel.Title), s) && !strings.Contains(strings.ToLower(rel.CustomID), s) {
				continue
			}
		}
		out = append(out, cloneRelease(rel))
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryReleaseRepository) SaveDraft(ctx context.Context, rel *model.Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.releases[rel.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != model.StatusDraft && cur.Status != model.StatusRejected {
		return ErrConflict
	}

	cur.Title = rel.Title
	cur.Artists = append([]string(nil), rel.Artists...)
	cur.Genre = rel.Genre
	cur.Subgenres = append([]string(nil), rel.Subgenres...)
	cur.CoverURL = rel.CoverURL
	cur.ReleaseDate = rel.ReleaseDate
	cur.Tracks = append([]model.Track(nil), rel.Tracks...)
	cur.Territories = append([]string(nil), rel.Territories...)
	cur.Platforms = append([]string(nil), rel.Platforms...)
	cur.ContractAccepted = rel.ContractAccepted
	cur.ContractAcceptedAt = rel.ContractAcceptedAt
	cur.PromoState = rel.PromoState
	cur.FocusTrack = rel.FocusTrack
	cur.FocusTrackPromo = rel.FocusTrackPromo
	cur.PromoPhotos = append([]string(nil), rel.PromoPhotos...)
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryReleaseRepository) CASUpdateStatus(ctx context.Context, id string, expected model.Status, patch StatusPatch) (*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.releases[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.FailCAS[id] {
		delete(r.FailCAS, id)
		return nil, ErrConflict
	}
	if cur.Status != expected {
		return nil, ErrConflict
	}

	cur.Status = patch.Status
	if patch.ClearRejection {
		cur.RejectionReason = ""
	} else if patch.RejectionReason != "" {
		cur.RejectionReason = patch.RejectionReason
	}
	if patch.ApprovedAt != nil {
		cur.ApprovedAt = patch.ApprovedAt
		cur.ApprovedBy = patch.ApprovedBy
	}
	if patch.PublishedAt != nil {
		cur.PublishedAt = patch.PublishedAt
	}
	cur.UpdatedAt = time.Now()
	return cloneRelease(cur), nil
}

func (r *MemoryReleaseRepository) CASUpdatePayment(ctx context.Context, id string, expected model.PaymentStatus, patch PaymentPatch) (*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.releases[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.FailCAS[id] {
		delete(r.FailCAS, id)
		return nil, ErrConflict
	}
	if cur.PaymentStatus != expected {
		return nil, ErrConflict
	}

	cur.PaymentStatus = patch.PaymentStatus
	if patch.ReceiptURL != "" {
		cur.PaymentReceiptURL = patch.ReceiptURL
		cur.PaymentComment = patch.Comment
		cur.PaymentAmount = patch.Amount
	}
	cur.UpdatedAt = time.Now()
	return cloneRelease(cur), nil
}

func (r *MemoryReleaseRepository) SetUPC(ctx context.Context, id string, upc string) (*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.releases[id]
	if !ok {
		return nil, ErrNotFound
	}
	if cur.Status != model.StatusPublished {
		return nil, ErrConflict
	}
	cur.UPC = upc
	cur.UpdatedAt = time.Now()
	return cloneRelease(cur), nil
}

func (r *MemoryReleaseRepository) SetTrackISRC(ctx context.Context, id string, trackIndex int, isrc string) (*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.releases[id]
	if !ok {
		return nil, ErrNotFound
	}
	if cur.Status != model.StatusPublished {
		return nil, ErrConflict
	}
	if trackIndex < 0 || trackIndex >= len(cur.Tracks) {
		return nil, fmt.Errorf("track index %d out of range for release %s", trackIndex, id)
	}
	cur.Tracks[trackIndex].ISRC = isrc
	cur.UpdatedAt = time.Now()
	return cloneRelease(cur), nil
}

func (r *MemoryReleaseRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.releases[id]; !ok {
		return ErrNotFound
	}
	delete(r.releases, id)
	delete(r.history, id)
	return nil
}

func (r *MemoryReleaseRepository) AppendHistory(ctx context.Context, e *model.ModerationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.histSeq++
	e.ID = r.histSeq
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.history[e.ReleaseID] = append(r.history[e.ReleaseID], *e)
	return nil
}

func (r *MemoryReleaseRepository) HistoryByRelease(ctx context.Context, id string) ([]model.ModerationEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]model.ModerationEntry(nil), r.history[id]...), nil
}

func sortNewestFirst(releases []*model.Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].CreatedAt.After(releases[j].CreatedAt)
	})
}

func cloneRelease(rel *model.Release) *model.Release {
	cp := *rel
	cp.Artists = append([]string(nil), rel.Artists...)
	cp.Subgenres = append([]string(nil), rel.Subgenres...)
	cp.Tracks = append([]model.Track(nil), rel.Tracks...)
	cp.Territories = append([]string(nil), rel.Territories...)
	cp.Platforms = append([]string(nil), rel.Platforms...)
	cp.PromoPhotos = append([]string(nil), rel.PromoPhotos...)
	return &cp
}
