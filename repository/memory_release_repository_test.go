package repository

import (
	"context"
	"testing"

	"ThqRel/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRelease(t *testing.T, repo *MemoryReleaseRepository, status model.Status) *model.Release {
	t.Helper()
	rel := &model.Release{
		ID:      "rel-" + string(status),
		OwnerID: 1,
		Kind:    model.KindSingle,
		Tier:    model.TierExclusive,
		Status:  status,
	}
	require.NoError(t, repo.Create(context.Background(), rel))
	return rel
}

func TestCreateAssignsSequentialCustomIDs(t *testing.T) {
	repo := NewMemoryReleaseRepository()
	ctx := context.Background()

	a := &model.Release{ID: "a", Status: model.StatusDraft}
	b := &model.Release{ID: "b", Status: model.StatusDraft}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	assert.Equal(t, "thqrel-0001", a.CustomID)
	assert.Equal(t, "thqrel-0002", b.CustomID)
}

func TestCASUpdateStatusDistinguishesConflictFromNotFound(t *testing.T) {
	repo := NewMemoryReleaseRepository()
	ctx := context.Background()
	rel := seedRelease(t, repo, model.StatusPending)

	_, err := repo.CASUpdateStatus(ctx, "missing", model.StatusPending, StatusPatch{Status: model.StatusDistributed})
	assert.ErrorIs(t, err, ErrNotFound)

	// Wrong expected state means another writer got there first.
	_, err = repo.CASUpdateStatus(ctx, rel.ID, model.StatusDraft, StatusPatch{Status: model.StatusDistributed})
	assert.ErrorIs(t, err, ErrConflict)

	updated, err := repo.CASUpdateStatus(ctx, rel.ID, model.StatusPending, StatusPatch{Status: model.StatusDistributed})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDistributed, updated.Status)
}

func TestCASUpdateStatusClearsRejectionReason(t *testing.T) {
	repo := NewMemoryReleaseRepository()
	ctx := context.Background()
	rel := seedRelease(t, repo, model.StatusPending)

	rejected, err := repo.CASUpdateStatus(ctx, rel.ID, model.StatusPending, StatusPatch{
		Status:          model.StatusRejected,
		RejectionReason: "bad master",
	})
	require.NoError(t, err)
	assert.Equal(t, "bad master", rejected.RejectionReason)

	resubmitted, err := repo.CASUpdateStatus(ctx, rel.ID, model.StatusRejected, StatusPatch{
		Status:         model.StatusPending,
		ClearRejection: true,
	})
	require.NoError(t, err)
	assert.Empty(t, resubmitted.RejectionReason)
}

func TestSaveDraftOnlyInEditableStates(t *testing.T) {
	repo := NewMemoryReleaseRepository()
	ctx := context.Background()
	rel := seedRelease(t, repo, model.StatusDraft)

	rel.Title = "First Light"
	require.NoError(t, repo.SaveDraft(ctx, rel))

	_, err := repo.CASUpdateStatus(ctx, rel.ID, model.StatusDraft, StatusPatch{Status: model.StatusPending})
	require.NoError(t, err)

	rel.Title = "Too Late"
	assert.ErrorIs(t, repo.SaveDraft(ctx, rel), ErrConflict)
}

func TestGetByIDReturnsACopy(t *testing.T) {
	repo := NewMemoryReleaseRepository()
	ctx := context.Background()
	rel := seedRelease(t, repo, model.StatusDraft)

	got, err := repo.GetByID(ctx, rel.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Tracks = append(got.Tracks, model.Track{Title: "x"})

	fresh, err := repo.GetByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Title)
	assert.Empty(t, fresh.Tracks)
}

func TestListFilters(t *testing.T) {
	repo := NewMemoryReleaseRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Release{
		ID: "p1", OwnerID: 1, Tier: model.TierBasic, Status: model.StatusPending, Title: "Summer EP",
	}))
	require.NoError(t, repo.Create(ctx, &model.Release{
		ID: "p2", OwnerID: 2, Tier: model.TierExclusive, Status: model.StatusDistributed, Title: "Winter LP",
	}))

	pending, err := repo.List(ctx, ReleaseFilter{Status: model.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p1", pending[0].ID)

	basic, err := repo.List(ctx, ReleaseFilter{Tier: model.TierBasic})
	require.NoError(t, err)
	require.Len(t, basic, 1)

	byTitle, err := repo.List(ctx, ReleaseFilter{Search: "winter"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "p2", byTitle[0].ID)

	byCode, err := repo.List(ctx, ReleaseFilter{Search: pending[0].CustomID})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
}

func TestDeleteRemovesHistory(t *testing.T) {
	repo := NewMemoryReleaseRepository()
	ctx := context.Background()
	rel := seedRelease(t, repo, model.StatusDraft)

	require.NoError(t, repo.AppendHistory(ctx, &model.ModerationEntry{
		ReleaseID: rel.ID, ActorID: 1, Action: model.ActionSubmit,
	}))
	require.NoError(t, repo.Delete(ctx, rel.ID))

	history, err := repo.HistoryByRelease(ctx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.ErrorIs(t, repo.Delete(ctx, rel.ID), ErrNotFound)
}
