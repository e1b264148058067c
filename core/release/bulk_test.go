package release

import (
	"context"
	"testing"

	"ThqRel/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// distributedReleases walks n releases through submit and approve so they
// are eligible for bulk publishing.
func distributedReleases(t *testing.T, svc *Service, n int) []string {
	t.Helper()
	ctx := context.Background()

	ids := make([]string, n)
	for i := range ids {
		rel := readyRelease(t, svc, model.KindSingle, model.TierExclusive, 1)
		_, err := svc.Submit(ctx, owner, rel.ID)
		require.NoError(t, err)
		_, err = svc.Approve(ctx, moderator, rel.ID)
		require.NoError(t, err)
		ids[i] = rel.ID
	}
	return ids
}

func TestBulkPublishAllSucceed(t *testing.T) {
	svc, _, _ := newTestEngine()
	ids := distributedReleases(t, svc, 3)

	outcomes, err := svc.BulkTransition(context.Background(), moderator, ids, BulkPublish)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for i, outcome := range outcomes {
		assert.Equal(t, ids[i], outcome.ID, "outcomes keep input order")
		assert.True(t, outcome.Succeeded)
		assert.Empty(t, outcome.Error)
	}

	for _, id := range ids {
		rel, err := svc.GetRelease(context.Background(), moderator, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPublished, rel.Status)
	}
}

func TestBulkPublishPartialFailure(t *testing.T) {
	svc, repo, _ := newTestEngine()
	ids := distributedReleases(t, svc, 3)

	// The middle item loses a concurrent race; the others must still land.
	repo.FailCAS[ids[1]] = true

	outcomes, err := svc.BulkTransition(context.Background(), moderator, ids, BulkPublish)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Succeeded)
	assert.False(t, outcomes[1].Succeeded)
	assert.Equal(t, ErrConcurrentModification.Error(), outcomes[1].Error)
	assert.True(t, outcomes[2].Succeeded)
}

func TestBulkDeleteSkipsNothingOnItemErrors(t *testing.T) {
	svc, _, _ := newTestEngine()
	ids := distributedReleases(t, svc, 2)
	withMissing := []string{ids[0], "no-such-release", ids[1]}

	outcomes, err := svc.BulkTransition(context.Background(), moderator, withMissing, BulkDelete)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Succeeded)
	assert.False(t, outcomes[1].Succeeded)
	assert.Equal(t, ErrNotFound.Error(), outcomes[1].Error)
	assert.True(t, outcomes[2].Succeeded)
}

func TestBulkRequiresModerator(t *testing.T) {
	svc, _, _ := newTestEngine()
	_, err := svc.BulkTransition(context.Background(), owner, []string{"x"}, BulkPublish)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBulkEmptyBatch(t *testing.T) {
	svc, _, _ := newTestEngine()

	_, err := svc.BulkTransition(context.Background(), moderator, nil, BulkPublish)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	// Blank ids are dropped before the batch is judged empty.
	_, err = svc.BulkTransition(context.Background(), moderator, []string{"", ""}, BulkPublish)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestBulkRejectsUnknownOperation(t *testing.T) {
	svc, _, _ := newTestEngine()
	_, err := svc.BulkTransition(context.Background(), moderator, []string{"x"}, BulkOp("archive"))
	assert.Error(t, err)
}

func TestBulkDeduplicatesIDs(t *testing.T) {
	svc, _, _ := newTestEngine()
	ids := distributedReleases(t, svc, 1)

	outcomes, err := svc.BulkTransition(context.Background(), moderator,
		[]string{ids[0], ids[0], ids[0]}, BulkPublish)
	require.NoError(t, err)
	require.Len(t, outcomes, 1, "duplicates collapse to one outcome")
	assert.True(t, outcomes[0].Succeeded)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "", "b", "a", "c", "b"}))
	assert.Empty(t, dedupe([]string{"", ""}))
}
