package release

import (
	"context"
	"testing"

	"ThqRel/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateDraftAppliesOnlySetFields(t *testing.T) {
	svc, _, _ := newTestEngine()
	ctx := context.Background()
	rel := readyRelease(t, svc, model.KindEP, model.TierExclusive, 2)

	updated, err := svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{Genre: strp("ambient")})
	require.NoError(t, err)
	assert.Equal(t, "ambient", updated.Genre)
	assert.Equal(t, rel.Title, updated.Title, "unset fields stay untouched")
	assert.Equal(t, rel.Territories, updated.Territories)
}

func TestContractAcceptanceIsSetOnce(t *testing.T) {
	svc, _, _ := newTestEngine()
	ctx := context.Background()
	rel := readyRelease(t, svc, model.KindSingle, model.TierExclusive, 1)
	require.True(t, rel.ContractAccepted)
	acceptedAt := rel.ContractAcceptedAt
	require.NotNil(t, acceptedAt)

	// A later patch cannot unset the contract or move its timestamp.
	updated, err := svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{AcceptContract: boolp(false)})
	require.NoError(t, err)
	assert.True(t, updated.ContractAccepted)
	assert.Equal(t, acceptedAt.Unix(), updated.ContractAcceptedAt.Unix())

	updated, err = svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{AcceptContract: boolp(true)})
	require.NoError(t, err)
	assert.Equal(t, acceptedAt.Unix(), updated.ContractAcceptedAt.Unix())
}

func TestSingleTitleSyncsToTrack(t *testing.T) {
	svc, _, _ := newTestEngine()
	ctx := context.Background()
	rel := readyRelease(t, svc, model.KindSingle, model.TierExclusive, 1)

	updated, err := svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{Title: strp("  Renamed Cut  ")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Cut", updated.Title)
	require.Len(t, updated.Tracks, 1)
	assert.Equal(t, "Renamed Cut", updated.Tracks[0].Title)
}

func TestValidateDraftDuplicateTitles(t *testing.T) {
	svc, _, _ := newTestEngine()
	ctx := context.Background()
	rel := readyRelease(t, svc, model.KindEP, model.TierExclusive, 2)

	tracks := validTracks(2)
	tracks[0].Title = "Echoes"
	tracks[1].Title = "  echoes " // same title after trim + case fold

	_, err := svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{Tracks: &tracks})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Unmet, 1)
	assert.Equal(t, CategoryTracklist, validationErr.Unmet[0].Category)
	assert.Contains(t, validationErr.Unmet[0].Reasons, `duplicate track title "echoes"`)
}

func TestValidateDraftLyricsAndLanguage(t *testing.T) {
	svc, _, _ := newTestEngine()
	ctx := context.Background()
	rel := readyRelease(t, svc, model.KindSingle, model.TierExclusive, 1)

	vocal := validTracks(1)
	vocal[0].Lyrics = ""
	vocal[0].Language = ""
	_, err := svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{Tracks: &vocal})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Unmet, 1)
	assert.Len(t, validationErr.Unmet[0].Reasons, 2, "missing lyrics and language are both reported")

	// Instrumental tracks need neither.
	instrumental := validTracks(1)
	instrumental[0].Lyrics = ""
	instrumental[0].Language = ""
	instrumental[0].IsInstrumental = true
	_, err = svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{Tracks: &instrumental})
	assert.NoError(t, err)
}

func TestValidateDraftSubgenreLimit(t *testing.T) {
	svc, _, _ := newTestEngine()
	ctx := context.Background()
	rel := readyRelease(t, svc, model.KindSingle, model.TierExclusive, 1)

	_, err := svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{
		Subgenres: strsp("a", "b", "c", "d", "e", "f"),
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, CategoryReleaseInfo, validationErr.Unmet[0].Category)

	_, err = svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{
		Subgenres: strsp("a", "b", "c", "d", "e"),
	})
	assert.NoError(t, err)
}

func TestValidateDraftBlankArtist(t *testing.T) {
	svc, _, _ := newTestEngine()
	ctx := context.Background()
	rel := readyRelease(t, svc, model.KindSingle, model.TierExclusive, 1)

	_, err := svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{Artists: strsp("Nova", "   ")})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Unmet[0].Reasons, "artist names must not be blank")
}

func TestValidateDraftOverMaximumTracksRejectedAtSave(t *testing.T) {
	svc, _, _ := newTestEngine()
	ctx := context.Background()
	rel := readyRelease(t, svc, model.KindEP, model.TierExclusive, 2)

	// 8 tracks exceed the EP ceiling; the save is rejected outright rather
	// than deferred to the submission gate.
	_, err := svc.UpdateDraft(ctx, owner, rel.ID, DraftPatch{Tracks: tracksp(validTracks(8))})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, CategoryTracklist, validationErr.Unmet[0].Category)
}
