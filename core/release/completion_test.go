package release

import (
	"testing"

	"ThqRel/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeSingle() *model.Release {
	return &model.Release{
		ID:          "rel-1",
		Kind:        model.KindSingle,
		Tier:        model.TierExclusive,
		Status:      model.StatusDraft,
		Title:       "Midnight Drive",
		Artists:     []string{"Nova"},
		Genre:       "electronic",
		CoverURL:    "http://assets/covers/rel-1.jpg",
		ReleaseDate: "2026-10-01",
		Tracks: []model.Track{
			{Title: "Midnight Drive", AudioURL: "http://assets/audio/rel-1/0.wav", Lyrics: "la la", Language: "en"},
		},
		Territories:      []string{"worldwide"},
		Platforms:        []string{"spotify", "apple"},
		ContractAccepted: true,
		PromoState:       model.PromoSkipped,
	}
}

func TestComputeCompletionAllSatisfied(t *testing.T) {
	report := ComputeCompletion(completeSingle())
	assert.True(t, report.AllSatisfied)
	assert.Empty(t, report.Unmet)
}

func TestComputeCompletionReportsEveryUnmetCategoryAtOnce(t *testing.T) {
	rel := &model.Release{
		ID:     "rel-2",
		Kind:   model.KindEP,
		Status: model.StatusDraft,
	}

	report := ComputeCompletion(rel)
	require.False(t, report.AllSatisfied)

	got := make(map[Category][]string, len(report.Unmet))
	for _, c := range report.Unmet {
		got[c.Category] = c.Reasons
	}

	// An empty draft misses every one of the six categories in one report.
	assert.Len(t, got, 6)
	assert.Contains(t, got, CategoryReleaseInfo)
	assert.Contains(t, got, CategoryTracklist)
	assert.Contains(t, got, CategoryTerritories)
	assert.Contains(t, got, CategoryContract)
	assert.Contains(t, got, CategoryPlatforms)
	assert.Contains(t, got, CategoryPromo)
}

func TestComputeCompletionTrackBounds(t *testing.T) {
	tests := []struct {
		name   string
		kind   model.ReleaseKind
		tracks int
		reason string
	}{
		{"single needs exactly one", model.KindSingle, 0, "need exactly 1 track, have 0"},
		{"single rejects two", model.KindSingle, 2, "need exactly 1 track, have 2"},
		{"ep below minimum", model.KindEP, 1, "need 2-7 tracks, have 1"},
		{"ep above maximum", model.KindEP, 8, "need 2-7 tracks, have 8"},
		{"album below minimum", model.KindAlbum, 5, "need 8-50 tracks, have 5"},
		{"album above maximum", model.KindAlbum, 51, "need 8-50 tracks, have 51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := completeSingle()
			rel.Kind = tt.kind
			rel.Tracks = make([]model.Track, tt.tracks)
			for i := range rel.Tracks {
				rel.Tracks[i] = model.Track{
					Title:    "Track",
					AudioURL: "http://assets/a.wav",
					Lyrics:   "text",
					Language: "en",
				}
			}

			report := ComputeCompletion(rel)
			require.False(t, report.AllSatisfied)

			var tracklist *CategoryResult
			for i := range report.Unmet {
				if report.Unmet[i].Category == CategoryTracklist {
					tracklist = &report.Unmet[i]
				}
			}
			require.NotNil(t, tracklist)
			assert.Contains(t, tracklist.Reasons, tt.reason)
		})
	}
}

func TestComputeCompletionValidTrackCounts(t *testing.T) {
	tests := []struct {
		kind   model.ReleaseKind
		tracks int
	}{
		{model.KindSingle, 1},
		{model.KindEP, 2},
		{model.KindEP, 7},
		{model.KindAlbum, 8},
		{model.KindAlbum, 50},
	}

	for _, tt := range tests {
		rel := completeSingle()
		rel.Kind = tt.kind
		rel.Tracks = make([]model.Track, tt.tracks)
		for i := range rel.Tracks {
			rel.Tracks[i] = model.Track{Title: "T", AudioURL: "u", Lyrics: "l", Language: "en"}
		}

		report := ComputeCompletion(rel)
		for _, c := range report.Unmet {
			assert.NotEqual(t, CategoryTracklist, c.Category,
				"%s with %d tracks should satisfy the tracklist category", tt.kind, tt.tracks)
		}
	}
}

func TestComputeCompletionPromoStates(t *testing.T) {
	rel := completeSingle()

	rel.PromoState = model.PromoNotStarted
	assert.False(t, ComputeCompletion(rel).AllSatisfied)

	rel.PromoState = model.PromoSkipped
	assert.True(t, ComputeCompletion(rel).AllSatisfied)

	rel.PromoState = model.PromoFilled
	assert.True(t, ComputeCompletion(rel).AllSatisfied)
}

func TestComputeCompletionIsPure(t *testing.T) {
	rel := completeSingle()
	rel.Title = ""

	first := ComputeCompletion(rel)
	second := ComputeCompletion(rel)
	assert.Equal(t, first, second)
	assert.Equal(t, "", rel.Title, "the gate must not mutate the release")
}
