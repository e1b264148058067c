package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackBounds(t *testing.T) {
	tests := []struct {
		kind ReleaseKind
		min  int
		max  int
	}{
		{KindSingle, 1, 1},
		{KindEP, 2, 7},
		{KindAlbum, 8, 50},
		{ReleaseKind("mixtape"), 0, 0},
	}
	for _, tt := range tests {
		min, max := tt.kind.TrackBounds()
		assert.Equal(t, tt.min, min, "%s min", tt.kind)
		assert.Equal(t, tt.max, max, "%s max", tt.kind)
	}
}

func TestKindAndTierValidity(t *testing.T) {
	assert.True(t, KindSingle.IsValid())
	assert.True(t, KindEP.IsValid())
	assert.True(t, KindAlbum.IsValid())
	assert.False(t, ReleaseKind("").IsValid())
	assert.False(t, ReleaseKind("compilation").IsValid())

	assert.True(t, TierBasic.IsValid())
	assert.True(t, TierExclusive.IsValid())
	assert.False(t, Tier("premium").IsValid())
}

func TestNormalizedTitle(t *testing.T) {
	assert.Equal(t, "night shift", Track{Title: "  Night Shift "}.NormalizedTitle())
	assert.Equal(t, "night shift", Track{Title: "NIGHT SHIFT"}.NormalizedTitle())
	assert.Equal(t, "", Track{}.NormalizedTitle())
}

func TestEditable(t *testing.T) {
	assert.True(t, (&Release{Status: StatusDraft}).Editable())
	assert.True(t, (&Release{Status: StatusRejected}).Editable())
	assert.False(t, (&Release{Status: StatusPending}).Editable())
	assert.False(t, (&Release{Status: StatusDistributed}).Editable())
	assert.False(t, (&Release{Status: StatusPublished}).Editable())
}

func TestMainArtist(t *testing.T) {
	assert.Equal(t, "", (&Release{}).MainArtist())
	assert.Equal(t, "Nova", (&Release{Artists: []string{"Nova", "Vega"}}).MainArtist())
}
