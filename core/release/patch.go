package release

import (
	"fmt"
	"strings"
	"time"

	"ThqRel/model"
)

// DraftPatch is a partial edit of an editable release. Nil fields are left
// untouched. AcceptContract only ever sets the flag: the contract is
// accepted once and never unset.
type DraftPatch struct {
	Title           *string
	Artists         *[]string
	Genre           *string
	Subgenres       *[]string
	CoverURL        *string
	ReleaseDate     *string
	Tracks          *[]model.Track
	Territories     *[]string
	Platforms       *[]string
	AcceptContract  *bool
	PromoState      *model.PromoState
	FocusTrack      *string
	FocusTrackPromo *string
	PromoPhotos     *[]string
}

func (p DraftPatch) apply(rel *model.Release) {
	if p.Title != nil {
		rel.Title = *p.Title
	}
	if p.Artists != nil {
		rel.Artists = *p.Artists
	}
	if p.Genre != nil {
		rel.Genre = *p.Genre
	}
	if p.Subgenres != nil {
		rel.Subgenres = *p.Subgenres
	}
	if p.CoverURL != nil {
		rel.CoverURL = *p.CoverURL
	}
	if p.ReleaseDate != nil {
		rel.ReleaseDate = *p.ReleaseDate
	}
	if p.Tracks != nil {
		rel.Tracks = *p.Tracks
	}
	if p.Territories != nil {
		rel.Territories = *p.Territories
	}
	if p.Platforms != nil {
		rel.Platforms = *p.Platforms
	}
	if p.AcceptContract != nil && *p.AcceptContract && !rel.ContractAccepted {
		now := time.Now()
		rel.ContractAccepted = true
		rel.ContractAcceptedAt = &now
	}
	if p.PromoState != nil {
		rel.PromoState = *p.PromoState
	}
	if p.FocusTrack != nil {
		rel.FocusTrack = *p.FocusTrack
	}
	if p.FocusTrackPromo != nil {
		rel.FocusTrackPromo = *p.FocusTrackPromo
	}
	if p.PromoPhotos != nil {
		rel.PromoPhotos = *p.PromoPhotos
	}
}

// normalizeDraft keeps derived fields consistent after an edit. On a
// single the track title mirrors the release title.
func normalizeDraft(rel *model.Release) {
	rel.Title = strings.TrimSpace(rel.Title)
	if rel.Kind == model.KindSingle && len(rel.Tracks) == 1 && rel.Title != "" {
		rel.Tracks[0].Title = rel.Title
	}
	for i := range rel.Tracks {
		rel.Tracks[i].Title = strings.TrimSpace(rel.Tracks[i].Title)
	}
}

// validateDraft enforces the field invariants that hold at save time, not
// just at submission. All violations are reported at once.
func validateDraft(rel *model.Release) error {
	var unmet []CategoryResult

	if reasons := validateReleaseFields(rel); len(reasons) > 0 {
		unmet = append(unmet, CategoryResult{Category: CategoryReleaseInfo, Reasons: reasons})
	}
	if reasons := validateTracks(rel); len(reasons) > 0 {
		unmet = append(unmet, CategoryResult{Category: CategoryTracklist, Reasons: reasons})
	}

	if len(unmet) > 0 {
		return &ValidationError{Unmet: unmet}
	}
	return nil
}

func validateReleaseFields(rel *model.Release) []string {
	var reasons []string
	if len(rel.Subgenres) > 5 {
		reasons = append(reasons, fmt.Sprintf("at most 5 subgenres allowed, have %d", len(rel.Subgenres)))
	}
	for _, a := range rel.Artists {
		if strings.TrimSpace(a) == "" {
			reasons = append(reasons, "artist names must not be blank")
			break
		}
	}
	return reasons
}

func validateTracks(rel *model.Release) []string {
	var reasons []string

	_, max := rel.Kind.TrackBounds()
	if max > 0 && len(rel.Tracks) > max {
		reasons = append(reasons, fmt.Sprintf("at most %d tracks allowed for %s, have %d", max, rel.Kind, len(rel.Tracks)))
	}

	seen := make(map[string]bool, len(rel.Tracks))
	for i, t := range rel.Tracks {
		pos := i + 1
		if t.Title == "" {
			reasons = append(reasons, fmt.Sprintf("track %d has no title", pos))
		}
		if t.AudioURL == "" {
			reasons = append(reasons, fmt.Sprintf("track %d has no audio file", pos))
		}
		if !t.IsInstrumental {
			if strings.TrimSpace(t.Lyrics) == "" {
				reasons = append(reasons, fmt.Sprintf("track %d has no lyrics (mark it instrumental if it has none)", pos))
			}
			if strings.TrimSpace(t.Language) == "" {
				reasons = append(reasons, fmt.Sprintf("track %d has no language", pos))
			}
		}
		key := t.NormalizedTitle()
		if key != "" && seen[key] {
			reasons = append(reasons, fmt.Sprintf("duplicate track title %q", t.Title))
		}
		seen[key] = true
	}
	return reasons
}
