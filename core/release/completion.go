package release

import (
	"fmt"
	"strings"

	"ThqRel/model"
)

// Category is one of the six independent completion checks a draft must
// pass before submission.
type Category string

const (
	CategoryReleaseInfo Category = "ReleaseInfo"
	CategoryTracklist   Category = "Tracklist"
	CategoryTerritories Category = "Territories"
	CategoryContract    Category = "Contract"
	CategoryPlatforms   Category = "Platforms"
	CategoryPromo       Category = "Promo"
)

// CategoryResult lists why a single category is unmet.
type CategoryResult struct {
	Category Category `json:"category"`
	Reasons  []string `json:"reasons"`
}

// CompletionReport is the aggregate output of the completion gate. It is
// consumed by Submit as a hard precondition and exposed to callers for
// progress display.
type CompletionReport struct {
	AllSatisfied bool             `json:"allSatisfied"`
	Unmet        []CategoryResult `json:"unmet,omitempty"`
}

// ComputeCompletion evaluates all six categories against the current field
// values of the release. It is a pure function over the snapshot: no side
// effects, callers may invoke it arbitrarily often.
func ComputeCompletion(r *model.Release) CompletionReport {
	var unmet []CategoryResult

	if reasons := checkReleaseInfo(r); len(reasons) > 0 {
		unmet = append(unmet, CategoryResult{Category: CategoryReleaseInfo, Reasons: reasons})
	}
	if reasons := checkTracklist(r); len(reasons) > 0 {
		unmet = append(unmet, CategoryResult{Category: CategoryTracklist, Reasons: reasons})
	}
	if len(r.Territories) == 0 {
		unmet = append(unmet, CategoryResult{
			Category: CategoryTerritories,
			Reasons:  []string{"no territories selected"},
		})
	}
	if !r.ContractAccepted {
		unmet = append(unmet, CategoryResult{
			Category: CategoryContract,
			Reasons:  []string{"contract has not been accepted"},
		})
	}
	if len(r.Platforms) == 0 {
		unmet = append(unmet, CategoryResult{
			Category: CategoryPlatforms,
			Reasons:  []string{"no distribution platforms selected"},
		})
	}
	if r.PromoState == model.PromoNotStarted || r.PromoState == "" {
		unmet = append(unmet, CategoryResult{
			Category: CategoryPromo,
			Reasons:  []string{"promo step must be filled in or skipped"},
		})
	}

	return CompletionReport{AllSatisfied: len(unmet) == 0, Unmet: unmet}
}

func checkReleaseInfo(r *model.Release) []string {
	var reasons []string
	if strings.TrimSpace(r.Title) == "" {
		reasons = append(reasons, "release title is empty")
	}
	if r.Genre == "" {
		reasons = append(reasons, "no genre selected")
	}
	if r.CoverURL == "" {
		reasons = append(reasons, "no cover uploaded")
	}
	if r.ReleaseDate == "" {
		reasons = append(reasons, "no release date set")
	}
	return reasons
}

func checkTracklist(r *model.Release) []string {
	min, max := r.Kind.TrackBounds()
	n := len(r.Tracks)
	if min == 0 && max == 0 {
		return []string{fmt.Sprintf("unknown release kind %q", r.Kind)}
	}
	if n < min || n > max {
		if min == max {
			return []string{fmt.Sprintf("need exactly %d track, have %d", min, n)}
		}
		return []string{fmt.Sprintf("need %d-%d tracks, have %d", min, max, n)}
	}
	return nil
}
