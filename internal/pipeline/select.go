package pipeline

import (
	"sort"
	"strings"

	"github.com/citypulse/citypulse/internal/discovery"
	"github.com/citypulse/citypulse/internal/models"
)

// Newsletter sizing: at most 20 events, at most 6 per category, but relax
// the category cap rather than deliver fewer than 12 when more survived.
const (
	MaxEvents      = 20
	MinEvents      = 12
	MaxPerCategory = 6
)

// DefaultScores fills in the neutral city-search score for candidates the
// model returned without one. Source-scoped candidates were already
// defaulted higher at the client.
func DefaultScores(candidates []models.CandidateEvent) []models.CandidateEvent {
	for i := range candidates {
		if candidates[i].Score == nil {
			score := float64(discovery.DefaultGeneralScore)
			candidates[i].Score = &score
		}
	}
	return candidates
}

// SortByScore orders candidates best first. Equal scores keep their
// relative order.
func SortByScore(candidates []models.CandidateEvent) []models.CandidateEvent {
	sort.SliceStable(candidates, func(i, j int) bool {
		return scoreOf(candidates[i]) > scoreOf(candidates[j])
	})
	return candidates
}

func scoreOf(c models.CandidateEvent) float64 {
	if c.Score == nil {
		return float64(discovery.DefaultGeneralScore)
	}
	return *c.Score
}

// ApplyExclusions drops candidates matching an organizer, artist, or venue
// rule. Matching is case-insensitive and bidirectional: the rule value may
// contain the event field or be contained by it. Venue rules fall back to
// the event's location when no venue is set. Event-type rules are prompt
// guidance only and are never hard-filtered here.
func ApplyExclusions(candidates []models.CandidateEvent, rules []models.ExclusionRule) []models.CandidateEvent {
	byType := make(map[models.ExclusionType][]string)
	for _, r := range rules {
		switch r.Type {
		case models.ExclusionOrganizer, models.ExclusionArtist, models.ExclusionVenue:
			byType[r.Type] = append(byType[r.Type], r.Value)
		}
	}
	if len(byType) == 0 {
		return candidates
	}

	kept := make([]models.CandidateEvent, 0, len(candidates))
	for _, c := range candidates {
		venueField := c.Venue
		if venueField == nil || strings.TrimSpace(*venueField) == "" {
			location := c.Location
			venueField = &location
		}

		if matchesAny(c.Organizer, byType[models.ExclusionOrganizer]) ||
			matchesAny(c.Artist, byType[models.ExclusionArtist]) ||
			matchesAny(venueField, byType[models.ExclusionVenue]) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func matchesAny(field *string, values []string) bool {
	if field == nil {
		return false
	}
	f := strings.ToLower(strings.TrimSpace(*field))
	if f == "" {
		return false
	}
	for _, v := range values {
		value := strings.ToLower(strings.TrimSpace(v))
		if value == "" {
			continue
		}
		if strings.Contains(f, value) || strings.Contains(value, f) {
			return true
		}
	}
	return false
}

// CapCategories keeps at most MaxPerCategory events per category, best
// first, then re-sorts the survivors globally. Input must already be
// sorted by score.
func CapCategories(candidates []models.CandidateEvent) []models.CandidateEvent {
	counts := make(map[string]int)
	kept := make([]models.CandidateEvent, 0, len(candidates))

	for _, c := range candidates {
		bucket := c.CategoryOrDefault()
		if counts[bucket] >= MaxPerCategory {
			continue
		}
		counts[bucket]++
		kept = append(kept, c)
	}

	return SortByScore(kept)
}

// CapTotal applies the 20-event ceiling to the category-capped list, but
// falls back to the top 12 of the uncapped list when category capping
// would leave the newsletter under the floor.
func CapTotal(capped, uncapped []models.CandidateEvent) []models.CandidateEvent {
	if len(capped) > MaxEvents {
		capped = capped[:MaxEvents]
	}
	if len(capped) >= MinEvents {
		return capped
	}
	if len(uncapped) > MinEvents {
		return uncapped[:MinEvents]
	}
	return uncapped
}
