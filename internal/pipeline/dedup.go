package pipeline

import (
	"regexp"
	"strings"

	"github.com/citypulse/citypulse/internal/models"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// normalizeTitle produces the dedup key: trimmed, lowercased, internal
// whitespace runs collapsed to single spaces.
func normalizeTitle(title string) string {
	return whitespaceRuns.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), " ")
}

// Dedup removes candidates whose normalized title was already seen,
// keeping the first occurrence. An empty normalized title never matches
// another, so empty-titled candidates are never merged together.
func Dedup(candidates []models.CandidateEvent) []models.CandidateEvent {
	seen := make(map[string]bool, len(candidates))
	kept := make([]models.CandidateEvent, 0, len(candidates))

	for _, c := range candidates {
		key := normalizeTitle(c.Title)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		kept = append(kept, c)
	}

	return kept
}
