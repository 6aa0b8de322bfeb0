// Package profile compiles a user's stored interest profile together with
// their exclusion rules into the text handed to the discovery model.
package profile

import (
	"fmt"
	"strings"

	"github.com/citypulse/citypulse/internal/models"
)

var exclusionHeadings = map[models.ExclusionType]string{
	models.ExclusionOrganizer: "Never include events by these organizers",
	models.ExclusionArtist:    "Never include events featuring these artists",
	models.ExclusionVenue:     "Never include events at these venues",
}

// hard exclusion types in the order they appear in the compiled profile
var hardExclusionOrder = []models.ExclusionType{
	models.ExclusionOrganizer,
	models.ExclusionArtist,
	models.ExclusionVenue,
}

// Compile appends exclusion instructions to the base profile text. With no
// rules the base text is returned unchanged.
func Compile(base string, rules []models.ExclusionRule) string {
	if len(rules) == 0 {
		return base
	}

	grouped := make(map[models.ExclusionType][]string)
	var eventRules []models.ExclusionRule
	for _, r := range rules {
		if r.Type == models.ExclusionEvent {
			eventRules = append(eventRules, r)
			continue
		}
		grouped[r.Type] = append(grouped[r.Type], r.Value)
	}

	var b strings.Builder
	b.WriteString(base)

	for _, typ := range hardExclusionOrder {
		values := grouped[typ]
		if len(values) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n%s:\n", exclusionHeadings[typ])
		for _, v := range values {
			fmt.Fprintf(&b, "- %s\n", v)
		}
	}

	if len(eventRules) > 0 {
		// Rules arrive newest first from storage; keep only the most
		// recent handful so the prompt stays bounded.
		if len(eventRules) > models.EventRulePromptLimit {
			eventRules = eventRules[:models.EventRulePromptLimit]
		}
		b.WriteString("\n\nThe reader recently dismissed events like the following. Rank similar events 15-20 points lower, but do not exclude them outright:\n")
		for _, r := range eventRules {
			fmt.Fprintf(&b, "- %s\n", r.Phrase())
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
