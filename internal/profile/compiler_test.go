package profile

import (
	"fmt"
	"strings"
	"testing"

	"github.com/citypulse/citypulse/internal/models"
)

func TestCompileNoRules(t *testing.T) {
	base := "Likes jazz and street food."
	if got := Compile(base, nil); got != base {
		t.Errorf("expected base text unchanged, got %q", got)
	}
}

func TestCompileGroupsHardExclusions(t *testing.T) {
	rules := []models.ExclusionRule{
		{Type: models.ExclusionVenue, Value: "The Dungeon"},
		{Type: models.ExclusionOrganizer, Value: "MegaCorp Events"},
		{Type: models.ExclusionArtist, Value: "DJ Noise"},
		{Type: models.ExclusionOrganizer, Value: "SpamFest Inc"},
	}

	got := Compile("Base profile.", rules)

	if !strings.HasPrefix(got, "Base profile.") {
		t.Fatalf("compiled profile should start with base text, got %q", got)
	}
	for _, want := range []string{
		"organizers:\n- MegaCorp Events\n- SpamFest Inc",
		"artists:\n- DJ Noise",
		"venues:\n- The Dungeon",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("compiled profile missing %q:\n%s", want, got)
		}
	}

	orgIdx := strings.Index(got, "organizers")
	artIdx := strings.Index(got, "artists")
	venIdx := strings.Index(got, "venues")
	if !(orgIdx < artIdx && artIdx < venIdx) {
		t.Errorf("exclusion groups out of order: organizers=%d artists=%d venues=%d", orgIdx, artIdx, venIdx)
	}
}

func TestCompileEventRulesAreSoft(t *testing.T) {
	rules := []models.ExclusionRule{
		{Type: models.ExclusionEvent, Value: "Weekly pub quiz|2026-08-01|The Crown"},
	}

	got := Compile("Base.", rules)

	if !strings.Contains(got, "- Weekly pub quiz\n") {
		t.Errorf("event rule should contribute only the title phrase:\n%s", got)
	}
	if strings.Contains(got, "2026-08-01") || strings.Contains(got, "The Crown") {
		t.Errorf("event rule metadata leaked into profile:\n%s", got)
	}
	if !strings.Contains(got, "15-20 points lower") {
		t.Errorf("event rules should demote, not exclude:\n%s", got)
	}
	if !strings.Contains(got, "do not exclude them outright") {
		t.Errorf("missing soft-exclusion wording:\n%s", got)
	}
}

func TestCompileCapsEventRules(t *testing.T) {
	var rules []models.ExclusionRule
	for i := 0; i < 25; i++ {
		rules = append(rules, models.ExclusionRule{
			Type:  models.ExclusionEvent,
			Value: fmt.Sprintf("event %d", i),
		})
	}

	got := Compile("Base.", rules)

	if !strings.Contains(got, "- event 0\n") || !strings.Contains(got, "- event 14\n") {
		t.Errorf("expected the first %d rules to be kept:\n%s", models.EventRulePromptLimit, got)
	}
	if strings.Contains(got, "- event 15\n") {
		t.Errorf("expected rules beyond the limit to be dropped:\n%s", got)
	}
}
