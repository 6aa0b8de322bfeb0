package discovery

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/citypulse/citypulse/internal/models"
)

var (
	fencedJSONRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\[{].+[\\]}])\\s*```")
	rawObjectRegex  = regexp.MustCompile(`(?s)\{.+\}`)
	rawArrayRegex   = regexp.MustCompile(`(?s)\[.+\]`)
)

// eventPayload is the envelope the model is instructed to produce.
type eventPayload struct {
	Events []models.CandidateEvent `json:"events"`
}

// ExtractJSON pulls the JSON document out of a model response, tolerating
// markdown fences and surrounding prose.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("empty response")
	}

	if m := fencedJSONRegex.FindStringSubmatch(trimmed); len(m) > 1 {
		return m[1], nil
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return trimmed, nil
	}
	if m := rawObjectRegex.FindString(trimmed); m != "" {
		return m, nil
	}
	if m := rawArrayRegex.FindString(trimmed); m != "" {
		return m, nil
	}
	return "", fmt.Errorf("no JSON document in response")
}

// ParseEvents decodes candidate events from a model response. Accepts both
// the {"events": [...]} envelope and a bare array at the root.
func ParseEvents(text string) ([]models.CandidateEvent, error) {
	doc, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(doc, "[") {
		var events []models.CandidateEvent
		if err := json.Unmarshal([]byte(doc), &events); err != nil {
			return nil, fmt.Errorf("failed to parse event array: %w", err)
		}
		return events, nil
	}

	var payload eventPayload
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	return payload.Events, nil
}
