package discovery

import (
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"events": []}`,
			want:  `{"events": []}`,
		},
		{
			name:  "bare array",
			input: `[{"title": "Jazz Night"}]`,
			want:  `[{"title": "Jazz Night"}]`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"events\": []}\n```",
			want:  `{"events": []}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"events\": []}\n```",
			want:  `{"events": []}`,
		},
		{
			name:  "surrounding prose",
			input: "Here are the events:\n{\"events\": [{\"title\": \"x\"}]}\nEnjoy!",
			want:  `{"events": [{"title": "x"}]}`,
		},
		{
			name:    "empty input",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "no json at all",
			input:   "I could not find any events.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseEventsEnvelope(t *testing.T) {
	raw := "```json\n" + `{
		"events": [
			{"title": "Jazz Night", "date": "2026-09-05", "location": "Blue Room", "sourceUrl": "https://example.com/jazz", "score": 80},
			{"title": "Art Walk", "date": "2026-09-06", "location": "Old Town", "sourceUrl": "https://example.com/art"}
		]
	}` + "\n```"

	events, err := ParseEvents(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "Jazz Night" {
		t.Errorf("unexpected title: %q", events[0].Title)
	}
	if events[0].Score == nil || *events[0].Score != 80 {
		t.Errorf("expected score 80, got %v", events[0].Score)
	}
	if events[1].Score != nil {
		t.Errorf("expected nil score when omitted, got %v", *events[1].Score)
	}
}

func TestParseEventsArrayRoot(t *testing.T) {
	raw := `[{"title": "Jazz Night", "date": "2026-09-05", "location": "Blue Room", "sourceUrl": "https://example.com/jazz"}]`

	events, err := ParseEvents(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestParseEventsInvalid(t *testing.T) {
	_, err := ParseEvents(`{"events": "not an array"}`)
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("unexpected error message: %v", err)
	}
}
