package discovery

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/citypulse/citypulse/internal/config"
	"github.com/citypulse/citypulse/internal/models"
)

// newTestClient points the OpenAI client at a stub completion endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	apiCfg := openai.DefaultConfig("test-key")
	apiCfg.BaseURL = srv.URL + "/v1"

	return &Client{
		client: openai.NewClientWithConfig(apiCfg),
		cfg: config.DiscoveryConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 1000,
			Timeout:   5 * time.Second,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
}

func completionResponse(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
		})
	}
}

func TestSearchCityParsesEvents(t *testing.T) {
	c := newTestClient(t, completionResponse(`{"events": [{"title": "Jazz Night", "date": "2026-09-15", "location": "Blue Room", "sourceUrl": "https://example.com"}]}`))

	events, raw, err := c.SearchCity(context.Background(), "Hamburg", "profile", nil)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Jazz Night" {
		t.Errorf("unexpected events: %+v", events)
	}
	if raw == "" {
		t.Error("raw response should be returned")
	}
}

func TestSearchCityUnparseableResponse(t *testing.T) {
	c := newTestClient(t, completionResponse("I could not find any structured data, sorry."))

	_, raw, err := c.SearchCity(context.Background(), "Hamburg", "profile", nil)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if KindOf(err) != KindParse {
		t.Errorf("expected parse-classified error, got %v", err)
	}
	if raw == "" {
		t.Error("raw response should still be returned on parse failure")
	}
}

func TestSearchCityAuthFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	})

	_, _, err := c.SearchCity(context.Background(), "Hamburg", "profile", nil)
	if err == nil {
		t.Fatal("expected auth error")
	}
	if KindOf(err) != KindAuth {
		t.Errorf("expected auth-classified error, got %v", err)
	}
}

func TestSearchSourceDefaultsScore(t *testing.T) {
	c := newTestClient(t, completionResponse(`{"events": [
		{"title": "Open Night", "date": "2026-09-15", "location": "Venue", "sourceUrl": "https://venue.example.com"},
		{"title": "Scored Night", "date": "2026-09-16", "location": "Venue", "sourceUrl": "https://venue.example.com", "score": 91}
	]}`))

	events := c.SearchSource(context.Background(), models.EventSource{ID: "s1", URL: "https://venue.example.com"}, "profile")
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Score == nil || *events[0].Score != DefaultSourceScore {
		t.Errorf("missing score should default to %d for source-scoped search", DefaultSourceScore)
	}
	if *events[1].Score != 91 {
		t.Errorf("explicit score changed: %v", *events[1].Score)
	}
}

func TestSearchSourceSwallowsFailures(t *testing.T) {
	t.Run("http failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		events := c.SearchSource(context.Background(), models.EventSource{URL: "https://broken.example.com"}, "")
		if events != nil {
			t.Errorf("expected nil events on failure, got %v", events)
		}
	})

	t.Run("unparseable response", func(t *testing.T) {
		c := newTestClient(t, completionResponse("not json at all"))
		events := c.SearchSource(context.Background(), models.EventSource{URL: "https://broken.example.com"}, "")
		if events != nil {
			t.Errorf("expected nil events on parse failure, got %v", events)
		}
	})
}

func TestGenerateProfile(t *testing.T) {
	c := newTestClient(t, completionResponse("  Enjoys jazz and gallery openings.\n"))

	text, err := c.GenerateProfile(context.Background(), "Hamburg", "jazz, art")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if text != "Enjoys jazz and gallery openings." {
		t.Errorf("expected trimmed profile text, got %q", text)
	}
}
