package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/citypulse/citypulse/internal/config"
	"github.com/citypulse/citypulse/internal/models"
)

// Default relevance scores for events the model returns without one.
// City-wide results start neutral; events from a user-chosen source start
// higher because the user explicitly asked for that site.
const (
	DefaultGeneralScore = 50
	DefaultSourceScore  = 75
)

// Searcher finds candidate events for a user.
type Searcher interface {
	// SearchCity runs the broad city-wide search. It also returns the raw
	// model response for diagnostics. A failure here is fatal to the run.
	SearchCity(ctx context.Context, city, profile string, sources []models.EventSource) ([]models.CandidateEvent, string, error)

	// SearchSource searches a single user-registered site. Failures are
	// logged and swallowed; the result is simply empty.
	SearchSource(ctx context.Context, source models.EventSource, profile string) []models.CandidateEvent

	// GenerateProfile synthesizes an interest profile from raw preferences.
	GenerateProfile(ctx context.Context, city, preferences string) (string, error)
}

// Client is the OpenAI-backed Searcher.
type Client struct {
	client *openai.Client
	cfg    config.DiscoveryConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewClient(cfg config.DiscoveryConfig, logger *slog.Logger) *Client {
	return &Client{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SearchCity runs the city-wide discovery prompt.
func (c *Client) SearchCity(ctx context.Context, city, profile string, sources []models.EventSource) ([]models.CandidateEvent, string, error) {
	prompt := buildCityPrompt(city, profile, sources, c.now())

	raw, err := c.complete(ctx, systemPrompt, prompt, true)
	if err != nil {
		return nil, "", classify("city_search", err)
	}

	events, err := ParseEvents(raw)
	if err != nil {
		return nil, raw, parseError("city_search", err)
	}

	c.logger.Info("city search complete", "city", city, "events", len(events))
	return events, raw, nil
}

// SearchSource searches one registered site. Any failure yields an empty
// result so one broken site cannot sink the whole run.
func (c *Client) SearchSource(ctx context.Context, source models.EventSource, profile string) []models.CandidateEvent {
	prompt := buildSourcePrompt(source, profile, c.now())

	raw, err := c.complete(ctx, systemPrompt, prompt, true)
	if err != nil {
		c.logger.Warn("source search failed, skipping source",
			"source_id", source.ID,
			"url", source.URL,
			"error", err)
		return nil
	}

	events, err := ParseEvents(raw)
	if err != nil {
		c.logger.Warn("source search returned unparseable response, skipping source",
			"source_id", source.ID,
			"url", source.URL,
			"error", err)
		return nil
	}

	for i := range events {
		if events[i].Score == nil {
			score := float64(DefaultSourceScore)
			events[i].Score = &score
		}
	}

	c.logger.Info("source search complete", "url", source.URL, "events", len(events))
	return events
}

// GenerateProfile turns raw user preferences into newsletter profile text.
func (c *Client) GenerateProfile(ctx context.Context, city, preferences string) (string, error) {
	raw, err := c.complete(ctx, profileSystemPrompt, buildProfilePrompt(city, preferences), false)
	if err != nil {
		return "", fmt.Errorf("profile generation failed: %w", err)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("profile generation returned empty response")
	}
	return text, nil
}

// complete issues a chat completion with a per-call timeout and retries on
// rate limiting with exponential backoff plus jitter.
func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	const maxRetries = 3
	baseDelay := 1 * time.Second

	request := openai.ChatCompletionRequest{
		Model:               c.cfg.Model,
		Temperature:         c.cfg.Temperature,
		MaxCompletionTokens: c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		apiCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		resp, err = c.client.CreateChatCompletion(apiCtx, request)
		cancel()

		if err == nil {
			break
		}

		if !isRateLimited(err) || attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<uint(attempt))
		delay += time.Duration(rand.Intn(500)) * time.Millisecond
		c.logger.Warn("rate limited, retrying with backoff",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds())
		time.Sleep(delay)
	}

	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned from model %s", c.cfg.Model)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response from model %s (finish_reason: %s)", c.cfg.Model, resp.Choices[0].FinishReason)
	}
	return content, nil
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	return strings.Contains(err.Error(), "429") || strings.Contains(err.Error(), "Rate limit")
}
