package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/citypulse/citypulse/internal/discovery"
	"github.com/citypulse/citypulse/internal/metrics"
	"github.com/citypulse/citypulse/internal/models"
	"github.com/citypulse/citypulse/internal/profile"
)

// Precondition and terminal conditions surfaced to callers. These map to
// 4xx responses at the API boundary; infrastructure failures stay 5xx.
var (
	ErrNoCity    = errors.New("no city set for user")
	ErrNoProfile = errors.New("no preference profile available for user")
	ErrNoEvents  = errors.New("no valid events found")
)

// UserStore is the subscriber lookup surface the runner needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ProfileStore is the preference/profile surface the runner needs.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	SetText(ctx context.Context, userID, text string) error
}

// ExclusionStore lists a user's exclusion rules, newest first.
type ExclusionStore interface {
	List(ctx context.Context, userID string) ([]models.ExclusionRule, error)
}

// SourceStore lists a user's registered event sources.
type SourceStore interface {
	List(ctx context.Context, userID string) ([]models.EventSource, error)
}

// EventStore persists selected events.
type EventStore interface {
	Upsert(ctx context.Context, event *models.Event) (*models.Event, error)
}

// Result is one completed discovery run: the persisted events in rank
// order plus the raw city-search response for diagnostics.
type Result struct {
	Events      []models.Event
	RawResponse string
}

// Runner executes the full discovery pipeline for one user.
type Runner struct {
	users      UserStore
	profiles   ProfileStore
	exclusions ExclusionStore
	sources    SourceStore
	events     EventStore
	searcher   discovery.Searcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewRunner(users UserStore, profiles ProfileStore, exclusions ExclusionStore,
	sources SourceStore, events EventStore, searcher discovery.Searcher,
	m *metrics.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		users:      users,
		profiles:   profiles,
		exclusions: exclusions,
		sources:    sources,
		events:     events,
		searcher:   searcher,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Run discovers, filters, ranks, and persists events for one user. The
// city-wide search is load-bearing: its failure aborts the run. Individual
// source searches degrade to empty results inside the searcher.
func (r *Runner) Run(ctx context.Context, userID string) (*Result, error) {
	start := r.now()
	logger := r.logger.With("user_id", userID)

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	if user.City == nil || *user.City == "" {
		return nil, ErrNoCity
	}
	city := *user.City

	baseProfile, err := r.effectiveBaseProfile(ctx, userID, city)
	if err != nil {
		return nil, err
	}

	rules, err := r.exclusions.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusion rules: %w", err)
	}
	effective := profile.Compile(baseProfile, rules)

	sources, err := r.sources.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event sources: %w", err)
	}

	candidates, raw, err := r.searcher.SearchCity(ctx, city, effective, sources)
	if err != nil {
		r.metrics.DiscoveryFailure(string(discovery.KindOf(err)))
		return nil, err
	}

	for _, source := range sources {
		candidates = append(candidates, r.searcher.SearchSource(ctx, source, effective)...)
	}
	logger.Info("discovery complete", "city", city, "sources", len(sources), "candidates", len(candidates))

	selected := r.selectEvents(candidates, rules, logger)
	if len(selected) == 0 {
		return nil, ErrNoEvents
	}

	persisted := make([]models.Event, 0, len(selected))
	for _, c := range selected {
		event, err := r.upsertCandidate(ctx, userID, c)
		if err != nil {
			return nil, fmt.Errorf("failed to persist event %q: %w", c.Title, err)
		}
		persisted = append(persisted, *event)
	}

	r.metrics.DiscoveryRun(len(persisted), r.now().Sub(start))
	logger.Info("discovery run complete",
		"selected", len(persisted),
		"duration_ms", r.now().Sub(start).Milliseconds())

	return &Result{Events: persisted, RawResponse: raw}, nil
}

// effectiveBaseProfile returns the user's synthesized profile text,
// regenerating it first when stale.
func (r *Runner) effectiveBaseProfile(ctx context.Context, userID, city string) (string, error) {
	p, err := r.profiles.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return "", ErrNoProfile
	}

	if !p.Dirty && p.Text != nil && *p.Text != "" {
		return *p.Text, nil
	}

	if p.Preferences == nil || *p.Preferences == "" {
		return "", ErrNoProfile
	}

	text, err := r.searcher.GenerateProfile(ctx, city, *p.Preferences)
	if err != nil {
		return "", fmt.Errorf("profile regeneration failed: %w", err)
	}
	if text == "" {
		return "", ErrNoProfile
	}
	if err := r.profiles.SetText(ctx, userID, text); err != nil {
		return "", err
	}
	return text, nil
}

// selectEvents runs the pure pipeline stages in order.
func (r *Runner) selectEvents(candidates []models.CandidateEvent, rules []models.ExclusionRule, logger *slog.Logger) []models.CandidateEvent {
	normalized := Normalize(candidates, r.now(), logger)
	deduped := Dedup(normalized)
	scored := SortByScore(DefaultScores(deduped))
	filtered := ApplyExclusions(scored, rules)
	capped := CapCategories(filtered)
	final := CapTotal(capped, filtered)

	logger.Info("selection complete",
		"normalized", len(normalized),
		"deduped", len(deduped),
		"after_exclusions", len(filtered),
		"final", len(final))
	return final
}

func (r *Runner) upsertCandidate(ctx context.Context, userID string, c models.CandidateEvent) (*models.Event, error) {
	date, err := c.ParsedDate()
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		UserID:      userID,
		Title:       c.Title,
		Description: c.Description,
		Date:        date,
		Time:        c.Time,
		Location:    c.Location,
		Category:    c.Category,
		SourceURL:   c.SourceURL,
		ImageURL:    c.ImageURL,
		Score:       int(math.Round(scoreOf(c))),
		Organizer:   c.Organizer,
		Artist:      c.Artist,
		Venue:       c.Venue,
	}
	return r.events.Upsert(ctx, event)
}
