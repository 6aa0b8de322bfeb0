// Package scheduler runs the weekly digest batch job.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/citypulse/citypulse/internal/config"
	"github.com/citypulse/citypulse/internal/models"
	"github.com/citypulse/citypulse/internal/newsletter"
)

// UserLister returns the subscribers eligible for the weekly digest.
type UserLister interface {
	ListActive(ctx context.Context) ([]models.User, error)
}

// SentChecker reports whether a user already received a digest recently.
type SentChecker interface {
	SentSince(ctx context.Context, userID string, since time.Time) (bool, error)
}

// Generator produces and delivers one user's digest.
type Generator interface {
	Generate(ctx context.Context, userID string, send bool) (*newsletter.Result, error)
}

// DigestScheduler manages the weekly newsletter send. Users are processed
// in fixed-size batches with a delay between batches so the discovery and
// mail relays are not hit all at once. One user's failure is logged and
// never aborts the batch.
type DigestScheduler struct {
	cfg           config.DigestConfig
	users         UserLister
	sent          SentChecker
	generator     Generator
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
	now           func() time.Time
	sleep         func(time.Duration)
}

// NewDigestScheduler creates a new weekly digest scheduler.
func NewDigestScheduler(cfg config.DigestConfig, users UserLister, sent SentChecker,
	generator Generator, logger *slog.Logger) *DigestScheduler {
	return &DigestScheduler{
		cfg:           cfg,
		users:         users,
		sent:          sent,
		generator:     generator,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: 1 * time.Minute,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// Start begins the scheduler loop.
func (s *DigestScheduler) Start(ctx context.Context) {
	s.logger.Info("starting digest scheduler",
		"weekday", s.cfg.SendWeekday.String(),
		"hour", s.cfg.SendHour,
		"batch_size", s.cfg.BatchSize)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.due(s.now()) {
				s.runBatches(ctx)
			}
		case <-s.stopChan:
			s.logger.Info("digest scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("digest scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler.
func (s *DigestScheduler) Stop() {
	close(s.stopChan)
}

// due reports whether now falls inside the configured send window.
func (s *DigestScheduler) due(now time.Time) bool {
	return now.Weekday() == s.cfg.SendWeekday && now.Hour() == s.cfg.SendHour
}

// runBatches sends the weekly digest to every active user who has not
// already received one this cycle.
func (s *DigestScheduler) runBatches(ctx context.Context) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list active users for digest", "error", err)
		return
	}
	if len(users) == 0 {
		return
	}

	// Treat anything sent in the last six days as this cycle's send, so
	// repeated ticks inside the send hour do not double-deliver.
	cycleStart := s.now().Add(-6 * 24 * time.Hour)

	s.logger.Info("starting weekly digest run", "users", len(users))

	processed, failed := 0, 0
	for start := 0; start < len(users); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(users) {
			end = len(users)
		}

		for _, user := range users[start:end] {
			already, err := s.sent.SentSince(ctx, user.ID, cycleStart)
			if err != nil {
				s.logger.Error("failed to check sent newsletters", "user_id", user.ID, "error", err)
				failed++
				continue
			}
			if already {
				continue
			}

			if _, err := s.generator.Generate(ctx, user.ID, true); err != nil {
				s.logger.Error("digest generation failed for user",
					"user_id", user.ID,
					"error", err)
				failed++
				continue
			}
			processed++
		}

		if end < len(users) {
			s.sleep(s.cfg.InterBatchDelay)
		}
	}

	s.logger.Info("weekly digest run complete",
		"sent", processed,
		"failed", failed,
		"total", len(users))
}
