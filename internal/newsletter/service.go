package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/citypulse/citypulse/internal/metrics"
	"github.com/citypulse/citypulse/internal/models"
	"github.com/citypulse/citypulse/internal/pipeline"
)

// Runner produces the ranked, persisted event list for one user.
type Runner interface {
	Run(ctx context.Context, userID string) (*pipeline.Result, error)
}

// UserStore is the subscriber lookup surface the service needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Store persists generated newsletters.
type Store interface {
	Create(ctx context.Context, n *models.Newsletter) error
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
}

// Result is one generated digest plus the audit trail from discovery.
type Result struct {
	Newsletter  *models.Newsletter
	Events      []models.Event
	RawResponse string
}

// Service generates and delivers digests: it runs the discovery pipeline,
// renders the selected events, stores the newsletter, and optionally
// emails it.
type Service struct {
	runner      Runner
	users       UserStore
	newsletters Store
	mailer      Mailer
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(runner Runner, users UserStore, newsletters Store, mailer Mailer,
	m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		runner:      runner,
		users:       users,
		newsletters: newsletters,
		mailer:      mailer,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate runs discovery for the user and stores the rendered digest.
// When send is true the digest is also emailed; a delivery failure is
// returned after the newsletter row is already stored, so a retry can
// re-send without re-running discovery.
func (s *Service) Generate(ctx context.Context, userID string, send bool) (*Result, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	run, err := s.runner.Run(ctx, userID)
	if err != nil {
		return nil, err
	}

	city := ""
	if user.City != nil {
		city = *user.City
	}

	subject, html, err := Assemble(city, run.Events, s.now())
	if err != nil {
		return nil, err
	}

	eventIDs := make([]string, 0, len(run.Events))
	for _, e := range run.Events {
		eventIDs = append(eventIDs, e.ID)
	}

	n := &models.Newsletter{
		UserID:   userID,
		Subject:  subject,
		HTML:     html,
		EventIDs: eventIDs,
	}
	if err := s.newsletters.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to store newsletter: %w", err)
	}

	s.logger.Info("newsletter generated",
		"user_id", userID,
		"newsletter_id", n.ID,
		"events", len(eventIDs))

	if send {
		if err := s.mailer.Send(user.Email, subject, html); err != nil {
			return nil, fmt.Errorf("newsletter %s stored but delivery failed: %w", n.ID, err)
		}
		sentAt := s.now()
		if err := s.newsletters.MarkSent(ctx, n.ID, sentAt); err != nil {
			return nil, err
		}
		n.SentAt = &sentAt
		s.metrics.NewsletterSent()
	}

	return &Result{Newsletter: n, Events: run.Events, RawResponse: run.RawResponse}, nil
}
