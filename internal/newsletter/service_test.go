package newsletter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/citypulse/citypulse/internal/models"
	"github.com/citypulse/citypulse/internal/pipeline"
)

type fakeRunner struct {
	result *pipeline.Result
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, userID string) (*pipeline.Result, error) {
	return f.result, f.err
}

type fakeUserStore struct {
	user *models.User
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.user, nil
}

type fakeNewsletterStore struct {
	created *models.Newsletter
	sentID  string
}

func (f *fakeNewsletterStore) Create(ctx context.Context, n *models.Newsletter) error {
	n.ID = "nl-1"
	f.created = n
	return nil
}

func (f *fakeNewsletterStore) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	f.sentID = id
	return nil
}

type fakeMailer struct {
	sentTo  string
	subject string
	err     error
}

func (f *fakeMailer) Send(to, subject, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sentTo = to
	f.subject = subject
	return nil
}

func testUser() *models.User {
	city := "Hamburg"
	return &models.User{ID: "user-1", Email: "reader@example.com", City: &city, Active: true}
}

func testRunResult() *pipeline.Result {
	return &pipeline.Result{
		Events: []models.Event{
			{ID: "ev-1", Title: "Jazz Night", Date: time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
				Location: "Blue Room", SourceURL: "https://example.com/jazz"},
			{ID: "ev-2", Title: "Open Air Cinema", Date: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
				Location: "Stadtpark", SourceURL: "https://example.com/cinema"},
		},
		RawResponse: `{"events": []}`,
	}
}

func TestGenerateStoresNewsletter(t *testing.T) {
	store := &fakeNewsletterStore{}
	mailer := &fakeMailer{}
	svc := NewService(&fakeRunner{result: testRunResult()}, &fakeUserStore{user: testUser()},
		store, mailer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := svc.Generate(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if store.created == nil {
		t.Fatal("newsletter was not stored")
	}
	if len(store.created.EventIDs) != 2 || store.created.EventIDs[0] != "ev-1" {
		t.Errorf("event IDs not stored in rank order: %v", store.created.EventIDs)
	}
	if mailer.sentTo != "" {
		t.Error("mail should not be sent when send=false")
	}
	if result.RawResponse == "" {
		t.Error("raw discovery response should be carried through")
	}
}

func TestGenerateSendsAndMarksSent(t *testing.T) {
	store := &fakeNewsletterStore{}
	mailer := &fakeMailer{}
	svc := NewService(&fakeRunner{result: testRunResult()}, &fakeUserStore{user: testUser()},
		store, mailer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := svc.Generate(context.Background(), "user-1", true)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if mailer.sentTo != "reader@example.com" {
		t.Errorf("mail sent to %q", mailer.sentTo)
	}
	if store.sentID != "nl-1" {
		t.Error("newsletter was not marked sent")
	}
	if result.Newsletter.SentAt == nil {
		t.Error("sent time should be set on the returned newsletter")
	}
}

func TestGenerateDeliveryFailureKeepsNewsletter(t *testing.T) {
	store := &fakeNewsletterStore{}
	mailer := &fakeMailer{err: errors.New("relay refused")}
	svc := NewService(&fakeRunner{result: testRunResult()}, &fakeUserStore{user: testUser()},
		store, mailer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Generate(context.Background(), "user-1", true)
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if store.created == nil {
		t.Error("newsletter should be stored even when delivery fails")
	}
	if store.sentID != "" {
		t.Error("failed delivery must not mark the newsletter sent")
	}
}

func TestGeneratePropagatesRunError(t *testing.T) {
	svc := NewService(&fakeRunner{err: pipeline.ErrNoEvents}, &fakeUserStore{user: testUser()},
		&fakeNewsletterStore{}, &fakeMailer{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Generate(context.Background(), "user-1", true)
	if !errors.Is(err, pipeline.ErrNoEvents) {
		t.Errorf("expected ErrNoEvents, got %v", err)
	}
}
