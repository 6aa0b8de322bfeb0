package pipeline

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/citypulse/citypulse/internal/models"
)

func candidate(title, date, location string) models.CandidateEvent {
	return models.CandidateEvent{
		Title:     title,
		Date:      date,
		Location:  location,
		SourceURL: "https://example.com/events",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Run time used across tests: mid-morning so the midnight truncation matters.
var runTime = time.Date(2026, 9, 10, 10, 30, 0, 0, time.UTC)

func TestNormalizeDropsMissingFields(t *testing.T) {
	missingSource := candidate("Concert", "2026-09-15", "Town Hall")
	missingSource.SourceURL = "  "

	candidates := []models.CandidateEvent{
		candidate("", "2026-09-15", "Town Hall"),
		candidate("   ", "2026-09-15", "Town Hall"),
		candidate("Concert", "2026-09-15", ""),
		missingSource,
		candidate("Concert", "2026-09-15", "Town Hall"),
	}

	kept := Normalize(candidates, runTime, discardLogger())
	if len(kept) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(kept))
	}
	if kept[0].Title != "Concert" || kept[0].Location != "Town Hall" {
		t.Errorf("wrong survivor: %+v", kept[0])
	}
}

func TestNormalizeDateThreshold(t *testing.T) {
	tests := []struct {
		name string
		date string
		keep bool
	}{
		{"past event dropped", "2026-09-01", false},
		{"today dropped", "2026-09-10", false},
		{"tomorrow kept", "2026-09-11", true},
		{"next month kept", "2026-10-05", true},
		{"unparseable date dropped", "next friday", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := Normalize([]models.CandidateEvent{candidate("Event", tt.date, "Venue")}, runTime, discardLogger())
			if got := len(kept) == 1; got != tt.keep {
				t.Errorf("date %q: kept=%v, want %v", tt.date, got, tt.keep)
			}
		})
	}
}

func TestNormalizeLateEveningRun(t *testing.T) {
	// 23:59 still counts as today; tomorrow's events survive.
	lateRun := time.Date(2026, 9, 10, 23, 59, 0, 0, time.UTC)
	kept := Normalize([]models.CandidateEvent{candidate("Event", "2026-09-11", "Venue")}, lateRun, discardLogger())
	if len(kept) != 1 {
		t.Error("tomorrow's event should survive a late-evening run")
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	candidates := []models.CandidateEvent{
		candidate("First", "2026-09-12", "A"),
		candidate("Dropped", "2026-09-01", "B"),
		candidate("Second", "2026-09-13", "C"),
		candidate("Third", "2026-09-14", "D"),
	}

	kept := Normalize(candidates, runTime, discardLogger())
	want := []string{"First", "Second", "Third"}
	if len(kept) != len(want) {
		t.Fatalf("expected %d survivors, got %d", len(want), len(kept))
	}
	for i, title := range want {
		if kept[i].Title != title {
			t.Errorf("position %d: expected %q, got %q", i, title, kept[i].Title)
		}
	}
}
