// Package pipeline turns raw discovery results into the bounded, ranked
// event list a newsletter is built from.
package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/citypulse/citypulse/internal/models"
)

// Normalize filters out candidates that are unusable: missing a required
// field, carrying an unparseable date, or dated today or earlier. Only
// events starting tomorrow or later survive. Order is preserved.
func Normalize(candidates []models.CandidateEvent, runTime time.Time, logger *slog.Logger) []models.CandidateEvent {
	tomorrow := calendarDay(runTime).AddDate(0, 0, 1)

	var missingFields, badDates, pastDates int
	kept := make([]models.CandidateEvent, 0, len(candidates))

	for _, c := range candidates {
		if strings.TrimSpace(c.Title) == "" ||
			strings.TrimSpace(c.Location) == "" ||
			strings.TrimSpace(c.SourceURL) == "" {
			missingFields++
			continue
		}

		date, err := c.ParsedDate()
		if err != nil {
			badDates++
			continue
		}
		if calendarDay(date).Before(tomorrow) {
			pastDates++
			continue
		}

		kept = append(kept, c)
	}

	if dropped := len(candidates) - len(kept); dropped > 0 {
		logger.Info("normalization dropped candidates",
			"total", len(candidates),
			"kept", len(kept),
			"missing_fields", missingFields,
			"unparseable_dates", badDates,
			"past_or_same_day", pastDates)
	}

	return kept
}

// calendarDay truncates to the wall-clock date, ignoring time zone, so a
// candidate's "2006-01-02" date compares cleanly against the run time.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
