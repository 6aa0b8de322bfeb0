// Package api wires the HTTP surface: auth, account settings, exclusion
// rules, event sources, and newsletter generation.
package api

import (
	"log/slog"
	"net/http"

	"github.com/citypulse/citypulse/internal/auth"
)

// Stores bundles the persistence surfaces the API serves.
type Stores struct {
	Users interface {
		UserAccountStore
		UserSettingsStore
	}
	Profiles    PreferenceStore
	Exclusions  ExclusionStore
	Sources     SourceStore
	Newsletters NewsletterStore
	Events      EventLister
}

// SetupRoutes configures all API routes on the mux.
func SetupRoutes(mux *http.ServeMux, stores Stores, generator DigestGenerator,
	authConfig auth.Config, logger *slog.Logger) {
	authHandler := NewAuthHandler(stores.Users, authConfig, logger)
	preferenceHandler := NewPreferenceHandler(stores.Users, stores.Profiles, logger)
	exclusionHandler := NewExclusionHandler(stores.Exclusions, logger)
	sourceHandler := NewSourceHandler(stores.Sources, stores.Profiles, logger)
	newsletterHandler := NewNewsletterHandler(generator, stores.Newsletters, stores.Events, logger)

	protect := auth.Middleware(authConfig)
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protect(fn))
	}

	// Public routes
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)

	// Account and preferences
	handle("/api/account", preferenceHandler.Account)
	handle("/api/account/city", preferenceHandler.SetCity)
	handle("/api/account/preferences", preferenceHandler.SetPreferences)

	// Exclusion rules
	handle("/api/exclusions", exclusionHandler.Collection)
	handle("/api/exclusions/", exclusionHandler.Item)

	// Event sources
	handle("/api/sources", sourceHandler.Collection)
	handle("/api/sources/", sourceHandler.Item)

	// Events and newsletters
	handle("/api/events", newsletterHandler.Events)
	handle("/api/newsletters", newsletterHandler.List)
	handle("/api/newsletters/latest", newsletterHandler.Latest)
	handle("/api/newsletters/generate", newsletterHandler.Generate)
}
