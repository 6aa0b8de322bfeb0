package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type migration struct {
	version string
	sql     string
}

// migrations run in order; never edit an applied entry, append a new one.
var migrations = []migration{
	{
		version: "001_users",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				city TEXT,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`,
	},
	{
		version: "002_profiles",
		sql: `
			CREATE TABLE IF NOT EXISTS profiles (
				user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
				preferences TEXT,
				profile_text TEXT,
				dirty BOOLEAN NOT NULL DEFAULT FALSE,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`,
	},
	{
		version: "003_exclusion_rules",
		sql: `
			CREATE TABLE IF NOT EXISTS exclusion_rules (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				rule_type TEXT NOT NULL,
				value TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (user_id, rule_type, value)
			)
		`,
	},
	{
		version: "004_event_sources",
		sql: `
			CREATE TABLE IF NOT EXISTS event_sources (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				url TEXT NOT NULL,
				name TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (user_id, url)
			)
		`,
	},
	{
		version: "005_events",
		sql: `
			CREATE TABLE IF NOT EXISTS events (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				description TEXT,
				event_date DATE NOT NULL,
				event_time TEXT,
				location TEXT NOT NULL,
				category TEXT,
				source_url TEXT NOT NULL,
				image_url TEXT,
				score INTEGER NOT NULL DEFAULT 50,
				organizer TEXT,
				artist TEXT,
				venue TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (user_id, title, event_date, location)
			)
		`,
	},
	{
		version: "006_newsletters",
		sql: `
			CREATE TABLE IF NOT EXISTS newsletters (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				subject TEXT NOT NULL,
				html TEXT NOT NULL,
				event_ids UUID[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				sent_at TIMESTAMPTZ
			)
		`,
	},
}

// RunMigrations applies all pending migrations in order, tracking applied
// versions in the schema_migrations table.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Info("checking for pending database migrations")

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	pending := 0
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}

		pending++
		logger.Info("applying migration", "version", m.version)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for %s: %w", m.version, err)
		}

		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.version, err)
		}

		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.version, err)
		}
	}

	if pending == 0 {
		logger.Info("no pending migrations found")
	} else {
		logger.Info("migrations completed", "count", pending)
	}

	return nil
}
