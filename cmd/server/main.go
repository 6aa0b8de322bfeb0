package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/citypulse/citypulse/internal/api"
	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/config"
	"github.com/citypulse/citypulse/internal/database"
	"github.com/citypulse/citypulse/internal/discovery"
	"github.com/citypulse/citypulse/internal/logging"
	"github.com/citypulse/citypulse/internal/metrics"
	"github.com/citypulse/citypulse/internal/newsletter"
	"github.com/citypulse/citypulse/internal/pipeline"
	"github.com/citypulse/citypulse/internal/scheduler"
	"github.com/citypulse/citypulse/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting citypulse")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL

	logger.Info("connecting to database")
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(ctx, db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := database.NewUserRepository(db)
	profileRepo := database.NewProfileRepository(db)
	exclusionRepo := database.NewExclusionRepository(db)
	sourceRepo := database.NewSourceRepository(db)
	eventRepo := database.NewEventRepository(db)
	newsletterRepo := database.NewNewsletterRepository(db)

	collector, err := metrics.New()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Discovery pipeline and newsletter service
	searcher := discovery.NewClient(cfg.Discovery, logger)
	runner := pipeline.NewRunner(userRepo, profileRepo, exclusionRepo, sourceRepo,
		eventRepo, searcher, collector, logger)
	mailer := newsletter.NewSMTPMailer(cfg.Email, logger)
	digests := newsletter.NewService(runner, userRepo, newsletterRepo, mailer, collector, logger)

	// HTTP surface
	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context(), db); err != nil {
			logger.Error("health check failed", "error", err)
			http.Error(w, `{"status":"unhealthy"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"citypulse","status":"ready","version":"0.1.0"}`))
	})

	mux.Handle("/metrics", collector.Handler())

	api.SetupRoutes(mux, api.Stores{
		Users:       userRepo,
		Profiles:    profileRepo,
		Exclusions:  exclusionRepo,
		Sources:     sourceRepo,
		Newsletters: newsletterRepo,
		Events:      eventRepo,
	}, digests, authConfig, logger)

	// Weekly digest scheduler
	if cfg.Digest.Enabled {
		digestScheduler := scheduler.NewDigestScheduler(cfg.Digest, userRepo, newsletterRepo, digests, logger)
		go digestScheduler.Start(ctx)
		defer digestScheduler.Stop()
	} else {
		logger.Info("digest scheduler disabled")
	}

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("citypulse stopped")
}
