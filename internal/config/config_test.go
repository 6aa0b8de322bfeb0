package config

import (
	"testing"
	"time"

	"log/slog"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS", "SERVER_WRITE_TIMEOUT_SECONDS", "SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL", "LOG_FORMAT",
		"DATABASE_URL",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_TEMPERATURE", "DISCOVERY_TIMEOUT_SECONDS",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "EMAIL_FROM", "EMAIL_FROM_NAME",
		"DIGEST_ENABLED", "DIGEST_WEEKDAY", "DIGEST_HOUR", "DIGEST_BATCH_SIZE", "DIGEST_BATCH_DELAY_SECONDS",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Discovery.Model != defaultDiscoveryModel {
		t.Errorf("expected default discovery model %q, got %q", defaultDiscoveryModel, cfg.Discovery.Model)
	}
	if cfg.Discovery.Timeout != defaultDiscoveryTimeout {
		t.Errorf("expected default discovery timeout %v, got %v", defaultDiscoveryTimeout, cfg.Discovery.Timeout)
	}
	if cfg.Email.SMTPPort != defaultSMTPPort {
		t.Errorf("expected default SMTP port %d, got %d", defaultSMTPPort, cfg.Email.SMTPPort)
	}
	if cfg.Digest.SendWeekday != defaultDigestWeekday {
		t.Errorf("expected default digest weekday %v, got %v", defaultDigestWeekday, cfg.Digest.SendWeekday)
	}
	if cfg.Digest.BatchSize != defaultDigestBatchSize {
		t.Errorf("expected default batch size %d, got %d", defaultDigestBatchSize, cfg.Digest.BatchSize)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                "9090",
		"LOG_LEVEL":                  "debug",
		"LOG_FORMAT":                 "text",
		"OPENAI_MODEL":               "gpt-4o",
		"DISCOVERY_TIMEOUT_SECONDS":  "30",
		"SMTP_PORT":                  "2525",
		"DIGEST_WEEKDAY":             "friday",
		"DIGEST_HOUR":                "18",
		"DIGEST_BATCH_SIZE":          "5",
		"DIGEST_BATCH_DELAY_SECONDS": "10",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected overridden port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level debug, got %v", cfg.Logging.Level)
	}
	if cfg.Discovery.Model != "gpt-4o" {
		t.Errorf("expected discovery model gpt-4o, got %q", cfg.Discovery.Model)
	}
	if cfg.Discovery.Timeout != 30*time.Second {
		t.Errorf("expected discovery timeout 30s, got %v", cfg.Discovery.Timeout)
	}
	if cfg.Email.SMTPPort != 2525 {
		t.Errorf("expected SMTP port 2525, got %d", cfg.Email.SMTPPort)
	}
	if cfg.Digest.SendWeekday != time.Friday {
		t.Errorf("expected digest weekday friday, got %v", cfg.Digest.SendWeekday)
	}
	if cfg.Digest.SendHour != 18 {
		t.Errorf("expected digest hour 18, got %d", cfg.Digest.SendHour)
	}
	if cfg.Digest.BatchSize != 5 {
		t.Errorf("expected batch size 5, got %d", cfg.Digest.BatchSize)
	}
	if cfg.Digest.InterBatchDelay != 10*time.Second {
		t.Errorf("expected inter-batch delay 10s, got %v", cfg.Digest.InterBatchDelay)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad log format", key: "LOG_FORMAT", value: "xml"},
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "negative timeout", key: "SERVER_READ_TIMEOUT_SECONDS", value: "-1"},
		{name: "bad weekday", key: "DIGEST_WEEKDAY", value: "someday"},
		{name: "hour out of range", key: "DIGEST_HOUR", value: "24"},
		{name: "zero batch size", key: "DIGEST_BATCH_SIZE", value: "0"},
		{name: "bad smtp port", key: "SMTP_PORT", value: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
