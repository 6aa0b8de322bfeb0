package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Database  DatabaseConfig
	Discovery DiscoveryConfig
	Email     EmailConfig
	Digest    DigestConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	URL string
}

// DiscoveryConfig holds parameters for the AI search endpoint.
type DiscoveryConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration // per discovery call
}

// EmailConfig holds SMTP delivery parameters for outbound newsletters.
type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// DigestConfig holds weekly batch job parameters.
type DigestConfig struct {
	Enabled         bool
	SendWeekday     time.Weekday
	SendHour        int
	BatchSize       int
	InterBatchDelay time.Duration
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultDiscoveryModel   = "gpt-4o-mini"
	defaultDiscoveryTimeout = 60 * time.Second
	defaultDiscoveryTokens  = 4000

	defaultSMTPPort = 587

	defaultDigestWeekday   = time.Sunday
	defaultDigestHour      = 8
	defaultDigestBatchSize = 10
	defaultInterBatchDelay = 30 * time.Second
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Discovery: DiscoveryConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       getEnv("OPENAI_MODEL", defaultDiscoveryModel),
			Temperature: 0.3,
			MaxTokens:   defaultDiscoveryTokens,
			Timeout:     defaultDiscoveryTimeout,
		},
		Email: EmailConfig{
			SMTPHost:  os.Getenv("SMTP_HOST"),
			SMTPPort:  defaultSMTPPort,
			Username:  os.Getenv("SMTP_USERNAME"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromEmail: getEnv("EMAIL_FROM", "digest@citypulse.local"),
			FromName:  getEnv("EMAIL_FROM_NAME", "CityPulse"),
		},
		Digest: DigestConfig{
			Enabled:         getEnv("DIGEST_ENABLED", "true") == "true",
			SendWeekday:     defaultDigestWeekday,
			SendHour:        defaultDigestHour,
			BatchSize:       defaultDigestBatchSize,
			InterBatchDelay: defaultInterBatchDelay,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		temp, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return Config{}, fmt.Errorf("invalid OPENAI_TEMPERATURE: %w", err)
		}
		cfg.Discovery.Temperature = float32(temp)
	}

	if v := os.Getenv("DISCOVERY_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DISCOVERY_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Discovery.Timeout = d
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			return Config{}, fmt.Errorf("invalid SMTP_PORT: must be a positive integer")
		}
		cfg.Email.SMTPPort = p
	}

	if v := os.Getenv("DIGEST_WEEKDAY"); v != "" {
		wd, err := parseWeekday(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DIGEST_WEEKDAY: %w", err)
		}
		cfg.Digest.SendWeekday = wd
	}

	if v := os.Getenv("DIGEST_HOUR"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			return Config{}, fmt.Errorf("invalid DIGEST_HOUR: must be 0-23")
		}
		cfg.Digest.SendHour = h
	}

	if v := os.Getenv("DIGEST_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid DIGEST_BATCH_SIZE: must be a positive integer")
		}
		cfg.Digest.BatchSize = n
	}

	if v := os.Getenv("DIGEST_BATCH_DELAY_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DIGEST_BATCH_DELAY_SECONDS: %w", err)
		}
		cfg.Digest.InterBatchDelay = d
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}

func parseWeekday(raw string) (time.Weekday, error) {
	switch raw {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("must be a lowercase weekday name")
	}
}
