// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, startup aborts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the matching service.
type Config struct {
	Port            int
	DatabaseURL     string
	RedisURL        string // optional; trending cache is skipped when empty
	GeminiKey       string
	AlertWebhookURL string // optional; alerts are logged when empty

	QueueBatchSize   int           // tasks claimed per drain
	QueueMaxAttempts int           // failed->pending retries before terminal failure
	ClaimTimeout     time.Duration // processing tasks older than this are reclaimed
	ProcessCronSpec  string        // robfig/cron spec for the scheduled drain

	LogJSON  bool
	LogDebug bool
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	cfg := &Config{
		Port:             8080,
		DatabaseURL:      dbURL,
		RedisURL:         os.Getenv("REDIS_URL"),
		GeminiKey:        geminiKey,
		AlertWebhookURL:  os.Getenv("ALERT_WEBHOOK_URL"),
		QueueBatchSize:   25,
		QueueMaxAttempts: 5,
		ClaimTimeout:     10 * time.Minute,
		ProcessCronSpec:  "@daily",
		LogJSON:          os.Getenv("LOG_JSON") == "true",
		LogDebug:         os.Getenv("LOG_DEBUG") == "true",
	}

	if s := os.Getenv("PORT"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("PORT must be a positive integer, got %q", s)
		}
		cfg.Port = v
	}

	if s := os.Getenv("QUEUE_BATCH_SIZE"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("QUEUE_BATCH_SIZE must be a positive integer, got %q", s)
		}
		cfg.QueueBatchSize = v
	}

	if s := os.Getenv("QUEUE_MAX_ATTEMPTS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("QUEUE_MAX_ATTEMPTS must be a positive integer, got %q", s)
		}
		cfg.QueueMaxAttempts = v
	}

	if s := os.Getenv("CLAIM_TIMEOUT_MINUTES"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("CLAIM_TIMEOUT_MINUTES must be a positive integer, got %q", s)
		}
		cfg.ClaimTimeout = time.Duration(v) * time.Minute
	}

	if s := os.Getenv("PROCESS_CRON_SPEC"); s != "" {
		cfg.ProcessCronSpec = s
	}

	return cfg, nil
}
