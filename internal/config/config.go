package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full service configuration, loaded from the
// environment with an optional .env file for development.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Test definition
	TestFile string

	// Session store: "filesystem", "redis" or "postgres"
	SessionStore string
	SessionDir   string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string
	RedisTTL time.Duration

	// Kafka; empty brokers keep events on the in-process channel
	KafkaBrokers []string
	KafkaTopic   string

	// Delivery behavior
	AcceptableLatency time.Duration
	ConsiderMinTime   bool
	AlwaysAllowJumps  bool
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          parseLogLevel(getEnv("LOG_LEVEL", "info")),
		TestFile:          getEnv("TEST_FILE", ""),
		SessionStore:      getEnv("SESSION_STORE", "filesystem"),
		SessionDir:        getEnv("SESSION_DIR", "./sessions"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "qti-delivery-events"),
		AcceptableLatency: getEnvDuration("ACCEPTABLE_LATENCY", 0),
		ConsiderMinTime:   getEnvBool("CONSIDER_MIN_TIME", true),
		AlwaysAllowJumps:  getEnvBool("ALWAYS_ALLOW_JUMPS", false),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.RedisTTL = getEnvDuration("REDIS_SESSION_TTL", 0)

	switch cfg.SessionStore {
	case "filesystem", "redis", "postgres":
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
	if cfg.SessionStore == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("SESSION_STORE=postgres requires DATABASE_URL")
	}
	if cfg.SessionStore == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("SESSION_STORE=redis requires REDIS_URL")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
