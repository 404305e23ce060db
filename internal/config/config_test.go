package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "8080" || cfg.Environment != "development" {
		t.Errorf("defaults = port %s env %s", cfg.Port, cfg.Environment)
	}
	if cfg.SessionStore != "filesystem" || cfg.SessionDir != "./sessions" {
		t.Errorf("store defaults = %s %s", cfg.SessionStore, cfg.SessionDir)
	}
	if cfg.KafkaTopic != "qti-delivery-events" || len(cfg.KafkaBrokers) != 0 {
		t.Errorf("kafka defaults = %q %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	}
	if !cfg.ConsiderMinTime || cfg.AlwaysAllowJumps {
		t.Errorf("behavior defaults = min %v jumps %v", cfg.ConsiderMinTime, cfg.AlwaysAllowJumps)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")
	t.Setenv("ACCEPTABLE_LATENCY", "250ms")
	t.Setenv("ALWAYS_ALLOW_JUMPS", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.AcceptableLatency != 250*time.Millisecond {
		t.Errorf("AcceptableLatency = %v", cfg.AcceptableLatency)
	}
	if !cfg.AlwaysAllowJumps {
		t.Error("AlwaysAllowJumps = false")
	}
}

func TestLoadConfigStoreValidation(t *testing.T) {
	t.Setenv("SESSION_STORE", "etcd")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted an unknown store")
	}

	t.Setenv("SESSION_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted postgres without DATABASE_URL")
	}

	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted redis without REDIS_URL")
	}
}
