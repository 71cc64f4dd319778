package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_DRIVER", "DATABASE_DSN", "RULES_FILE", "LOG_LEVEL", "LOG_FORMAT", "HEALTH_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("wrong driver. want sqlite got %s", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN != "transaction.db" {
		t.Fatalf("wrong dsn. want transaction.db got %s", cfg.DatabaseDSN)
	}
	if cfg.HealthAddr != ":8080" {
		t.Fatalf("wrong health addr: %s", cfg.HealthAddr)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "mysql") || !strings.Contains(err.Error(), "loud") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}

func TestValidateBot(t *testing.T) {
	cfg := &Config{DiscordBotToken: "token"}
	if err := cfg.ValidateBot(); err == nil {
		t.Fatalf("expected missing channel error")
	}
	cfg.DiscordChannelId = "123"
	if err := cfg.ValidateBot(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}
