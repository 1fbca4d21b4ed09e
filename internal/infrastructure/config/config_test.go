package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/gowallet/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.OpsPort != "8081" {
		t.Fatalf("expected default ops port 8081, got %s", cfg.OpsPort)
	}

	if cfg.FraudLargeAmountThreshold != "10000" {
		t.Fatalf("expected default large amount threshold 10000, got %s", cfg.FraudLargeAmountThreshold)
	}

	if cfg.FraudVelocityLimit != 5 || cfg.FraudVelocityWindow != 5*time.Minute {
		t.Fatalf("expected default velocity limit 5 per 5m, got %d per %s", cfg.FraudVelocityLimit, cfg.FraudVelocityWindow)
	}

	if cfg.ScanInterval != 24*time.Hour {
		t.Fatalf("expected default scan interval 24h, got %s", cfg.ScanInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("OPS_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("FRAUD_VELOCITY_LIMIT", "10")
	t.Setenv("SCAN_INTERVAL", "1h")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.OpsPort != "9090" {
		t.Fatalf("expected ops port override, got %s", cfg.OpsPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.FraudVelocityLimit != 10 {
		t.Fatalf("expected velocity limit override, got %d", cfg.FraudVelocityLimit)
	}

	if cfg.ScanInterval != time.Hour {
		t.Fatalf("expected scan interval override, got %s", cfg.ScanInterval)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("SCAN_INTERVAL")
	t.Setenv("SCAN_INTERVAL", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("SCAN_INTERVAL", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
