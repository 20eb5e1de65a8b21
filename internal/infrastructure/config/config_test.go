package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/opsledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MAIL_ROUTING_BASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.VoucherMaxRetries != 5 {
		t.Fatalf("expected 5 voucher retries by default, got %d", cfg.VoucherMaxRetries)
	}

	if cfg.MailRoutingTimeout != 10*time.Second {
		t.Fatalf("expected 10s mail routing timeout, got %s", cfg.MailRoutingTimeout)
	}

	if cfg.MailRoutingEnabled() {
		t.Fatalf("expected mail routing to be disabled without a base URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("VOUCHER_MAX_RETRIES", "8")
	t.Setenv("REDIS_LOCKS_ENABLED", "false")
	t.Setenv("MAIL_ROUTING_BASE_URL", "https://mail.example")
	t.Setenv("COMPANY_EMAIL_DOMAIN", "corp.example")

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

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.VoucherMaxRetries != 8 || cfg.RedisLocksEnabled {
		t.Fatalf("expected posting overrides, got retries=%d locks=%v", cfg.VoucherMaxRetries, cfg.RedisLocksEnabled)
	}

	if !cfg.MailRoutingEnabled() || cfg.CompanyEmailDomain != "corp.example" {
		t.Fatalf("expected mail routing settings to be set, got url=%s domain=%s", cfg.MailRoutingBaseURL, cfg.CompanyEmailDomain)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
