package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewPoolWithConfigInvalidURL(t *testing.T) {
	ctx := context.Background()

	if _, err := NewPoolWithConfig(ctx, PoolConfig{DatabaseURL: "not-a-url"}); err == nil {
		t.Fatalf("expected error when parsing invalid URL")
	}
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := PoolConfig{
		DatabaseURL:    "postgres://invalid:5432/db",
		MaxConns:       1,
		ConnectTimeout: 500 * time.Millisecond,
	}

	if _, err := NewPoolWithConfig(ctx, cfg); err == nil {
		t.Fatalf("expected error when pool cannot connect")
	}
}

func TestMigratorMissingSource(t *testing.T) {
	m := NewMigrator("postgres://invalid:5432/db", t.TempDir()+"/missing", zerolog.Nop())

	if err := m.Up(); err == nil {
		t.Fatalf("expected error for a missing migrations directory")
	}
	if _, _, err := m.Version(); err == nil {
		t.Fatalf("expected error for a missing migrations directory")
	}
}
