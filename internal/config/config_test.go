package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "APP_VERSION", "HTTP_PORT", "STORE", "POSTGRES_DSN",
		"REDIS_ENABLED", "REDIS_URL", "REDIS_ADDR", "REDIS_USERNAME", "REDIS_PASSWORD",
		"LOCK_TTL", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT", "MAX_BULK_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMemoryDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("expected memory store, got %q", cfg.Store)
	}
	if cfg.HTTPPort != "8080" || cfg.LockTTL != 5*time.Second || cfg.MaxBulkSize != 50 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.RedisEnabled || cfg.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("unexpected redis defaults: %+v", cfg)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("expected console logs outside prod, got %q", cfg.LogFormat)
	}
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "POSTGRES_DSN") {
		t.Fatalf("expected POSTGRES_DSN error, got %v", err)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown store to fail")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("POSTGRES_DSN", "postgres://app:secret@db:5432/clinic")
	t.Setenv("REDIS_URL", "redis://worker:pw@cache:6380")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("LOCK_TTL", "3")
	t.Setenv("SHUTDOWN_TIMEOUT", "1m30s")
	t.Setenv("MAX_BULK_SIZE", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StorePostgres || !cfg.IsProd() {
		t.Fatalf("unexpected store/env: %+v", cfg)
	}
	if cfg.RedisAddr != "cache:6380" || cfg.RedisUsername != "worker" || cfg.RedisPassword != "pw" {
		t.Fatalf("unexpected redis settings: %+v", cfg)
	}
	if cfg.RedisEnabled {
		t.Fatal("expected redis disabled")
	}
	if cfg.LockTTL != 3*time.Second {
		t.Fatalf("expected integer LOCK_TTL as seconds, got %s", cfg.LockTTL)
	}
	if cfg.ShutdownTimeout != 90*time.Second {
		t.Fatalf("expected parsed SHUTDOWN_TIMEOUT, got %s", cfg.ShutdownTimeout)
	}
	if cfg.MaxBulkSize != 12 {
		t.Fatalf("expected MAX_BULK_SIZE 12, got %d", cfg.MaxBulkSize)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected json logs in prod, got %q", cfg.LogFormat)
	}
}

func TestLoadRejectsBadRedisURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "memory")
	t.Setenv("REDIS_URL", "not a url")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid REDIS_URL to fail")
	}
}
