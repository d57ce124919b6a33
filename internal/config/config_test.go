package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "SKU_ALLOCATION_ATTEMPTS", "TX_TIMEOUT_SECONDS", "STORE_BACKEND", "CORS_ORIGINS", "JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SkuAllocationAttempts != 3 {
		t.Fatalf("expected 3 sku attempts, got %d", cfg.SkuAllocationAttempts)
	}
	if cfg.TxTimeout != 10*time.Second {
		t.Fatalf("expected 10s tx timeout, got %s", cfg.TxTimeout)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Fatalf("expected postgres backend, got %s", cfg.StoreBackend)
	}
	if cfg.JWTSecret != "" {
		t.Fatalf("expected no JWT secret default, got %q", cfg.JWTSecret)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected two default origins, got %v", cfg.CORSOrigins)
	}
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("SKU_ALLOCATION_ATTEMPTS", "0")
	t.Setenv("TX_TIMEOUT_SECONDS", "soon")
	t.Setenv("STORE_BACKEND", "MEMORY")

	cfg := FromEnv()
	if cfg.SkuAllocationAttempts != 3 || cfg.TxTimeout != 10*time.Second {
		t.Fatalf("expected defaults for invalid values, got %d and %s", cfg.SkuAllocationAttempts, cfg.TxTimeout)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Fatalf("expected memory backend, got %s", cfg.StoreBackend)
	}
}

func TestDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_PASSWORD", "p@ss")
	t.Setenv("DB_NAME", "retail")
	t.Setenv("DB_SSLMODE", "")

	if got, want := FromEnv().DSN(), "postgres://shop:p%40ss@db:6543/retail?sslmode=disable"; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	t.Setenv("DATABASE_URL", "postgres://x@y/z")
	if got := FromEnv().DSN(); got != "postgres://x@y/z" {
		t.Fatalf("expected DATABASE_URL to win, got %s", got)
	}
}
