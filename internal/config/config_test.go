package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 4000 {
		t.Errorf("expected port 4000, got %d", cfg.Port)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("expected mysql driver, got %s", cfg.Database.Driver)
	}
	if cfg.Redis.Enabled() {
		t.Error("expected cache disabled without REDIS_URL")
	}
	if cfg.Redis.CacheTTL != 5*time.Minute {
		t.Errorf("expected 5m cache TTL, got %s", cfg.Redis.CacheTTL)
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoad_RateLimitWindowMustBePositive(t *testing.T) {
	for _, window := range []string{"0s", "-1m"} {
		t.Setenv("RATE_LIMIT_WINDOW", window)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for RATE_LIMIT_WINDOW=%s", window)
		}
	}
}

func TestLoad_ProductionRequiresPassword(t *testing.T) {
	t.Setenv("ENV", "Production")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for default password in production")
	}

	t.Setenv("DB_PASSWORD", "s3cret")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_CORSOriginsList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.HTTP.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("expected http://b.test, got %s", cfg.HTTP.AllowedOrigins[1])
	}
}

func TestDSN_MySQL(t *testing.T) {
	d := DatabaseConfig{Driver: DriverMySQL, Host: "db", User: "u", Password: "p@ss", Name: "events"}
	dsn := d.DSN()
	if !strings.Contains(dsn, "tcp(db:3306)") {
		t.Errorf("expected default port appended, got %s", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime in DSN, got %s", dsn)
	}
}

func TestDSN_SQLite(t *testing.T) {
	d := DatabaseConfig{Driver: DriverSQLite, SQLitePath: "/tmp/e.db"}
	dsn := d.DSN()
	if !strings.HasPrefix(dsn, "file:/tmp/e.db?") {
		t.Errorf("unexpected sqlite DSN %s", dsn)
	}
	if !strings.Contains(dsn, "foreign_keys(1)") {
		t.Errorf("expected foreign keys pragma, got %s", dsn)
	}
}
