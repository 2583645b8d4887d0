package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWithDatabaseURL(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DATABASE_URL", "postgres://airsense@localhost:5432/airsense")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5050 {
		t.Errorf("expected default port 5050, got %d", cfg.Server.Port)
	}
	if cfg.Database.MaxOpenConns != 20 {
		t.Errorf("expected 20 max open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.SlowThreshold != 100*time.Millisecond {
		t.Errorf("expected 100ms slow threshold, got %s", cfg.Database.SlowThreshold)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("expected wildcard CORS origin, got %v", cfg.Security.CORSOrigins)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "8080")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "airsense")
	t.Setenv("DB_NAME", "calidad_aire")
	t.Setenv("DB_SCHEMA", "airsense")
	t.Setenv("HEALTH_CHECK_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "https://airsense.example, http://localhost:5173")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Schema != "airsense" {
		t.Errorf("expected schema airsense, got %q", cfg.Database.Schema)
	}
	if cfg.Health.Secret != "s3cret" {
		t.Errorf("expected health secret from env, got %q", cfg.Health.Secret)
	}
	want := []string{"https://airsense.example", "http://localhost:5173"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("expected origins %v, got %v", want, cfg.Security.CORSOrigins)
	}
	if cfg.Security.RateLimitWindow != 30*time.Second {
		t.Errorf("expected 30s window, got %s", cfg.Security.RateLimitWindow)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "server:\n  port: 6000\ndatabase:\n  url: postgres://file@localhost/airsense\nlogging:\n  format: console\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("env should win over file, got port %d", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://file@localhost/airsense" {
		t.Errorf("expected url from file, got %q", cfg.Database.URL)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("expected console format from file, got %q", cfg.Logging.Format)
	}
}

func TestLoad_MissingDatabase(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no database settings are present")
	}
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.URL = "postgres://localhost/airsense"
	cfg.Logging.Level = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestValidate_IdleAboveOpen(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.URL = "postgres://localhost/airsense"
	cfg.Database.MaxIdleConns = 50

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when idle connections exceed open connections")
	}
}

func TestAutoTLS(t *testing.T) {
	if !(DatabaseConfig{URL: "postgres://u@h/db"}).AutoTLS() {
		t.Error("expected auto TLS when sslmode is unset")
	}
	if (DatabaseConfig{URL: "postgres://u@h/db?sslmode=disable"}).AutoTLS() {
		t.Error("sslmode inside the URL is explicit")
	}
	if (DatabaseConfig{Host: "h", SSLMode: "require"}).AutoTLS() {
		t.Error("DB_SSLMODE is explicit")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		db   DatabaseConfig
		want string
	}{
		{
			name: "url without sslmode",
			db:   DatabaseConfig{URL: "postgres://u@h/db", SSLMode: "require"},
			want: "postgres://u@h/db?sslmode=require",
		},
		{
			name: "url keeps explicit sslmode",
			db:   DatabaseConfig{URL: "postgres://u@h/db?sslmode=disable", SSLMode: "require"},
			want: "postgres://u@h/db?sslmode=disable",
		},
		{
			name: "url with other params",
			db:   DatabaseConfig{URL: "postgres://u@h/db?connect_timeout=5", SSLMode: "prefer"},
			want: "postgres://u@h/db?connect_timeout=5&sslmode=prefer",
		},
		{
			name: "discrete fields",
			db: DatabaseConfig{
				Host: "localhost", Port: 5432, User: "airsense", Password: "p w'd",
				Name: "calidad", SSLMode: "disable",
			},
			want: `host=localhost port=5432 user=airsense dbname=calidad password='p w\'d' sslmode=disable`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.db.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
