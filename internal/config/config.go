// Package config loads AirSense server configuration.
//
// Values are layered: built-in defaults, then an optional YAML file
// (CONFIG_PATH, config.yaml), then environment variables. main loads
// .env.local with godotenv before calling Load so local overrides reach
// the environment layer.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration for the API server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Health   HealthConfig   `koanf:"health"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Host            string        `koanf:"host"`
	StaticDir       string        `koanf:"static_dir"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr is the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig describes the PostgreSQL connection. URL wins over the
// discrete host/user/name fields when both are set.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Schema          string        `koanf:"schema"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	SlowThreshold   time.Duration `koanf:"slow_threshold"`
}

// AutoTLS reports whether Connect should try TLS first and fall back to a
// plain connection. It is off once sslmode is chosen explicitly, either in
// DB_SSLMODE or inside DATABASE_URL.
func (d DatabaseConfig) AutoTLS() bool {
	return d.SSLMode == "" && !strings.Contains(d.URL, "sslmode=")
}

// WithSSLMode returns a copy of d using mode.
func (d DatabaseConfig) WithSSLMode(mode string) DatabaseConfig {
	d.SSLMode = mode
	return d
}

// DSN returns the connection string handed to the pgx driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		if d.SSLMode == "" || strings.Contains(d.URL, "sslmode=") {
			return d.URL
		}
		sep := "?"
		if strings.Contains(d.URL, "?") {
			sep = "&"
		}
		return d.URL + sep + "sslmode=" + url.QueryEscape(d.SSLMode)
	}

	parts := []string{
		"host=" + quoteDSNValue(d.Host),
		fmt.Sprintf("port=%d", d.Port),
		"user=" + quoteDSNValue(d.User),
		"dbname=" + quoteDSNValue(d.Name),
	}
	if d.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(d.Password))
	}
	if d.SSLMode != "" {
		parts = append(parts, "sslmode="+d.SSLMode)
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// HealthConfig guards GET /api/health. Secret may be a plain value or a
// bcrypt hash ($2a$, $2b$, $2y$).
type HealthConfig struct {
	Secret string `koanf:"secret"`
}

type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}
