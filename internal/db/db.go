package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AirSense/AirSense-Backend/internal/config"
	"github.com/AirSense/AirSense-Backend/internal/logging"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the PostgreSQL pool and stores it in DB. Without an
// explicit sslmode it connects with sslmode=require and retries with
// sslmode=disable when the server refuses TLS.
func Connect(cfg config.DatabaseConfig) error {
	var (
		gdb *gorm.DB
		err error
	)
	if cfg.AutoTLS() {
		gdb, err = open(cfg.WithSSLMode("require"))
		if err != nil && TLSRefused(err) {
			logging.Warn().Msg("database refused TLS, retrying without it")
			gdb, err = open(cfg.WithSSLMode("disable"))
		}
	} else {
		gdb, err = open(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Schema != "" {
		if err := CheckSchema(ctx, gdb, cfg.Schema); err != nil {
			_ = sqlDB.Close()
			return err
		}
	}

	DB = gdb
	logging.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Str("schema", cfg.Schema).
		Msg("Connected to database")
	return nil
}

func open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: NewLogger(cfg.SlowThreshold),
	})
}

// TLSRefused reports whether err comes from a server that does not accept
// TLS connections.
func TLSRefused(err error) bool {
	var ce *pgconn.ConnectError
	if !errors.As(err, &ce) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "refused tls") || strings.Contains(msg, "does not support ssl")
}

// Close releases the pool held in DB.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormLogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewLogger routes GORM output through zerolog. Queries slower than
// slowThreshold are logged at warn level; zero disables slow logging.
func NewLogger(slowThreshold time.Duration) logger.Interface {
	return &gormLogger{level: logger.Warn, slowThreshold: slowThreshold}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		logging.Ctx(ctx).Info().Msgf(msg, data...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		logging.Ctx(ctx).Warn().Msgf(msg, data...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		logging.Ctx(ctx).Error().Msgf(msg, data...)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= logger.Error:
		sql, rows := fc()
		logging.Ctx(ctx).Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		logging.Ctx(ctx).Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case l.level >= logger.Info:
		sql, rows := fc()
		logging.Ctx(ctx).Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
