package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	connectPingTimeout = 5 * time.Second
	connMaxIdleTime    = 15 * time.Minute
	connMaxLifetime    = time.Hour
)

// Connect opens the portal database and verifies it answers before returning.
// maxConns <= 0 keeps the driver defaults.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sizePool(sqlDB, int(maxConns))

	pingCtx, cancel := context.WithTimeout(ctx, connectPingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		dbLogger().ErrorContext(ctx, "postgres unreachable",
			"operation", "connect",
			"outcome", "failure",
			"error", err,
		)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	stats := sqlDB.Stats()
	dbLogger().InfoContext(ctx, "postgres connected",
		"operation", "connect",
		"outcome", "success",
		"max_open_conns", stats.MaxOpenConnections,
	)
	return db, nil
}

func sizePool(sqlDB *sql.DB, maxConns int) {
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(max(1, maxConns/2))
	}
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
}

// HealthCheck reports pool reachability on /readyz.
type HealthCheck struct {
	db *gorm.DB
}

func NewHealthCheck(db *gorm.DB) HealthCheck {
	return HealthCheck{db: db}
}

func (HealthCheck) Name() string { return "postgres" }

func (h HealthCheck) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dbLogger() *slog.Logger {
	return slog.Default().With(
		"service", "huntress-api",
		"module", "postgres",
		"layer", "adapter",
	)
}
