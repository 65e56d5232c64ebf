// Package database provides the gorm connection and repositories for vulnerability records.
// PostgreSQL is the production store; SQLite serves local runs and tests.
package database

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// DBConnection manages the gorm handle and its connection pool.
type DBConnection struct {
	db     *gorm.DB
	config *config.DatabaseConfig
	logger logger.Logger
}

// NewDBConnection opens the configured database, applies pool settings and performs an
// initial health check.
func NewDBConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*DBConnection, error) {
	if cfg == nil {
		return nil, errors.ErrConfiguration("database configuration is missing")
	}
	log = log.WithComponent("DBConnection")

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, errors.ErrConfiguration("unknown database driver: " + cfg.Driver)
	}

	log.Info(ctx, "Opening database connection", logger.Fields{
		"driver":    cfg.Driver,
		"host":      cfg.Host,
		"database":  cfg.Database,
		"max_conns": cfg.MaxConns,
	})

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		log.Error(ctx, "Failed to open database", err)
		return nil, errors.ErrUnavailable("database").WithCause(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrUnavailable("database").WithCause(err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MinConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Minute)

	conn := &DBConnection{db: db, config: cfg, logger: log}
	if err := conn.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return conn, nil
}

// NewDBConnectionFromGorm wraps an already opened gorm handle.
func NewDBConnectionFromGorm(db *gorm.DB, log logger.Logger) *DBConnection {
	return &DBConnection{db: db, config: &config.DatabaseConfig{}, logger: log.WithComponent("DBConnection")}
}

// DB returns the gorm handle for repositories.
func (c *DBConnection) DB() *gorm.DB {
	return c.db
}

// Migrate creates or updates the vulnerabilities table.
func (c *DBConnection) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&models.VulnerabilityRecord{}); err != nil {
		return errors.WrapError(err, constants.ErrCodeInternal, "failed to migrate vulnerabilities table")
	}
	return nil
}

// Ping verifies database connectivity.
func (c *DBConnection) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return errors.ErrUnavailable("database").WithCause(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		c.logger.Error(ctx, "Database ping failed", err)
		return errors.ErrUnavailable("database").WithCause(err)
	}

	latency := time.Since(start)
	if latency > 100*time.Millisecond {
		c.logger.Warn(ctx, "High database latency detected", logger.Duration("latency_ms", latency))
	}
	return nil
}

// HealthCheck returns pool statistics.
func (c *DBConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	sqlDB, _ := c.db.DB()
	stats := sqlDB.Stats()
	return map[string]interface{}{
		"status":           "healthy",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}, nil
}

// Close closes the underlying pool.
func (c *DBConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.logger.Info(context.Background(), "Closing database connection")
	return sqlDB.Close()
}

//Personal.AI order the ending
