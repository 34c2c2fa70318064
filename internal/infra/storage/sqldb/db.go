// Package sqldb stores the event journal in SQLite or PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/vietddude/nodewatch/internal/watchdog/metrics"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database connection configuration.
type Config struct {
	Driver   string
	DSN      string
	MaxConns int
}

// DB wraps the journal database connection.
type DB struct {
	*sqlx.DB
	driver string
}

// NewDB opens the database and applies pending migrations.
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	var sqlxDriver, dialect string
	switch cfg.Driver {
	case DriverSQLite:
		sqlxDriver, dialect = "sqlite3", "sqlite3"
	case DriverPostgres:
		sqlxDriver, dialect = "postgres", "postgres"
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	raw, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sqlx.NewDb(raw, sqlxDriver)

	// Set pool configuration
	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1) // single writer
	} else if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(4)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db.DB, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{DB: db, driver: cfg.Driver}, nil
}

func migrate(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// StartMetricsCollector starts a background goroutine to collect DB metrics.
func (db *DB) StartMetricsCollector(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := db.Stats()
				if stats.MaxOpenConnections > 0 {
					usage := float64(stats.OpenConnections) / float64(stats.MaxOpenConnections) * 100
					metrics.JournalPoolUsage.Set(usage)
				}
			}
		}
	}()
}

// Health checks if the database is healthy.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
