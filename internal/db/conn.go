// Package db opens database connections and wraps them in schema backends.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hurou927/schema-sync/internal/backend"
	"github.com/hurou927/schema-sync/internal/backend/postgres"
	"github.com/hurou927/schema-sync/internal/backend/sqldb"
	"github.com/hurou927/schema-sync/internal/config"
)

const pingTimeout = 10 * time.Second

// Open connects to the configured database and returns its backend.
func Open(ctx context.Context, cfg *config.Config) (backend.Backend, error) {
	dsn := cfg.ConnString()
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := NewPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool, cfg.DBSchema), nil
	case config.BackendSQLite, config.BackendMySQL, config.BackendMSSQL:
		sqlDB, err := OpenSQL(ctx, driverName(cfg.Backend), dsn)
		if err != nil {
			return nil, err
		}
		if cfg.Backend == config.BackendSQLite {
			// Every statement of a sync runs on one connection.
			sqlDB.SetMaxOpenConns(1)
		}
		b, err := sqldb.New(sqlDB, cfg.Backend, cfg.DBSchema)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func driverName(kind string) string {
	switch kind {
	case config.BackendMSSQL:
		return "sqlserver"
	default:
		return kind
	}
}

// NewPool creates a new pgx connection pool from a connection string.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// OpenSQL opens a database/sql handle and verifies it with a bounded ping.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return sqlDB, nil
}
