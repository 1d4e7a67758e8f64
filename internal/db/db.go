// Package db provides PostgreSQL-backed repositories for the appeal
// notification engine's durable job store. All repositories accept a DBTX
// interface that is satisfied by both *pgxpool.Pool (for normal queries) and
// pgx.Tx (for transactional execution), enabling clean transaction support.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"appealnotify/internal/config"
	"appealnotify/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool opens a connection pool tuned from configuration and verifies
// connectivity before returning.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalConfig,
			"failed to parse database URL", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB,
			"failed to create database pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, types.NewAppError(types.ErrCodeInternalDB,
			"database not reachable", err)
	}
	return pool, nil
}

// Probe adapts a pool to the health-check interface.
type Probe struct {
	pool *pgxpool.Pool
}

// NewProbe wraps the pool for use as a health probe.
func NewProbe(pool *pgxpool.Pool) Probe {
	return Probe{pool: pool}
}

// Name identifies the probe in health responses.
func (p Probe) Name() string { return "database" }

// Check verifies connectivity.
func (p Probe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p Probe) Close() {
	p.pool.Close()
}
