package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing defaults. Every API request checks a connection out to receive
// its row-security session parameters, so MaxConns effectively bounds request
// concurrency and MinConns keeps warm connections ready for the
// checkout-per-request pattern.
const (
	defaultMaxConns = 25
	defaultMinConns = 2

	// Scoped connections carry per-request session state, so recycle them
	// rather than letting one live for the process lifetime.
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// poolLimits clamps the configured pool bounds to sane values.
func poolLimits(maxConns, minConns int32) (int32, int32) {
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	if minConns < 0 {
		minConns = defaultMinConns
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	return maxConns, minConns
}

// NewPool opens the shared connection pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns, cfg.MinConns = poolLimits(maxConns, minConns)
	cfg.MaxConnLifetime = connMaxLifetime
	cfg.MaxConnIdleTime = connMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
