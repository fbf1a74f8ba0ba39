// Package db bootstraps the pgx connection pool used by the
// reconciler and the read-only API.
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool     *pgxpool.Pool
	poolMu   sync.RWMutex
	poolOnce sync.Once
)

// Config controls pool sizing; zero values fall back to sane defaults.
type Config struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Minute
	}
	return c
}

// Connect creates the process-wide connection pool exactly once; later
// calls are no-ops unless the pool was closed first.
func Connect(ctx context.Context, connString string, cfg Config) error {
	cfg = cfg.withDefaults()

	var initErr error
	poolOnce.Do(func() {
		pgxCfg, err := pgxpool.ParseConfig(connString)
		if err != nil {
			initErr = fmt.Errorf("db: parse config: %w", err)
			return
		}
		pgxCfg.MaxConns = cfg.MaxConns
		pgxCfg.MinConns = cfg.MinConns
		pgxCfg.MaxConnLifetime = cfg.MaxConnLifetime
		pgxCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
		pgxCfg.HealthCheckPeriod = time.Minute

		newPool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
		if err != nil {
			initErr = fmt.Errorf("db: create pool: %w", err)
			return
		}
		if err := newPool.Ping(ctx); err != nil {
			newPool.Close()
			initErr = fmt.Errorf("db: ping: %w", err)
			return
		}

		poolMu.Lock()
		pool = newPool
		poolMu.Unlock()
	})

	if initErr != nil {
		poolOnce = sync.Once{}
		return initErr
	}
	return nil
}

// Close closes the pool and allows a subsequent Connect to re-create it.
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
	poolOnce = sync.Once{}
}

// Pool returns the process-wide pool, or nil if Connect was never called.
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// Ping reports whether the pool is reachable.
func Ping(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return fmt.Errorf("db: not connected")
	}
	return p.Ping(ctx)
}
