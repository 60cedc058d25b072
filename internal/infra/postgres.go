package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// PoolConfig holds the tunable parameters for the search database pool.
// Both retrieval branches share one pool, so MaxConns should leave headroom
// for two concurrent queries per in-flight search.
type PoolConfig struct {
	MaxConns int
	MinConns int
}

// NewPostgresDB connects to the chunk store and registers the pgvector
// types needed by the vector branch.
func NewPostgresDB(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	if pc.MaxConns > 0 {
		poolCfg.MaxConns = int32(pc.MaxConns)
	}
	if pc.MinConns > 0 {
		poolCfg.MinConns = int32(pc.MinConns)
	}
	poolCfg.MaxConnLifetime = 1 * time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return pool, nil
}
