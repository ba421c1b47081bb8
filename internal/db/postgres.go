package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a connection pool from a Postgres URL and verifies it with a
// ping.
//
// Why a URL rather than host/port/user fields?
//   - pgxpool.ParseConfig understands it natively, sslmode and escaped
//     passwords included.
//   - It is what DATABASE_URL carries on every PaaS, and what config stores.
func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	// Pool sizing for a polling workload:
	//
	// MaxConns (25): every client polls /groups/current every few seconds,
	//   and each poll holds a connection for one user read, one group read
	//   and one ledger JOIN. 25 absorbs bursts and stays well under the
	//   usual max_connections of 100.
	//
	// MinConns (2): polling traffic is steady once anyone is online, so a
	//   couple of warm connections cover the idle-to-active edge.
	//
	// MaxConnLifetime / MaxConnIdleTime / HealthCheckPeriod: recycle and
	//   health-check connections so failovers and stale TCP sessions are noticed
	//   before a request hits them.
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 20 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Don't leak a half-open pool if the ping fails.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	logger.Info("DB connection established",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.Int32("max_conns", poolConfig.MaxConns),
	)
	return &DB{
		pool:   pool,
		logger: logger,
	}, nil
}

// Migrate applies the schema. Every statement is IF NOT EXISTS, so running
// it on each start is safe.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	db.logger.Info("schema applied")
	return nil
}

func (db *DB) Close() {
	db.logger.Info("closing database connection pool")
	db.pool.Close()
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
