package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/oljwatch/job-harvester/common/config"
	"github.com/oljwatch/job-harvester/common/redis"
	"github.com/oljwatch/job-harvester/repository"

	pgxzerolog "github.com/jackc/pgx-zerolog"
	"github.com/rs/zerolog/log"
)

// DB owns the current database connection state. Request handlers never
// hold a pool directly; they go through Queries() and call Reacquire()
// when a connection-level error is detected, so there is no process-wide
// re-pointing of a session factory.
type DB struct {
	mu      sync.RWMutex
	pool    *pgxpool.Pool
	queries *repository.Queries
	cfg     config.Config

	Redis *redis.RedisClient
}

// SetupDatabase initializes the database connection
func SetupDatabase(ctx context.Context, cfg config.Config) (*DB, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating Redis client: %w", err)
	}

	return &DB{
		pool:    pool,
		queries: repository.New(pool),
		cfg:     cfg,
		Redis:   redisClient,
	}, nil
}

func newPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PgSql.ConnStr())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	// Query logging through zerolog
	poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   pgxzerolog.NewLogger(log.Logger),
		LogLevel: tracelog.LogLevelWarn,
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// Queries returns the query layer bound to the current pool.
func (db *DB) Queries() *repository.Queries {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.queries
}

// Pool returns the current connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.pool
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool().Ping(ctx)
}

// Close closes the database connection
func (db *DB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.pool != nil {
		db.pool.Close()
	}
	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}

// Reacquire re-establishes the connection pool after a connection-level
// failure. If the current pool still answers a ping it is kept as-is, so
// concurrent callers racing into Reacquire only rebuild once.
func (db *DB) Reacquire(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.pool != nil {
		if err := db.pool.Ping(ctx); err == nil {
			return nil
		}
		db.pool.Close()
	}

	log.Warn().Msg("Database connection lost, reconnecting")

	pool, err := newPool(ctx, db.cfg)
	if err != nil {
		return fmt.Errorf("reacquiring database connection: %w", err)
	}

	db.pool = pool
	db.queries = repository.New(pool)

	log.Info().Msg("Database reconnection successful")
	return nil
}

// IsConnectionError reports whether err looks like a connection-level
// failure worth a reconnect-and-retry, as opposed to a query error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 covers connection exceptions.
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08"
	}

	return pgconn.SafeToRetry(err)
}
