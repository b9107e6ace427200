// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pelagiclabs/docvault/storage"
)

// Pool settings defaults. Session recycling is bounded by connection
// lifetime and idle time; pgx does not count queries per connection.
const (
	DefaultMinConns        = 10
	DefaultMaxConns        = 20
	DefaultMaxConnLifetime = time.Hour
	DefaultMaxConnIdleTime = 5 * time.Minute
	DefaultRetryAttempts   = 3
	DefaultRetryDelay      = time.Second
)

type poolSettings struct {
	minConns        int32
	maxConns        int32
	maxConnLifetime time.Duration
	maxConnIdleTime time.Duration
	retryAttempts   int
	retryDelay      time.Duration
	logger          *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*poolSettings)

// WithMinConns sets the minimum number of sessions kept in the pool.
func WithMinConns(n int32) PoolOption {
	return func(s *poolSettings) { s.minConns = n }
}

// WithMaxConns sets the maximum number of concurrent sessions.
func WithMaxConns(n int32) PoolOption {
	return func(s *poolSettings) { s.maxConns = n }
}

// WithMaxConnLifetime sets how long a session may live before recycling.
func WithMaxConnLifetime(d time.Duration) PoolOption {
	return func(s *poolSettings) { s.maxConnLifetime = d }
}

// WithMaxConnIdleTime sets how long a session may sit idle before recycling.
func WithMaxConnIdleTime(d time.Duration) PoolOption {
	return func(s *poolSettings) { s.maxConnIdleTime = d }
}

// WithRetry sets the number of pool initialization attempts and the fixed
// delay between them. Only initialization is retried; queries never are.
func WithRetry(attempts int, delay time.Duration) PoolOption {
	return func(s *poolSettings) {
		if attempts > 0 {
			s.retryAttempts = attempts
		}
		s.retryDelay = delay
	}
}

// WithPoolLogger sets a custom logger.
// Default is slog.Default().
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(s *poolSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Pool owns a bounded set of PostgreSQL sessions. Every operation acquires
// and releases a session per call; sessions are recycled after the
// configured lifetime or idle time.
type Pool struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPool establishes a connection pool against the configured store,
// retrying failed initialization a fixed number of times with a fixed delay
// before giving up with storage.ErrConnectionFailed.
func NewPool(ctx context.Context, cfg *Config, opts ...PoolOption) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	settings := &poolSettings{
		minConns:        DefaultMinConns,
		maxConns:        DefaultMaxConns,
		maxConnLifetime: DefaultMaxConnLifetime,
		maxConnIdleTime: DefaultMaxConnIdleTime,
		retryAttempts:   DefaultRetryAttempts,
		retryDelay:      DefaultRetryDelay,
		logger:          slog.Default().With("component", "postgres-pool"),
	}
	for _, opt := range opts {
		opt(settings)
	}

	pgxCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection config: %w", err)
	}
	pgxCfg.MinConns = settings.minConns
	pgxCfg.MaxConns = settings.maxConns
	pgxCfg.MaxConnLifetime = settings.maxConnLifetime
	pgxCfg.MaxConnIdleTime = settings.maxConnIdleTime

	var lastErr error
	for attempt := 1; attempt <= settings.retryAttempts; attempt++ {
		settings.logger.Info("creating connection pool",
			"attempt", attempt,
			"maxAttempts", settings.retryAttempts)

		pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				settings.logger.Info("connection pool created")
				return &Pool{pool: pool, logger: settings.logger}, nil
			} else {
				pool.Close()
				err = pingErr
			}
		}

		lastErr = err
		settings.logger.Error("failed to create connection pool", "attempt", attempt, "err", err)

		if attempt == settings.retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(settings.retryDelay):
		}
	}

	return nil, fmt.Errorf("%w: %v", storage.ErrConnectionFailed, lastErr)
}

// HealthCheck executes a trivial round-trip query and reports whether the
// store answered. It never returns an error.
func (p *Pool) HealthCheck(ctx context.Context) bool {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		p.logger.Error("health check failed", "err", err)
		return false
	}
	return one == 1
}

// Exec runs a parameterized statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := p.pool.Exec(ctx, sql, args...)
	return err
}

// Query runs a parameterized statement and returns its rows.
// The caller must close the returned rows.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// QueryRow runs a parameterized statement expected to return one row.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// FetchValue runs a parameterized statement and scans the first column of
// the first row into dest.
func (p *Pool) FetchValue(ctx context.Context, dest any, sql string, args ...any) error {
	return p.pool.QueryRow(ctx, sql, args...).Scan(dest)
}

// ExecMany runs the same statement once per parameter set, pipelined in a
// single round trip. The whole batch fails together: the first failing
// statement aborts the rest.
func (p *Pool) ExecMany(ctx context.Context, sql string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(sql, args...)
	}

	results := p.pool.SendBatch(ctx, batch)
	for range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	return results.Close()
}

// WithTx acquires one session for the duration of fn and runs every
// statement inside it on that session within a transaction. The session is
// released on every exit path; fn returning an error rolls the
// transaction back, otherwise it is committed.
func (p *Pool) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// Close shuts the pool down and releases all sessions.
func (p *Pool) Close() {
	p.pool.Close()
	p.logger.Info("connection pool closed")
}
