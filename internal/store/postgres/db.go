// Copyright 2026 The OpenTrusty Authors
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
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/multitracer"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opentrusty/companies/internal/config"
	"github.com/opentrusty/companies/internal/observability/logger"
	"github.com/opentrusty/companies/internal/observability/metrics"
	"go.opentelemetry.io/otel/metric"
)

// ErrMissingURL is returned by New when no connection string is configured.
var ErrMissingURL = errors.New("database url is required")

// DB wraps the shared connection pool and hands out sessions.
type DB struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration

	sessionDuration metric.Float64Histogram
	sessionOutcomes metric.Int64Counter
}

// Config holds database configuration
type Config struct {
	// URL is a postgres:// URL or key=value DSN.
	URL string

	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	ConnectTimeout   time.Duration
	AcquireTimeout   time.Duration
	StatementTimeout time.Duration

	// PingAttempts bounds the connectivity check in New. Default: 5
	PingAttempts uint

	// Echo logs every statement through Logger. Bound arguments are never logged.
	Echo bool

	// Tracing adds OpenTelemetry spans for every query.
	Tracing bool

	Logger *slog.Logger
	Meter  *metrics.Meter
}

// ConfigFromEnv maps the application database settings onto a store Config.
func ConfigFromEnv(cfg config.DatabaseConfig, otelEnabled bool) Config {
	return Config{
		URL:              cfg.URL,
		MaxConns:         int32(cfg.MaxConns),
		MinConns:         int32(cfg.MinConns),
		MaxConnLifetime:  cfg.ConnMaxLifetime,
		MaxConnIdleTime:  cfg.ConnMaxIdleTime,
		ConnectTimeout:   cfg.ConnectTimeout,
		AcquireTimeout:   cfg.AcquireTimeout,
		StatementTimeout: cfg.StatementTimeout,
		Echo:             cfg.Echo,
		Tracing:          otelEnabled,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	if c.MaxConns <= 0 || c.MinConns < 0 {
		return fmt.Errorf("invalid pool bounds: max %d, min %d", c.MaxConns, c.MinConns)
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min conns %d exceeds max conns %d", c.MinConns, c.MaxConns)
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 20
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Minute
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = 5 * time.Second
	}
	if c.PingAttempts == 0 {
		c.PingAttempts = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Meter == nil {
		c.Meter = metrics.Noop()
	}
}

// New validates cfg, creates the connection pool and verifies connectivity.
// No pool is created when the configuration is invalid, and the pool is
// closed again when the database cannot be reached.
func New(ctx context.Context, cfg Config) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	if cfg.StatementTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}
	if tracer := queryTracer(cfg); tracer != nil {
		poolConfig.ConnConfig.Tracer = tracer
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := ping(ctx, pool, cfg.PingAttempts); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cfg.Logger.InfoContext(ctx, "database connection established",
		logger.Component("db"),
		slog.Int("max_conns", int(cfg.MaxConns)),
		slog.Bool("echo", cfg.Echo),
	)

	return &DB{
		pool:            pool,
		acquireTimeout:  cfg.AcquireTimeout,
		sessionDuration: cfg.Meter.HistogramOrNoop("db.session.duration", "Lifetime of a database session", "ms"),
		sessionOutcomes: cfg.Meter.CounterOrNoop("db.session.outcomes", "Database sessions by outcome"),
	}, nil
}

func queryTracer(cfg Config) pgx.QueryTracer {
	var tracers []pgx.QueryTracer
	if cfg.Echo {
		tracers = append(tracers, newEchoTracer(cfg.Logger))
	}
	if cfg.Tracing {
		tracers = append(tracers, otelpgx.NewTracer())
	}

	switch len(tracers) {
	case 0:
		return nil
	case 1:
		return tracers[0]
	default:
		return multitracer.New(tracers...)
	}
}

// ping retries with exponential backoff so a database that is still starting
// does not fail the process.
func ping(ctx context.Context, pool *pgxpool.Pool, attempts uint) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(attempts),
	)
	return err
}

// Close closes the database connection
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping checks that a connection can be acquired and used.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
