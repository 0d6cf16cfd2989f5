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
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrSessionClosed is returned when a committed or closed session is used again.
var ErrSessionClosed = errors.New("session already closed")

// Session outcomes recorded in db.session.outcomes
const (
	outcomeCommitted  = "committed"
	outcomeRolledBack = "rolled_back"
	outcomeFailed     = "failed"
)

// querier is satisfied by both the pool and a transaction, so repositories
// run the same SQL inside or outside a session.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Session is a unit of work bound to one pooled connection and one
// transaction. Nothing it writes is visible to others until Commit.
// A Session is not safe for concurrent use.
type Session struct {
	db      *DB
	tx      pgx.Tx
	started time.Time
	done    bool
}

// Begin opens a session. Acquiring the connection is bounded by the
// configured acquire timeout.
func (db *DB) Begin(ctx context.Context) (*Session, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	defer cancel()

	tx, err := db.pool.BeginTx(acquireCtx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		if errors.Is(acquireCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to begin session: no connection available within %s: %w", db.acquireTimeout, err)
		}
		return nil, fmt.Errorf("failed to begin session: %w", mapPostgresError(err))
	}

	return &Session{db: db, tx: tx, started: time.Now()}, nil
}

// WithSession runs fn in a new session. The session is committed when fn
// returns nil and rolled back otherwise, including when fn panics.
func (db *DB) WithSession(ctx context.Context, fn func(s *Session) error) (err error) {
	s, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := fn(s); err != nil {
		return err
	}
	return s.Commit(ctx)
}

// Commit makes the session's writes durable and releases its connection.
func (s *Session) Commit(ctx context.Context) error {
	if s.done {
		return ErrSessionClosed
	}
	s.done = true

	if err := s.tx.Commit(ctx); err != nil {
		s.record(ctx, outcomeFailed)
		return fmt.Errorf("failed to commit session: %w", mapPostgresError(err))
	}
	s.record(ctx, outcomeCommitted)
	return nil
}

// Close releases the session, rolling back anything not committed. It is a
// no-op after Commit or a previous Close, so it is safe to defer.
func (s *Session) Close(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true

	// Roll back even when ctx is already cancelled.
	err := s.tx.Rollback(context.WithoutCancel(ctx))
	s.record(ctx, outcomeRolledBack)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to roll back session: %w", err)
	}
	return nil
}

// Exec executes sql in the session.
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if s.done {
		return pgconn.CommandTag{}, ErrSessionClosed
	}
	return s.tx.Exec(ctx, sql, args...)
}

// Query runs sql in the session.
func (s *Session) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.done {
		return nil, ErrSessionClosed
	}
	return s.tx.Query(ctx, sql, args...)
}

// QueryRow runs sql in the session and returns at most one row.
func (s *Session) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.done {
		return errRow{ErrSessionClosed}
	}
	return s.tx.QueryRow(ctx, sql, args...)
}

func (s *Session) record(ctx context.Context, outcome string) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	s.db.sessionDuration.Record(ctx, float64(time.Since(s.started).Milliseconds()), attrs)
	s.db.sessionOutcomes.Add(ctx, 1, attrs)
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
