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

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/opentrusty/companies/internal/company"
	"github.com/opentrusty/companies/internal/identity"
	"github.com/opentrusty/companies/internal/project"
)

// Constraint names from the migrations
const (
	constraintCompanyEmail = "companies_contact_email_key"
	constraintUserEmail    = "users_email_key"

	tableUsers    = "users"
	tableProjects = "projects"
)

// mapPostgresError maps PostgreSQL-specific errors to domain sentinel errors.
// Errors that are not PostgreSQL errors are returned unchanged.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("query canceled: %w", err)
		}
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case constraintCompanyEmail:
			return fmt.Errorf("%w: %s", company.ErrEmailAlreadyExists, pgErr.Detail)
		case constraintUserEmail:
			return fmt.Errorf("%w: %s", identity.ErrUserAlreadyExists, pgErr.Detail)
		}
		return fmt.Errorf("unique constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.NotNullViolation:
		switch pgErr.TableName {
		case tableUsers:
			return fmt.Errorf("%w: %s", identity.ErrMissingRequiredField, pgErr.ColumnName)
		case tableProjects:
			return fmt.Errorf("%w: %s", project.ErrMissingRequiredField, pgErr.ColumnName)
		}
		return fmt.Errorf("%w: %s", company.ErrMissingRequiredField, pgErr.ColumnName)

	case pgerrcode.ForeignKeyViolation:
		// Inserting a child of a company that does not exist (or is being deleted).
		return fmt.Errorf("%w: %s", company.ErrCompanyNotFound, pgErr.Detail)

	case pgerrcode.CheckViolation:
		return fmt.Errorf("check constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return fmt.Errorf("transaction conflict (retryable): %w", err)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection:
		return fmt.Errorf("database connection error: %w", err)

	case pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown:
		return fmt.Errorf("database server unavailable: %w", err)

	case pgerrcode.QueryCanceled:
		// statement_timeout or context cancellation
		return fmt.Errorf("query canceled: %w", err)

	case pgerrcode.InsufficientResources,
		pgerrcode.DiskFull,
		pgerrcode.OutOfMemory,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("database resource limit: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s, hint: %s): %w",
			pgErr.Code, pgErr.Message, pgErr.Detail, pgErr.Hint, err)
	}
}
