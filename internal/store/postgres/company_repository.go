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

	"github.com/jackc/pgx/v5"
	"github.com/opentrusty/companies/internal/company"
)

const companyColumns = `id, name, contact_email, password_hash, registered_at,
	subscription_tier, role, active, created_at, updated_at`

// CompanyRepository implements company.Repository
type CompanyRepository struct {
	db      *DB
	q       querier
	session *Session
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *DB) *CompanyRepository {
	return &CompanyRepository{db: db, q: db.pool}
}

// InSession returns a repository whose statements run in s. Nothing is
// persisted until s is committed.
func (r *CompanyRepository) InSession(s *Session) *CompanyRepository {
	return &CompanyRepository{db: r.db, q: s, session: s}
}

// Create inserts a company. Empty name, contact email or password hash are
// stored as NULL so the column constraints reject them.
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) error {
	c.ApplyDefaults()

	err := r.q.QueryRow(ctx, `
		INSERT INTO companies (name, contact_email, password_hash, subscription_tier, role, active)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6)
		RETURNING id, registered_at, created_at
	`, c.Name, c.ContactEmail, c.PasswordHash, c.SubscriptionTier, c.Role, c.Active,
	).Scan(&c.ID, &c.RegisteredAt, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", mapPostgresError(err))
	}

	c.UpdatedAt = nil
	return nil
}

// GetByID retrieves a company by ID
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*company.Company, error) {
	row := r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

// GetByEmail retrieves a company by contact email
func (r *CompanyRepository) GetByEmail(ctx context.Context, email string) (*company.Company, error) {
	row := r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE contact_email = $1`, email)
	return scanCompany(row)
}

// List lists companies ordered by ID
func (r *CompanyRepository) List(ctx context.Context, limit, offset int) ([]*company.Company, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", mapPostgresError(err))
	}
	defer rows.Close()

	companies := []*company.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", mapPostgresError(err))
	}

	return companies, nil
}

// Update writes the profile fields and refreshes updated_at
func (r *CompanyRepository) Update(ctx context.Context, c *company.Company) error {
	return updateCompany(ctx, r.q, c)
}

// Modify locks the company row, applies the change and writes it back in one
// session.
func (r *CompanyRepository) Modify(ctx context.Context, id int64, apply func(c *company.Company) (bool, error)) (*company.Company, error) {
	var c *company.Company

	err := r.inSession(ctx, func(q querier) error {
		row := q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1 FOR UPDATE`, id)
		locked, err := scanCompany(row)
		if err != nil {
			return err
		}

		changed, err := apply(locked)
		if err != nil {
			return err
		}
		if changed {
			if err := updateCompany(ctx, q, locked); err != nil {
				return err
			}
		}

		c = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func updateCompany(ctx context.Context, q querier, c *company.Company) error {
	err := q.QueryRow(ctx, `
		UPDATE companies SET
			name = NULLIF($2, ''),
			contact_email = NULLIF($3, ''),
			subscription_tier = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, c.ID, c.Name, c.ContactEmail, c.SubscriptionTier).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.ErrCompanyNotFound
		}
		return fmt.Errorf("failed to update company: %w", mapPostgresError(err))
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *CompanyRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.q.Exec(ctx, `
		UPDATE companies SET password_hash = NULLIF($2, ''), updated_at = now()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return company.ErrCompanyNotFound
	}
	return nil
}

// SetActive activates or deactivates a company
func (r *CompanyRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.q.Exec(ctx, `
		UPDATE companies SET active = $2, updated_at = now()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update company status: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return company.ErrCompanyNotFound
	}
	return nil
}

// Delete removes a company, its projects and its users in one transaction.
// The company row is locked first, so a concurrent insert of a child row
// waits and then fails its foreign key instead of leaving an orphan.
func (r *CompanyRepository) Delete(ctx context.Context, id int64) (*company.DeleteResult, error) {
	var res *company.DeleteResult

	err := r.inSession(ctx, func(q querier) error {
		var lockedID int64
		if err := q.QueryRow(ctx, `SELECT id FROM companies WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return company.ErrCompanyNotFound
			}
			return fmt.Errorf("failed to lock company: %w", mapPostgresError(err))
		}

		projects, err := q.Exec(ctx, `DELETE FROM projects WHERE company_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete projects: %w", mapPostgresError(err))
		}

		users, err := q.Exec(ctx, `DELETE FROM users WHERE company_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete users: %w", mapPostgresError(err))
		}

		if _, err := q.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete company: %w", mapPostgresError(err))
		}

		res = &company.DeleteResult{
			CompanyID:       id,
			UsersDeleted:    users.RowsAffected(),
			ProjectsDeleted: projects.RowsAffected(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// inSession runs fn in the bound session, or in a new one that is committed
// when fn succeeds.
func (r *CompanyRepository) inSession(ctx context.Context, fn func(q querier) error) error {
	if r.session != nil {
		return fn(r.session)
	}
	return r.db.WithSession(ctx, func(s *Session) error {
		return fn(s)
	})
}

func scanCompany(row pgx.Row) (*company.Company, error) {
	var c company.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.ContactEmail, &c.PasswordHash, &c.RegisteredAt,
		&c.SubscriptionTier, &c.Role, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to scan company: %w", mapPostgresError(err))
	}
	return &c, nil
}
