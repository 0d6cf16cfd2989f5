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
	"github.com/opentrusty/companies/internal/project"
)

const projectColumns = `id, company_id, name, description, created_at, updated_at`

// ProjectRepository implements project.Repository
type ProjectRepository struct {
	q querier
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{q: db.pool}
}

// InSession returns a repository whose statements run in s.
func (r *ProjectRepository) InSession(s *Session) *ProjectRepository {
	return &ProjectRepository{q: s}
}

// Create creates a project owned by p.CompanyID
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO projects (company_id, name, description)
		VALUES ($1, NULLIF($2, ''), $3)
		RETURNING id, created_at
	`, p.CompanyID, p.Name, p.Description).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", mapPostgresError(err))
	}

	p.UpdatedAt = nil
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*project.Project, error) {
	var p project.Project
	err := r.q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.CompanyID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", mapPostgresError(err))
	}
	return &p, nil
}

// ListByCompany lists the projects of a company ordered by ID
func (r *ProjectRepository) ListByCompany(ctx context.Context, companyID int64) ([]*project.Project, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE company_id = $1
		ORDER BY id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", mapPostgresError(err))
	}
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", mapPostgresError(err))
	}

	return projects, nil
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}

	return nil
}
