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

package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opentrusty/companies/internal/audit"
	"github.com/opentrusty/companies/internal/observability/logger"
	"github.com/opentrusty/companies/internal/validate"
)

const resourceProject = "project"

// NewProject is the input for CreateProject.
type NewProject struct {
	CompanyID   int64  `validate:"gt=0"`
	Name        string `validate:"required,max=255"`
	Description string `validate:"max=10000"`
}

// Service provides project management for companies
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new project service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// CreateProject creates a project owned by in.CompanyID
func (s *Service) CreateProject(ctx context.Context, in NewProject) (*Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	p := &Project{
		CompanyID:   in.CompanyID,
		Name:        in.Name,
		Description: in.Description,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	slog.DebugContext(ctx, "project created", logger.CompanyID(p.CompanyID), logger.ProjectID(p.ID))

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeProjectCreated,
		CompanyID: p.CompanyID,
		Resource:  resourceProject,
		Metadata: map[string]any{
			audit.AttrProjectID: p.ID,
			audit.AttrName:      p.Name,
		},
	})

	return p, nil
}

// GetProject retrieves a project by ID
func (s *Service) GetProject(ctx context.Context, id int64) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProjects lists the projects of a company
func (s *Service) ListProjects(ctx context.Context, companyID int64) ([]*Project, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// DeleteProject removes a single project
func (s *Service) DeleteProject(ctx context.Context, id int64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.DebugContext(ctx, "project deleted", logger.CompanyID(p.CompanyID), logger.ProjectID(id))

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeProjectDeleted,
		CompanyID: p.CompanyID,
		Resource:  resourceProject,
		Metadata:  map[string]any{audit.AttrProjectID: id},
	})
	return nil
}
