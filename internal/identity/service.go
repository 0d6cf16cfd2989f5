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

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opentrusty/companies/internal/audit"
	"github.com/opentrusty/companies/internal/observability/logger"
	"github.com/opentrusty/companies/internal/validate"
)

const resourceUser = "user"

// NewUser is the input for CreateUser.
type NewUser struct {
	CompanyID int64  `validate:"gt=0"`
	Name      string `validate:"required,max=255"`
	Email     string `validate:"required,email,max=255"`
	Password  string `validate:"required,min=8,max=128"`
	Role      string `validate:"omitempty,max=50"`
}

// Service provides user management for companies
type Service struct {
	repo        UserRepository
	hasher      *PasswordHasher
	auditLogger audit.Logger
}

// NewService creates a new identity service
func NewService(repo UserRepository, hasher *PasswordHasher, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// CreateUser creates a user owned by in.CompanyID. An unknown company is
// reported by the store as company.ErrCompanyNotFound.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)

	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = DefaultRole
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		CompanyID:    in.CompanyID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         in.Role,
		Active:       true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.DebugContext(ctx, "user created", logger.CompanyID(user.CompanyID), logger.UserID(user.ID))

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeUserCreated,
		CompanyID: user.CompanyID,
		Resource:  resourceUser,
		Metadata: map[string]any{
			audit.AttrUserID: user.ID,
			audit.AttrEmail:  user.Email,
			audit.AttrRole:   user.Role,
		},
	})

	return user, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ListUsers lists the users of a company
func (s *Service) ListUsers(ctx context.Context, companyID int64) ([]*User, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// DeleteUser removes a single user
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	slog.DebugContext(ctx, "user deleted", logger.CompanyID(user.CompanyID), logger.UserID(userID))

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeUserDeleted,
		CompanyID: user.CompanyID,
		Resource:  resourceUser,
		Metadata:  map[string]any{audit.AttrUserID: userID},
	})

	return nil
}
