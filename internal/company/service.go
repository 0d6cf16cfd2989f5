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

package company

import (
	"context"
	"fmt"
	"strings"

	"github.com/opentrusty/companies/internal/audit"
	"github.com/opentrusty/companies/internal/observability/metrics"
	"github.com/opentrusty/companies/internal/validate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Pagination bounds for List
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

const resourceCompany = "company"

// Registration is the input for registering a new company.
type Registration struct {
	Name             string `validate:"required,max=255"`
	ContactEmail     string `validate:"omitempty,email,max=255"`
	Password         string `validate:"required,min=8,max=128"`
	SubscriptionTier string `validate:"omitempty,max=50"`
	Role             string `validate:"omitempty,max=50"`
}

// ProfileUpdate changes the mutable profile fields of a company. Nil fields
// are left untouched; an empty ContactEmail removes the contact email.
type ProfileUpdate struct {
	Name             *string
	ContactEmail     *string
	SubscriptionTier *string
}

// Service provides company management business logic
type Service struct {
	repo        Repository
	hasher      PasswordHasher
	auditLogger audit.Logger
	registered  metric.Int64Counter
	deleted     metric.Int64Counter
}

// NewService creates a new company service. A nil meter disables metrics.
func NewService(repo Repository, hasher PasswordHasher, auditLogger audit.Logger, meter *metrics.Meter) *Service {
	if meter == nil {
		meter = metrics.Noop()
	}
	return &Service{
		repo:        repo,
		hasher:      hasher,
		auditLogger: auditLogger,
		registered:  meter.CounterOrNoop("companies.registered", "Number of companies registered"),
		deleted:     meter.CounterOrNoop("companies.deleted", "Number of companies deleted"),
	}
}

// Register validates reg, hashes the password and stores a new company.
func (s *Service) Register(ctx context.Context, reg Registration) (*Company, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.ContactEmail = NormalizeEmail(reg.ContactEmail)
	reg.SubscriptionTier = strings.TrimSpace(reg.SubscriptionTier)
	reg.Role = strings.TrimSpace(reg.Role)

	if err := validate.Struct(reg); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	c := &Company{
		Name:             reg.Name,
		ContactEmail:     emailPtr(reg.ContactEmail),
		PasswordHash:     hash,
		SubscriptionTier: reg.SubscriptionTier,
		Role:             reg.Role,
		Active:           true,
	}
	c.ApplyDefaults()

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.registered.Add(ctx, 1, metric.WithAttributes(attribute.String("subscription_tier", c.SubscriptionTier)))
	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeCompanyRegistered,
		CompanyID: c.ID,
		Resource:  resourceCompany,
		Metadata: map[string]any{
			audit.AttrName:  c.Name,
			audit.AttrEmail: c.Email(),
			audit.AttrTier:  c.SubscriptionTier,
			audit.AttrRole:  c.Role,
		},
	})

	return c, nil
}

// Get retrieves a company by ID
func (s *Service) Get(ctx context.Context, id int64) (*Company, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a company by its contact email
func (s *Service) GetByEmail(ctx context.Context, email string) (*Company, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrCompanyNotFound
	}
	return s.repo.GetByEmail(ctx, email)
}

// List lists companies ordered by ID
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Company, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateProfile applies upd to the company and stores it. Fields equal to
// the stored values are ignored; when nothing changes no write happens and
// updated_at is left alone.
func (s *Service) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*Company, error) {
	var fields []string
	c, err := s.repo.Modify(ctx, id, func(c *Company) (bool, error) {
		fields = fields[:0]
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return false, fmt.Errorf("%w: name", ErrMissingRequiredField)
			}
			if err := validate.V.Var(name, "max=255"); err != nil {
				return false, fmt.Errorf("%w: name must be at most 255 characters", validate.ErrInvalidInput)
			}
			if name != c.Name {
				c.Name = name
				fields = append(fields, "name")
			}
		}
		if upd.ContactEmail != nil {
			email := NormalizeEmail(*upd.ContactEmail)
			if email != "" {
				if err := validate.V.Var(email, "email,max=255"); err != nil {
					return false, fmt.Errorf("%w: contact email must be a valid email address", validate.ErrInvalidInput)
				}
			}
			if email != c.Email() {
				c.ContactEmail = emailPtr(email)
				fields = append(fields, "contact_email")
			}
		}
		if upd.SubscriptionTier != nil {
			tier := strings.TrimSpace(*upd.SubscriptionTier)
			if tier == "" {
				tier = DefaultSubscriptionTier
			}
			if err := validate.V.Var(tier, "max=50"); err != nil {
				return false, fmt.Errorf("%w: subscription tier must be at most 50 characters", validate.ErrInvalidInput)
			}
			if tier != c.SubscriptionTier {
				c.SubscriptionTier = tier
				fields = append(fields, "subscription_tier")
			}
		}
		return len(fields) > 0, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	if len(fields) == 0 {
		return c, nil
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeCompanyUpdated,
		CompanyID: c.ID,
		Resource:  resourceCompany,
		Metadata:  map[string]any{audit.AttrFields: fields},
	})

	return c, nil
}

// ChangePassword replaces the company password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	valid, err := s.hasher.Verify(oldPassword, c.PasswordHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	if err := validate.V.Var(newPassword, "required,min=8,max=128"); err != nil {
		return fmt.Errorf("%w: password must be between 8 and 128 characters", validate.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypePasswordChanged,
		CompanyID: id,
		Resource:  resourceCompany,
	})

	return nil
}

// SetActive activates or deactivates a company.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}

	eventType := audit.TypeCompanyDeactivated
	if active {
		eventType = audit.TypeCompanyActivated
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:      eventType,
		CompanyID: id,
		Resource:  resourceCompany,
	})

	return nil
}

// Delete removes a company together with its users and projects.
func (s *Service) Delete(ctx context.Context, id int64) (*DeleteResult, error) {
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.deleted.Add(ctx, 1)
	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeCompanyDeleted,
		CompanyID: id,
		Resource:  resourceCompany,
		Metadata: map[string]any{
			audit.AttrUsersDeleted:    res.UsersDeleted,
			audit.AttrProjectsDeleted: res.ProjectsDeleted,
		},
	})

	return res, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailPtr(email string) *string {
	if email == "" {
		return nil
	}
	return &email
}
