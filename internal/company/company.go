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
	"errors"
	"time"
)

// Domain errors
var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrEmailAlreadyExists   = errors.New("contact email already registered")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

// Column defaults. They mirror the DEFAULT clauses of the companies table so a
// company built in memory looks the same as one read back from the store.
const (
	DefaultSubscriptionTier = "basic"

	// DefaultRole is carried over from the legacy schema. It is applied to
	// every company but is not checked against any list of known roles.
	DefaultRole = "superUser"
)

// Company is a tenant of the platform. It owns users and projects; deleting
// a company deletes everything it owns.
type Company struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	ContactEmail     *string    `json:"contact_email,omitempty"`
	PasswordHash     string     `json:"-"`
	RegisteredAt     time.Time  `json:"registered_at"`
	SubscriptionTier string     `json:"subscription_tier"`
	Role             string     `json:"role"`
	Active           bool       `json:"active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// ApplyDefaults fills the fields that have a column default and are unset.
func (c *Company) ApplyDefaults() {
	if c.SubscriptionTier == "" {
		c.SubscriptionTier = DefaultSubscriptionTier
	}
	if c.Role == "" {
		c.Role = DefaultRole
	}
}

// Email returns the contact email or "" when none is set.
func (c *Company) Email() string {
	if c.ContactEmail == nil {
		return ""
	}
	return *c.ContactEmail
}

// DeleteResult reports what a cascading delete removed.
type DeleteResult struct {
	CompanyID       int64 `json:"company_id"`
	UsersDeleted    int64 `json:"users_deleted"`
	ProjectsDeleted int64 `json:"projects_deleted"`
}

// Repository defines the interface for company storage
type Repository interface {
	// Create inserts c and fills in the server-assigned ID and timestamps.
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id int64) (*Company, error)
	GetByEmail(ctx context.Context, email string) (*Company, error)
	List(ctx context.Context, limit, offset int) ([]*Company, error)

	// Update writes name, contact email and subscription tier and refreshes
	// UpdatedAt.
	Update(ctx context.Context, c *Company) error

	// Modify loads the company under a row lock and passes it to apply. When
	// apply reports a change the company is written with Update semantics;
	// otherwise nothing is written. Load, apply and write share one unit of
	// work, so concurrent modifications do not overwrite each other.
	Modify(ctx context.Context, id int64, apply func(c *Company) (bool, error)) (*Company, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error

	// Delete removes the company together with its users and projects in a
	// single transaction.
	Delete(ctx context.Context, id int64) (*DeleteResult, error)
}

// PasswordHasher hashes and verifies company secrets.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}
