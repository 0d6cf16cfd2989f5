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
	"errors"
	"time"
)

// ErrProjectNotFound is returned when a project does not exist
var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrMissingRequiredField = errors.New("missing required project field")
)

// Project is a unit of work owned by a company.
type Project struct {
	ID          int64      `json:"id"`
	CompanyID   int64      `json:"company_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Repository defines the interface for project storage
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id int64) (*Project, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*Project, error)
	Delete(ctx context.Context, id int64) error
}
