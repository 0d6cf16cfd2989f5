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
	"fmt"
	"log/slog"

	"github.com/opentrusty/companies/internal/audit"
	"github.com/opentrusty/companies/internal/config"
	"github.com/opentrusty/companies/internal/observability/logger"
)

// Bootstrap registers the company described by cfg on first start.
//
// With a contact email the company is created only when no company uses that
// email yet. Without one it is created only when the store holds no company
// at all. Returns nil, nil when bootstrap is not configured.
func (s *Service) Bootstrap(ctx context.Context, cfg config.BootstrapConfig) (*Company, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	ctx = audit.WithActor(ctx, audit.ActorSystemBootstrap)

	if email := NormalizeEmail(cfg.CompanyEmail); email != "" {
		existing, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "bootstrap company already present",
				logger.CompanyID(existing.ID), logger.Component("bootstrap"))
			return existing, nil
		case !errors.Is(err, ErrCompanyNotFound):
			return nil, fmt.Errorf("failed to look up bootstrap company: %w", err)
		}
	} else {
		existing, err := s.repo.List(ctx, 1, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to check for existing companies: %w", err)
		}
		if len(existing) > 0 {
			return nil, nil
		}
	}

	c, err := s.Register(ctx, Registration{
		Name:         cfg.CompanyName,
		ContactEmail: cfg.CompanyEmail,
		Password:     cfg.CompanyPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register bootstrap company: %w", err)
	}

	slog.InfoContext(ctx, "bootstrap company registered",
		logger.CompanyID(c.ID), logger.Component("bootstrap"))
	return c, nil
}
