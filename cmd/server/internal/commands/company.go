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

package commands

import (
	"context"
	"errors"

	"github.com/opentrusty/companies/internal/company"
)

// CompanyCmd groups the company subcommands.
type CompanyCmd struct {
	Register   CompanyRegisterCmd   `cmd:"" help:"Register a new company."`
	Show       CompanyShowCmd       `cmd:"" help:"Show one company by ID or contact email."`
	List       CompanyListCmd       `cmd:"" help:"List companies."`
	Update     CompanyUpdateCmd     `cmd:"" help:"Update a company's profile."`
	Password   CompanyPasswordCmd   `cmd:"" help:"Change a company's password."`
	Activate   CompanyActivateCmd   `cmd:"" help:"Activate a company."`
	Deactivate CompanyDeactivateCmd `cmd:"" help:"Deactivate a company."`
	Delete     CompanyDeleteCmd     `cmd:"" help:"Delete a company with its users and projects."`
}

type CompanyRegisterCmd struct {
	Name     string `arg:"" help:"Company name."`
	Email    string `help:"Contact email."`
	Password string `help:"Initial password." env:"COMPANY_PASSWORD" required:""`
	Tier     string `help:"Subscription tier." default:"basic"`
	Role     string `help:"Company role." default:"superUser"`
}

func (c *CompanyRegisterCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.company.register", func(ctx context.Context) error {
			created, err := a.companies.Register(ctx, company.Registration{
				Name:             c.Name,
				ContactEmail:     c.Email,
				Password:         c.Password,
				SubscriptionTier: c.Tier,
				Role:             c.Role,
			})
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, created)
		})
	})
}

type CompanyShowCmd struct {
	ID    int64  `arg:"" optional:"" help:"Company ID."`
	Email string `help:"Look the company up by contact email instead."`
}

func (c *CompanyShowCmd) Run(ctx context.Context, globals *Globals) error {
	if c.ID == 0 && c.Email == "" {
		return errors.New("either an ID or --email is required")
	}
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.company.show", func(ctx context.Context) error {
			var (
				found *company.Company
				err   error
			)
			if c.Email != "" {
				found, err = a.companies.GetByEmail(ctx, c.Email)
			} else {
				found, err = a.companies.Get(ctx, c.ID)
			}
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, found)
		})
	})
}

type CompanyListCmd struct {
	Limit  int `help:"Maximum number of companies to return." default:"50"`
	Offset int `help:"Number of companies to skip."`
}

func (c *CompanyListCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.company.list", func(ctx context.Context) error {
			companies, err := a.companies.List(ctx, c.Limit, c.Offset)
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, companies)
		})
	})
}

// CompanyUpdateCmd only touches the flags that were given.
type CompanyUpdateCmd struct {
	ID    int64   `arg:"" help:"Company ID."`
	Name  *string `help:"New name."`
	Email *string `help:"New contact email; an empty value removes it."`
	Tier  *string `help:"New subscription tier."`
}

func (c *CompanyUpdateCmd) update() company.ProfileUpdate {
	return company.ProfileUpdate{
		Name:             c.Name,
		ContactEmail:     c.Email,
		SubscriptionTier: c.Tier,
	}
}

func (c *CompanyUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.company.update", func(ctx context.Context) error {
			updated, err := a.companies.UpdateProfile(ctx, c.ID, c.update())
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, updated)
		})
	})
}

type CompanyPasswordCmd struct {
	ID  int64  `arg:"" help:"Company ID."`
	Old string `help:"Current password." env:"COMPANY_OLD_PASSWORD" required:""`
	New string `help:"New password." env:"COMPANY_NEW_PASSWORD" required:""`
}

func (c *CompanyPasswordCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.company.password", func(ctx context.Context) error {
			if err := a.companies.ChangePassword(ctx, c.ID, c.Old, c.New); err != nil {
				return err
			}
			return printJSON(globals.Stdout, map[string]any{"id": c.ID, "password_changed": true})
		})
	})
}

type CompanyActivateCmd struct {
	ID int64 `arg:"" help:"Company ID."`
}

func (c *CompanyActivateCmd) Run(ctx context.Context, globals *Globals) error {
	return setActive(ctx, globals, c.ID, true)
}

type CompanyDeactivateCmd struct {
	ID int64 `arg:"" help:"Company ID."`
}

func (c *CompanyDeactivateCmd) Run(ctx context.Context, globals *Globals) error {
	return setActive(ctx, globals, c.ID, false)
}

func setActive(ctx context.Context, globals *Globals, id int64, active bool) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.company.set_active", func(ctx context.Context) error {
			if err := a.companies.SetActive(ctx, id, active); err != nil {
				return err
			}
			return printJSON(globals.Stdout, map[string]any{"id": id, "active": active})
		})
	})
}

type CompanyDeleteCmd struct {
	ID  int64 `arg:"" help:"Company ID."`
	Yes bool  `help:"Confirm the deletion."`
}

func (c *CompanyDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	if !c.Yes {
		return errConfirmationRequired
	}
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.company.delete", func(ctx context.Context) error {
			result, err := a.companies.Delete(ctx, c.ID)
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, result)
		})
	})
}
