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

	"github.com/opentrusty/companies/internal/identity"
)

// UserCmd groups the user subcommands.
type UserCmd struct {
	Add    UserAddCmd    `cmd:"" help:"Add a user to a company."`
	List   UserListCmd   `cmd:"" help:"List the users of a company."`
	Delete UserDeleteCmd `cmd:"" help:"Delete a user."`
}

type UserAddCmd struct {
	CompanyID int64  `arg:"" help:"Owning company ID."`
	Name      string `arg:"" help:"User name."`
	Email     string `arg:"" help:"User email."`
	Password  string `help:"Initial password." env:"USER_PASSWORD" required:""`
	Role      string `help:"User role." default:"member"`
}

func (c *UserAddCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.user.add", func(ctx context.Context) error {
			user, err := a.users.CreateUser(ctx, identity.NewUser{
				CompanyID: c.CompanyID,
				Name:      c.Name,
				Email:     c.Email,
				Password:  c.Password,
				Role:      c.Role,
			})
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, user)
		})
	})
}

type UserListCmd struct {
	CompanyID int64 `arg:"" help:"Owning company ID."`
}

func (c *UserListCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.user.list", func(ctx context.Context) error {
			users, err := a.users.ListUsers(ctx, c.CompanyID)
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, users)
		})
	})
}

type UserDeleteCmd struct {
	ID  int64 `arg:"" help:"User ID."`
	Yes bool  `help:"Confirm the deletion."`
}

func (c *UserDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	if !c.Yes {
		return errConfirmationRequired
	}
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.user.delete", func(ctx context.Context) error {
			if err := a.users.DeleteUser(ctx, c.ID); err != nil {
				return err
			}
			return printJSON(globals.Stdout, map[string]any{"id": c.ID, "deleted": true})
		})
	})
}
