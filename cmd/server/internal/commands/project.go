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

	"github.com/opentrusty/companies/internal/project"
)

// ProjectCmd groups the project subcommands.
type ProjectCmd struct {
	Add    ProjectAddCmd    `cmd:"" help:"Add a project to a company."`
	List   ProjectListCmd   `cmd:"" help:"List the projects of a company."`
	Delete ProjectDeleteCmd `cmd:"" help:"Delete a project."`
}

type ProjectAddCmd struct {
	CompanyID   int64  `arg:"" help:"Owning company ID."`
	Name        string `arg:"" help:"Project name."`
	Description string `help:"Free-form description."`
}

func (c *ProjectAddCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.project.add", func(ctx context.Context) error {
			p, err := a.projects.CreateProject(ctx, project.NewProject{
				CompanyID:   c.CompanyID,
				Name:        c.Name,
				Description: c.Description,
			})
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, p)
		})
	})
}

type ProjectListCmd struct {
	CompanyID int64 `arg:"" help:"Owning company ID."`
}

func (c *ProjectListCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.project.list", func(ctx context.Context) error {
			projects, err := a.projects.ListProjects(ctx, c.CompanyID)
			if err != nil {
				return err
			}
			return printJSON(globals.Stdout, projects)
		})
	})
}

type ProjectDeleteCmd struct {
	ID  int64 `arg:"" help:"Project ID."`
	Yes bool  `help:"Confirm the deletion."`
}

func (c *ProjectDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	if !c.Yes {
		return errConfirmationRequired
	}
	return withApp(ctx, globals, func(a *app) error {
		return a.run(ctx, "cli.project.delete", func(ctx context.Context) error {
			if err := a.projects.DeleteProject(ctx, c.ID); err != nil {
				return err
			}
			return printJSON(globals.Stdout, map[string]any{"id": c.ID, "deleted": true})
		})
	})
}
