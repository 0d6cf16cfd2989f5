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
	"os"
)

// MigrateCmd applies the embedded schema migrations.
type MigrateCmd struct {
	Down bool `help:"Revert all migrations, dropping every table."`
	Yes  bool `help:"Confirm --down."`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	if c.Down && !c.Yes {
		return errConfirmationRequired
	}

	a, err := newApp(ctx, globals, appOptions{logOutput: os.Stderr, skipAutoMigrate: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if c.Down {
		return a.db.MigrateDown(ctx)
	}
	if err := a.db.Migrate(ctx); err != nil {
		return err
	}

	version, dirty, err := a.db.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	return printJSON(globals.Stdout, map[string]any{"version": version, "dirty": dirty})
}
