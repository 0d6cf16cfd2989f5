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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/opentrusty/companies/internal/audit"
	"github.com/opentrusty/companies/internal/company"
	"github.com/opentrusty/companies/internal/config"
	"github.com/opentrusty/companies/internal/identity"
	"github.com/opentrusty/companies/internal/observability/logger"
	"github.com/opentrusty/companies/internal/observability/metrics"
	"github.com/opentrusty/companies/internal/observability/tracing"
	"github.com/opentrusty/companies/internal/project"
	"github.com/opentrusty/companies/internal/store/postgres"
)

// CLI is the command line of the companies binary.
type CLI struct {
	EnvFile string           `help:"Load environment variables from this file if it exists." default:".env" type:"path"`
	Version kong.VersionFlag `help:"Print the version and exit."`

	Serve   ServeCmd   `cmd:"" help:"Run the operational HTTP server (health and readiness)."`
	Migrate MigrateCmd `cmd:"" help:"Apply or revert schema migrations."`
	Company CompanyCmd `cmd:"" help:"Manage companies."`
	User    UserCmd    `cmd:"" help:"Manage the users of a company."`
	Project ProjectCmd `cmd:"" help:"Manage the projects of a company."`
}

// Globals are passed to every command's Run method.
type Globals struct {
	EnvFile string
	Version string
	Stdout  io.Writer
}

type appOptions struct {
	// logOutput receives structured logs; commands that print results keep
	// stdout for their JSON output.
	logOutput       io.Writer
	skipAutoMigrate bool
}

// app holds everything a command needs, wired once from configuration.
type app struct {
	cfg    *config.Config
	db     *postgres.DB
	tracer *tracing.Tracer
	meter  *metrics.Meter

	companies *company.Service
	users     *identity.Service
	projects  *project.Service
}

func newApp(ctx context.Context, globals *Globals, opts appOptions) (*app, error) {
	if err := config.LoadDotEnv(globals.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTELEnabled: cfg.Observability.OTELEnabled,
		Output:      opts.logOutput,
	})

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
	})
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize meter: %w", err)
	}

	dbCfg := postgres.ConfigFromEnv(cfg.Database, cfg.Observability.OTELEnabled)
	dbCfg.Logger = log
	dbCfg.Meter = meter
	db, err := postgres.New(ctx, dbCfg)
	if err != nil {
		_ = meter.Shutdown(ctx)
		_ = tracer.Shutdown(ctx)
		return nil, err
	}

	if cfg.Database.AutoMigrate && !opts.skipAutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			_ = meter.Shutdown(ctx)
			_ = tracer.Shutdown(ctx)
			return nil, err
		}
	}

	auditLogger := audit.NewSlogLoggerWith(log)
	hasher := identity.NewPasswordHasherFromConfig(cfg.Security)

	return &app{
		cfg:       cfg,
		db:        db,
		tracer:    tracer,
		meter:     meter,
		companies: company.NewService(postgres.NewCompanyRepository(db), hasher, auditLogger, meter),
		users:     identity.NewService(postgres.NewUserRepository(db), hasher, auditLogger),
		projects:  project.NewService(postgres.NewProjectRepository(db), auditLogger),
	}, nil
}

// Close releases the pool and flushes telemetry.
func (a *app) Close() {
	a.db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.meter.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown meter", logger.Error(err))
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown tracer", logger.Error(err))
	}
}

// run executes fn in a span as the CLI actor.
func (a *app) run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx = audit.WithActor(ctx, audit.ActorCLI)
	return tracing.Span(ctx, a.tracer.GetTracer(), name, fn)
}

// withApp wires an app for a one-shot command, runs fn and closes the app.
// Logs go to stderr so stdout carries only the command's result.
func withApp(ctx context.Context, globals *Globals, fn func(a *app) error) error {
	a, err := newApp(ctx, globals, appOptions{logOutput: os.Stderr})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// errConfirmationRequired is returned by destructive commands run without --yes.
var errConfirmationRequired = errors.New("refusing to delete without --yes")
