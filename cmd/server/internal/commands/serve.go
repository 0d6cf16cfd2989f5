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
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/opentrusty/companies/internal/observability/logger"
	transportHTTP "github.com/opentrusty/companies/internal/transport/http"
)

// ServeCmd runs the operational HTTP server until SIGINT or SIGTERM.
type ServeCmd struct {
	ShutdownTimeout time.Duration `help:"Time allowed for in-flight requests on shutdown." default:"30s"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals, appOptions{logOutput: os.Stdout})
	if err != nil {
		return err
	}
	defer a.Close()

	slog.InfoContext(ctx, "starting companies service", slog.String("version", globals.Version))

	if _, err := a.companies.Bootstrap(ctx, a.cfg.Bootstrap); err != nil {
		slog.ErrorContext(ctx, "bootstrap failed", logger.Error(err))
	}

	rateLimiter := transportHTTP.NewRateLimiter(a.cfg.RateLimit.RequestsPerSecond, a.cfg.RateLimit.Burst)
	go rateLimiter.Run(ctx)

	handler := transportHTTP.NewHandler(a.db, a.cfg.Observability.ServiceName, globals.Version)
	addr := fmt.Sprintf("%s:%s", a.cfg.Server.Host, a.cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           transportHTTP.NewRouter(handler, rateLimiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
		MaxHeaderBytes:    8 * 1024,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", logger.Component("server"), logger.Operation("listen"), slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
