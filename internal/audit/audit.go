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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/opentrusty/companies/internal/id"
)

// Event types
const (
	TypeCompanyRegistered  = "company_registered"
	TypeCompanyUpdated     = "company_updated"
	TypeCompanyActivated   = "company_activated"
	TypeCompanyDeactivated = "company_deactivated"
	TypeCompanyDeleted     = "company_deleted"
	TypePasswordChanged    = "password_changed"
	TypeUserCreated        = "user_created"
	TypeUserDeleted        = "user_deleted"
	TypeProjectCreated     = "project_created"
	TypeProjectDeleted     = "project_deleted"
)

// Actors that are not a company or user
const (
	ActorSystem          = "system"
	ActorSystemBootstrap = "system:bootstrap"
	ActorCLI             = "cli"
)

// Metadata keys
const (
	AttrEmail           = "email"
	AttrName            = "name"
	AttrTier            = "subscription_tier"
	AttrRole            = "role"
	AttrUserID          = "user_id"
	AttrProjectID       = "project_id"
	AttrUsersDeleted    = "users_deleted"
	AttrProjectsDeleted = "projects_deleted"
	AttrFields          = "fields"
)

// Event represents an auditable action
type Event struct {
	ID        string
	Type      string
	CompanyID int64
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
}

type actorKey struct{}

// WithActor returns a context that attributes audit events to actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by WithActor, or "".
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using the process-wide slog logger
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLoggerWith creates an audit logger bound to a specific slog logger.
func NewSlogLoggerWith(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = id.NewUUIDv7()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ActorID == "" {
		event.ActorID = ActorFromContext(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = ActorSystem
	}

	attrs := []any{
		slog.String("audit_id", event.ID),
		slog.String("audit_type", event.Type),
		slog.String("actor_id", event.ActorID),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.CompanyID != 0 {
		attrs = append(attrs, slog.Int64("company_id", event.CompanyID))
	}
	if event.Resource != "" {
		attrs = append(attrs, slog.String("resource", event.Resource))
	}

	if len(event.Metadata) > 0 {
		group := make([]any, 0, len(event.Metadata))
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	l.logger.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

var secretMarkers = []string{"password", "secret", "token", "key", "hash", "credential", "authorization"}

// isSecret reports whether a metadata key likely holds a secret
func isSecret(key string) bool {
	k := strings.ToLower(key)
	for _, s := range secretMarkers {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
