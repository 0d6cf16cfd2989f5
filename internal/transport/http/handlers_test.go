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

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}

func serve(t *testing.T, router http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestPurpose: Validates the liveness endpoint.
// Scope: Unit Test
// Expected: /health answers 200 with the service name even when the database is down.
// Test Case ID: HTTP-01
func TestHTTP_HealthCheck(t *testing.T) {
	router := NewRouter(NewHandler(fakePinger{err: errors.New("down")}, "companies", "test"), NewRateLimiter(100, 100))

	rec := serve(t, router, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "companies", body["service"])
}

// TestPurpose: Validates the readiness endpoint reflects database reachability.
// Scope: Unit Test
// Expected: 200 when the ping succeeds, 503 when it fails, without leaking the error text.
// Test Case ID: HTTP-02
func TestHTTP_ReadyCheck(t *testing.T) {
	ok := NewRouter(NewHandler(fakePinger{}, "companies", "test"), NewRateLimiter(100, 100))
	rec := serve(t, ok, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewRouter(NewHandler(fakePinger{err: errors.New("dial tcp 10.0.0.1:5432: connection refused")}, "companies", "test"), NewRateLimiter(100, 100))
	rec = serve(t, down, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

// TestPurpose: Validates per-client rate limiting.
// Scope: Unit Test
// Security: Request flooding protection
// Expected: Requests beyond the burst get 429; another client is unaffected.
// Test Case ID: HTTP-03
func TestHTTP_RateLimit(t *testing.T) {
	router := NewRouter(NewHandler(fakePinger{}, "companies", "test"), NewRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusOK, serve(t, router, "/health", "192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusOK, serve(t, router, "/health", "192.0.2.1:1001").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, router, "/health", "192.0.2.1:1002").Code)
	assert.Equal(t, http.StatusOK, serve(t, router, "/health", "192.0.2.2:1000").Code)
}

// TestPurpose: Validates client IP extraction.
// Scope: Unit Test
// Expected: The first X-Forwarded-For hop wins; otherwise the port is stripped from RemoteAddr.
// Test Case ID: HTTP-04
func TestHTTP_GetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:4711"
	assert.Equal(t, "192.0.2.1", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.7", getClientIP(r))
}

// TestPurpose: Validates that idle clients are evicted from the limiter.
// Scope: Unit Test
// Expected: Entries older than the idle TTL are removed, fresh ones kept.
// Test Case ID: HTTP-05
func TestHTTP_RateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.GetLimiter("old")
	rl.GetLimiter("new")
	rl.visitors["old"].lastSeen = time.Now().Add(-time.Hour)

	rl.evict(time.Now())

	assert.NotContains(t, rl.visitors, "old")
	assert.Contains(t, rl.visitors, "new")
}
