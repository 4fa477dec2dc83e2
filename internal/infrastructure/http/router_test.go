package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userauth/auth-service/internal/infrastructure/http/handlers"
)

func okCheck(context.Context) error { return nil }

func TestOpsRouter_Liveness(t *testing.T) {
	e := NewOpsRouter(nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestOpsRouter_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]handlers.Check
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all healthy",
			checks:     map[string]handlers.Check{"mongodb": okCheck, "redis": okCheck},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "redis down",
			checks: map[string]handlers.Check{
				"mongodb": okCheck,
				"redis":   func(context.Context) error { return errors.New("connection refused") },
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewOpsRouter(tc.checks)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			require.Equal(t, tc.wantCode, rec.Code)
			var body struct {
				Status       string                       `json:"status"`
				Dependencies map[string]map[string]string `json:"dependencies"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantStatus, body.Status)
			assert.Len(t, body.Dependencies, len(tc.checks))
		})
	}
}

func TestOpsRouter_Metrics(t *testing.T) {
	e := NewOpsRouter(nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}
