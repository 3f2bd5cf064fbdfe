//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"order-pipeline/internal/handler/api"
	"order-pipeline/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	up := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	cases := []struct {
		name       string
		checks     map[string]api.Pinger
		wantCode   int
		wantStatus string
		wantDeps   map[string]string
	}{
		{
			name:       "all dependencies up",
			checks:     map[string]api.Pinger{"postgres": up, "redis": up},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantDeps:   map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:       "redis down",
			checks:     map[string]api.Pinger{"postgres": up, "redis": down},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantDeps:   map[string]string{"postgres": "ok", "redis": "unavailable"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", api.NewHealthHandler(tc.checks).Check)

			rec := httptest.PerformRequest(t, router, http.MethodGet, "/health", nil, nil)

			assert.Equal(t, tc.wantCode, rec.Code)
			var body struct {
				Status       string            `json:"status"`
				Dependencies map[string]string `json:"dependencies"`
			}
			assert.NoError(t, httptest.DecodeResponseBody(t, rec.Body, &body))
			assert.Equal(t, tc.wantStatus, body.Status)
			assert.Equal(t, tc.wantDeps, body.Dependencies)
		})
	}
}
