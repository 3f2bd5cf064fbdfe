//go:build unit

package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"order-pipeline/internal/handler/httperr"
	"order-pipeline/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireTenant(t *testing.T) {
	r := gin.New()
	r.Use(RequireTenant())
	r.GET("/t", func(c *gin.Context) {
		id, ok := GetTenantID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id)
	})

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"accepts a plain tenant", "tenant-a", http.StatusOK, "tenant-a"},
		{"trims whitespace", "  tenant_b ", http.StatusOK, "tenant_b"},
		{"rejects missing header", "", http.StatusBadRequest, ""},
		{"rejects key separators", "a:b", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/t", nil)
			if tc.header != "" {
				req.Header.Set(HeaderTenantID, tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"kind":"InvalidRequest"`)
			}
		})
	}
}

func TestRequestLogging(t *testing.T) {
	t.Run("keeps a well-formed inbound request id", func(t *testing.T) {
		var buf bytes.Buffer
		r := gin.New()
		r.Use(RequestLogging(newTestLogger(&buf)))
		r.GET("/x", func(c *gin.Context) {
			assert.Equal(t, "req-12345678", GetRequestID(c))
			c.Status(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(HeaderRequestID, "req-12345678")
		req.Header.Set(HeaderTenantID, "tenant-a")
		w := serve(r, req)

		assert.Equal(t, "req-12345678", w.Header().Get(HeaderRequestID))
		assert.Contains(t, buf.String(), "request_id=req-12345678")
		assert.Contains(t, buf.String(), "tenant_id=tenant-a")
		assert.Contains(t, buf.String(), "status_code=204")
	})

	t.Run("replaces a malformed request id", func(t *testing.T) {
		var buf bytes.Buffer
		r := gin.New()
		r.Use(RequestLogging(newTestLogger(&buf)))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(HeaderRequestID, "bad id\n")
		w := serve(r, req)

		got := w.Header().Get(HeaderRequestID)
		assert.NotEqual(t, "bad id\n", got)
		assert.Regexp(t, requestIDPattern, got)
	})

	t.Run("handlers see the request logger", func(t *testing.T) {
		var buf bytes.Buffer
		fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		r := gin.New()
		r.Use(RequestLogging(newTestLogger(&buf)))
		r.GET("/x", func(c *gin.Context) {
			RequestLogger(c, fallback).Info("inside handler")
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(headerIdempotencyKey, "key-1")
		serve(r, req)

		assert.Contains(t, buf.String(), `msg="inside handler"`)
		assert.Contains(t, buf.String(), "idempotency_key=key-1")
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(newTestLogger(&buf)))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"Internal"`)
	assert.Contains(t, buf.String(), "kaboom")
}

func TestErrorHandler(t *testing.T) {
	t.Run("renders a public error that was not written", func(t *testing.T) {
		r := gin.New()
		r.Use(ErrorHandler())
		r.GET("/e", func(c *gin.Context) {
			_ = c.Error(gin.Error{
				Err:  errors.New("nope"),
				Type: gin.ErrorTypePublic,
				Meta: httperr.NewResponse(http.StatusNotFound, "NotFound", "missing", nil),
			})
		})

		w := serve(r, httptest.NewRequest(http.MethodGet, "/e", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":{"message":"missing","kind":"NotFound"}}`, w.Body.String())
	})

	t.Run("falls back to an internal error", func(t *testing.T) {
		r := gin.New()
		r.Use(ErrorHandler())
		r.GET("/e", func(c *gin.Context) { _ = c.Error(errors.New("private")) })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/e", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"Internal"`)
	})
}

func TestCORSExposesOrderHeaders(t *testing.T) {
	cfg := config.CORSConfig{
		AllowOrigins: []string{"http://shop.example"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"content-type"},
	}
	r := gin.New()
	r.Use(NewCORSMiddleware(cfg, newTestLogger(&bytes.Buffer{})))
	r.GET("/c", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/c", nil)
	req.Header.Set("Origin", "http://shop.example")
	w := serve(r, req)

	exposed := w.Header().Get("Access-Control-Expose-Headers")
	for _, h := range []string{"Location", "Retry-After", "Idempotent-Replayed"} {
		assert.Contains(t, exposed, h)
	}
}

func TestMergeHeaders(t *testing.T) {
	got := mergeHeaders([]string{"content-type", "X-Custom"}, requiredAllowHeaders)
	assert.Equal(t, []string{"content-type", "X-Custom", headerIdempotencyKey, HeaderTenantID, HeaderRequestID}, got)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewSlogLoggerTagsService(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := newSlogLogger(&buf, config.LogConfig{Level: "info", TimeZone: "UTC", TimeFormat: "2006-01-02"}, "order-api")
	logger.Info("hello")

	assert.Contains(t, buf.String(), "service=order-api")
	assert.Contains(t, buf.String(), "hello")
}
