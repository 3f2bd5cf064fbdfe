package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"order-pipeline/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

const (
	HeaderRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"

	ctxRequestIDKey = "request_id"
	ctxLoggerKey    = "request_logger"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{8,64}$`)

// NewSlogLogger builds the process logger: JSON in release mode, text otherwise.
// Timestamps are rendered in the configured zone and format.
func NewSlogLogger(cfg config.LogConfig, service string) *slog.Logger {
	return newSlogLogger(os.Stdout, cfg, service)
}

func newSlogLogger(w io.Writer, cfg config.LogConfig, service string) *slog.Logger {
	timezone := time.FixedZone(cfg.TimeZone, cfg.TimeZoneOffset)

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.In(timezone).Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if gin.Mode() == gin.ReleaseMode {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if service != "" {
		logger = logger.With(slog.String("service", service))
	}
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogging tags each request with an id and stores a logger carrying
// the id, tenant and idempotency key. A well-formed inbound X-Request-ID is kept.
func RequestLogging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if !requestIDPattern.MatchString(requestID) {
			requestID = newRequestID(start)
		}
		c.Set(ctxRequestIDKey, requestID)
		c.Header(HeaderRequestID, requestID)

		attrs := []any{
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		}
		if tenantID := c.GetHeader(HeaderTenantID); tenantID != "" {
			attrs = append(attrs, slog.String("tenant_id", tenantID))
		}
		if key := c.GetHeader(headerIdempotencyKey); key != "" {
			attrs = append(attrs, slog.String("idempotency_key", key))
		}
		reqLogger := logger.With(attrs...)
		c.Set(ctxLoggerKey, reqLogger)

		reqLogger.Debug("request started", "client_ip", c.ClientIP())

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		done := []slog.Attr{
			slog.Int("status_code", status),
			slog.Duration("duration", time.Since(start)),
		}
		if size := c.Writer.Size(); size > 0 {
			done = append(done, slog.Int("response_size", size))
		}
		if len(c.Errors) > 0 {
			done = append(done, slog.String("errors", c.Errors.String()))
		}
		reqLogger.LogAttrs(c.Request.Context(), level, "request completed", done...)
	}
}

// RequestLogger returns the request-scoped logger, or fallback outside RequestLogging.
func RequestLogger(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if v, ok := c.Get(ctxLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return fallback
}

func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(ctxRequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

func newRequestID(now time.Time) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return now.UTC().Format("20060102150405.000000000")
	}
	return now.UTC().Format("20060102150405") + "-" + hex.EncodeToString(b)
}
