package bootstrap

import (
	"log/slog"

	"order-pipeline/internal/handler/middleware"
	"order-pipeline/internal/pkg/config"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewLogger,
	),
)

// ServiceName is tagged on every log line; each binary supplies its own.
type ServiceName string

func NewLogger(cfg config.Config, service ServiceName) *slog.Logger {
	return middleware.NewSlogLogger(cfg.Log, string(service))
}
