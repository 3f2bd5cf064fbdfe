package bootstrap

import (
	"context"
	"log/slog"

	"order-pipeline/internal/infra/mail"
	"order-pipeline/internal/pkg/clock"
	"order-pipeline/internal/pkg/config"

	"go.uber.org/fx"
)

var MailModule = fx.Module("mail",
	fx.Provide(
		NewMailDispatcher,
	),
)

// NewMailDispatcher starts the writer loop; OnStop flushes buffered jobs.
func NewMailDispatcher(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) *mail.Dispatcher {
	w := mail.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.MailTopic)
	d := mail.NewDispatcher(w, cfg.Kafka.MailBuffer, clk, logger)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("flushing mail queue")
			d.Close()
			return nil
		},
	})

	return d
}
