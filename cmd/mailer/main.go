package main

import (
	"context"
	"log/slog"
	"os"

	"order-pipeline/cmd/bootstrap"
	"order-pipeline/internal/infra/mail"
	"order-pipeline/internal/pkg/config"

	"go.uber.org/fx"
)

// runConsumer reads order mail jobs until the app stops.
func runConsumer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	reader := mail.NewReader(cfg.Kafka.Brokers, cfg.Kafka.MailGroup, cfg.Kafka.MailTopic)
	consumer := mail.NewConsumer(reader, cfg.Kafka.Workers, logger)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("starting mail consumer",
				"topic", cfg.Kafka.MailTopic,
				"group", cfg.Kafka.MailGroup,
				"workers", cfg.Kafka.Workers)
			go func() {
				defer close(done)
				if err := consumer.Run(ctx, mail.OrderPlacedHandler(logger)); err != nil {
					logger.Error("mail consumer stopped", "error", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.ConfigModule,
		fx.Supply(bootstrap.ServiceName("order-mailer")),
		bootstrap.LoggerModule,
		fx.Invoke(runConsumer),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("failed to start mailer", "error", err)
		os.Exit(1)
	}

	sig := <-app.Wait()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("failed to stop mailer", "error", err)
	}
	os.Exit(sig.ExitCode)
}
