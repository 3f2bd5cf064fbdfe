package bootstrap

import (
	"order-pipeline/cmd/bootstrap/components"
	"order-pipeline/internal/pkg/config"

	"go.uber.org/fx"
)

// ConfigModule loads the env config once and hands the order bounds to the
// usecase layer separately.
var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.OrderConfig {
			return cfg.Order
		},
	),
)

// Module is the full API process: stores, mail producer, metrics and HTTP.
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	MetricsModule,
	DBModule,
	RedisModule,
	MailModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.HandlerModule,
)
