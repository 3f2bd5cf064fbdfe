package components

import (
	"log/slog"

	"order-pipeline/internal/pkg/clock"
	"order-pipeline/internal/pkg/config"
	"order-pipeline/internal/usecase/commands"
	"order-pipeline/internal/usecase/queries"
	"order-pipeline/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewOrderCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewOrderQueries,
	),
)

type OrderCommandParams struct {
	fx.In

	UoW         shared.UnitOfWork
	Locker      commands.CartLocker
	Idempotency commands.IdempotencyStore
	Sequences   commands.SequenceGenerator
	Invalidator commands.ReadCacheInvalidator
	Mail        commands.MailDispatcher
	Queries     queries.OrderQueries
	Metrics     commands.OrderMetrics
	Clock       clock.Clock
	Config      config.OrderConfig
	Logger      *slog.Logger
}

func NewOrderCommands(p OrderCommandParams) commands.OrderCommands {
	return commands.NewOrderCommands(commands.OrderDeps{
		UoW:         p.UoW,
		Locker:      p.Locker,
		Idempotency: p.Idempotency,
		Sequences:   p.Sequences,
		Invalidator: p.Invalidator,
		Mail:        p.Mail,
		Queries:     p.Queries,
		Metrics:     p.Metrics,
		Clock:       p.Clock,
		Config:      p.Config,
		Logger:      p.Logger,
	})
}
