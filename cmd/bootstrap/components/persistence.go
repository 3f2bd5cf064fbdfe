package components

import (
	"order-pipeline/internal/infra/cache"
	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/infra/mail"
	"order-pipeline/internal/infra/metrics"
	"order-pipeline/internal/infra/readstore"
	"order-pipeline/internal/infra/repository"
	"order-pipeline/internal/infra/uow"
	"order-pipeline/internal/usecase/commands"
	"order-pipeline/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	repositoryModule,
	cacheModule,
	adapterModule,
)

var baseOption = fx.Provide(
	NewDBTX,
	NewRedisCmdable,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewOrderReadStore,
			fx.As(new(queries.OrderReadStore)),
		),
	),
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		// UnitOfWork hands out the tx-bound product, customer and order repositories
		uow.NewPostgresUoW,
		fx.Annotate(
			repository.NewSequenceRepository,
			fx.As(new(commands.SequenceGenerator)),
		),
	),
)

var cacheModule = fx.Module("persistence/cache",
	fx.Provide(
		fx.Annotate(
			cache.NewCartLocker,
			fx.As(new(commands.CartLocker)),
		),
		fx.Annotate(
			cache.NewIdempotencyStore,
			fx.As(new(commands.IdempotencyStore)),
		),
		fx.Annotate(
			cache.NewReadCacheInvalidator,
			fx.As(new(commands.ReadCacheInvalidator)),
		),
	),
)

var adapterModule = fx.Module("persistence/adapters",
	fx.Provide(
		fx.Annotate(
			func(d *mail.Dispatcher) *mail.Dispatcher { return d },
			fx.As(new(commands.MailDispatcher)),
		),
		fx.Annotate(
			metrics.NewOrderMetrics,
			fx.As(new(commands.OrderMetrics)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

func NewRedisCmdable(rdb *redis.Client) redis.Cmdable {
	return rdb
}
