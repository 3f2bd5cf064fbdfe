package components

import (
	"order-pipeline/internal/handler"
	"order-pipeline/internal/handler/api"
	"order-pipeline/internal/infra/cache"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewOrderHandler,
		NewHealthHandler,
	),
	fx.Invoke(handler.NewRouter),
)

func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client) *api.HealthHandler {
	return api.NewHealthHandler(map[string]api.Pinger{
		"postgres": pool,
		"redis":    cache.NewPinger(rdb),
	})
}
