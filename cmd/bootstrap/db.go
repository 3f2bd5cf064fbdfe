package bootstrap

import (
	"context"
	"log/slog"

	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var DBModule = fx.Module("db",
	fx.Provide(
		NewDB,
	),
)

// NewDB opens the pool and exports its occupancy, which bounds how many
// order transactions can run at once.
func NewDB(lc fx.Lifecycle, cfg config.Config, reg prometheus.Registerer, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("database pool ready",
		"host", cfg.DB.Host,
		"database", cfg.DB.DBName,
		"max_conns", pool.Config().MaxConns)

	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "order_pipeline",
			Subsystem: "db_pool",
			Name:      "acquired_conns",
			Help:      "Connections currently checked out of the pool.",
		}, func() float64 { return float64(pool.Stat().AcquiredConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "order_pipeline",
			Subsystem: "db_pool",
			Name:      "max_conns",
			Help:      "Configured pool size.",
		}, func() float64 { return float64(pool.Stat().MaxConns()) }),
	)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return pool, nil
}
