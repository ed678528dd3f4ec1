package setup

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/go-sod/quad/internal/api"
	"github.com/go-sod/quad/internal/database"
	"github.com/go-sod/quad/internal/index"
	"github.com/go-sod/quad/internal/logging"
	"github.com/go-sod/quad/internal/metric"
	"github.com/go-sod/quad/internal/srvenv"
)

type DatabaseConfigProvider interface {
	// nil disables persistence
	DatabaseConfig() *database.Config
}

type IndexConfigProvider interface {
	IndexConfig() *index.Config
}

type APIConfigProvider interface {
	APIConfig() *api.Config
}

type MetricConfigProvider interface {
	MetricNamespaceName() string
}

// Setup reads the environment into config and builds the server environment
// for whichever providers config implements.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var db *database.DB
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		if cfg := dbConfigProvider.DatabaseConfig(); cfg != nil {
			logger.Info("Configuring db")
			dbFromEnv, err := database.NewFromEnv(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("unable to connect to database: %w", err)
			}
			db = dbFromEnv
			serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
		} else {
			logger.Info("Persistence disabled, layers are kept in memory")
		}
	}

	if indexConfigProvider, ok := config.(IndexConfigProvider); ok {
		logger.Info("Configuring index")
		provideFn, err := ProvideIndexFor(ctx, indexConfigProvider, db)
		if err != nil {
			return nil, fmt.Errorf("unable create index provide function: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithIndex(provideFn))
	}

	if metricConfigProvider, ok := config.(MetricConfigProvider); ok && metricConfigProvider.MetricNamespaceName() != "" {
		logger.Info("Configuring metrics")
		exporter, err := metric.NewExporter(metricConfigProvider.MetricNamespaceName())
		if err != nil {
			return nil, fmt.Errorf("unable create metrics exporter: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithMetrics(exporter))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideIndexFor(ctx context.Context, provider IndexConfigProvider, db *database.DB) (index.ProvideFn, error) {
	cfg := provider.IndexConfig()
	var layers map[string]index.LayerConfig
	if cfg.LayersFile != "" {
		loaded, err := index.LoadLayers(cfg.LayersFile)
		if err != nil {
			return nil, fmt.Errorf("unable load layer presets: %w", err)
		}
		logging.FromContext(ctx).Infof("loaded %d layer presets from %s", len(loaded), cfg.LayersFile)
		layers = loaded
	}

	return func() (index.Manager, error) {
		m, err := index.New(
			db,
			index.WithDefaultBounds(cfg.DefaultBounds.Rect()),
			index.WithCapacity(cfg.Capacity),
			index.WithMaxDepth(cfg.MaxDepth),
			index.WithAutoExpand(cfg.AutoExpand),
			index.WithMaxKNN(cfg.MaxKNN),
			index.WithStatsInterval(cfg.StatsInterval),
			index.WithLayers(layers),
		)
		if err != nil {
			return nil, err
		}
		return m, nil
	}, nil
}
