package config

import (
	"github.com/go-sod/quad/internal/api"
	"github.com/go-sod/quad/internal/database"
	"github.com/go-sod/quad/internal/index"
	"github.com/go-sod/quad/internal/setup"
)

var (
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.IndexConfigProvider    = (*Config)(nil)
	_ setup.APIConfigProvider      = (*Config)(nil)
	_ setup.MetricConfigProvider   = (*Config)(nil)
)

type Config struct {
	SrvAddr string `envconfig:"QUAD_ADDR" default:":8787"`
	// Limit of simultaneously served connections, 0 is unlimited
	MaxConns int `envconfig:"QUAD_MAX_CONNS" default:"0"`
	// Persist points in bbolt, otherwise layers live in memory only
	Persist bool `envconfig:"QUAD_PERSIST" default:"true"`
	// Prometheus namespace of exported metrics, empty disables /metrics
	MetricNamespace string `envconfig:"QUAD_METRIC_NAMESPACE" default:"quad"`
	Index           index.Config
	API             api.Config
	Database        database.Config
}

func (c *Config) DatabaseConfig() *database.Config {
	if !c.Persist {
		return nil
	}
	return &c.Database
}

func (c *Config) IndexConfig() *index.Config {
	return &c.Index
}

func (c *Config) APIConfig() *api.Config {
	return &c.API
}

func (c *Config) MetricNamespaceName() string {
	return c.MetricNamespace
}
