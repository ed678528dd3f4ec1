package database

import "time"

type Config struct {
	FileName string        `envconfig:"QUAD_DB_FILE" default:"quad.db"`
	Timeout  time.Duration `envconfig:"QUAD_DB_OPEN_TIMEOUT" default:"5s"`
}
