package api

import (
	"time"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"QUAD_API_REQUEST_TIMEOUT" default:"60s"`
	// Upper limit for points or ids in one request
	MaxDataItemsLen int `envconfig:"QUAD_API_MAX_DATA_ITEMS_LEN" default:"10000"`
}
