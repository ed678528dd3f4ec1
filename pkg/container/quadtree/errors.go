package quadtree

import (
	"errors"

	"github.com/go-sod/quad/pkg/geom"
)

var (
	// ErrInvalidArgument marks out of range settings and non-finite item
	// coordinates. It is the same value as geom.ErrInvalidArgument.
	ErrInvalidArgument = geom.ErrInvalidArgument
	// ErrInvalidState is returned by New when bounds or adapter are missing.
	ErrInvalidState = errors.New("invalid state")
)
