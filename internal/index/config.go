package index

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sod/quad/pkg/geom"
)

type Config struct {
	// Optional TOML file with per layer presets
	LayersFile string `envconfig:"QUAD_LAYERS_FILE"`
	// Bounds of layers that have no preset
	DefaultBounds Bounds `envconfig:"QUAD_DEFAULT_BOUNDS" default:"-1000,-1000,1000,1000"`
	// Items a node holds before it splits
	Capacity int `envconfig:"QUAD_CAPACITY" default:"16"`
	// Depth at which nodes stop splitting
	MaxDepth int `envconfig:"QUAD_MAX_DEPTH" default:"16"`
	// Grow the root to fit points outside the bounds instead of rejecting them
	AutoExpand bool `envconfig:"QUAD_AUTO_EXPAND" default:"true"`
	// Upper limit for k in nearest neighbour requests
	MaxKNN int `envconfig:"QUAD_MAX_KNN" default:"1000"`
	// Period of layer size reporting
	StatsInterval time.Duration `envconfig:"QUAD_STATS_INTERVAL" default:"15s"`
}

// Bounds is a rectangle read from "minX,minY,maxX,maxY".
type Bounds geom.Rect

func (b *Bounds) Decode(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return fmt.Errorf("bounds %q: expected minX,minY,maxX,maxY", value)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("bounds %q: %w", value, err)
		}
		v[i] = f
	}
	r, err := geom.NewRect(v[0], v[1], v[2], v[3])
	if err != nil {
		return fmt.Errorf("bounds %q: %w", value, err)
	}
	*b = Bounds(r)
	return nil
}

func (b Bounds) Rect() geom.Rect {
	return geom.Rect(b)
}
