package index

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/go-sod/quad/pkg/geom"
)

// LayerConfig overrides the defaults for one layer. Zero values and absent
// fields keep the default.
type LayerConfig struct {
	Bounds     *geom.Rect `toml:"bounds"`
	Capacity   int        `toml:"capacity"`
	MaxDepth   int        `toml:"max_depth"`
	AutoExpand *bool      `toml:"auto_expand"`
}

type layersFile struct {
	Layers map[string]LayerConfig `toml:"layers"`
}

// LoadLayers reads presets such as
//
//	[layers.cafes]
//	capacity = 8
//	auto_expand = false
//	bounds = { min_x = 0.0, min_y = 0.0, max_x = 100.0, max_y = 100.0 }
func LoadLayers(path string) (map[string]LayerConfig, error) {
	var f layersFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode layers file %s: %w", path, err)
	}
	for name, l := range f.Layers {
		if name == "" {
			return nil, fmt.Errorf("layers file %s: empty layer name: %w", path, ErrInvalidLayer)
		}
		if l.Bounds != nil {
			if err := l.Bounds.Validate(); err != nil {
				return nil, fmt.Errorf("layer %s bounds: %w", name, err)
			}
		}
		if l.Capacity < 0 || l.MaxDepth < 0 {
			return nil, fmt.Errorf("layer %s: negative capacity or max depth: %w", name, geom.ErrInvalidArgument)
		}
	}
	if f.Layers == nil {
		f.Layers = map[string]LayerConfig{}
	}
	return f.Layers, nil
}
