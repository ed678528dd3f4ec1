package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sod/quad/pkg/geom"
)

func TestBounds_Decode(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected geom.Rect
		wantErr  bool
	}{
		{
			name:     "plain",
			value:    "-10,-20,30,40",
			expected: geom.Rect{MinX: -10, MinY: -20, MaxX: 30, MaxY: 40},
		},
		{
			name:     "spaces",
			value:    " 0, 0 , 1.5,2 ",
			expected: geom.Rect{MaxX: 1.5, MaxY: 2},
		},
		{name: "short", value: "0,0,1", wantErr: true},
		{name: "not_a_number", value: "0,0,a,1", wantErr: true},
		{name: "inverted", value: "10,0,0,10", wantErr: true},
		{name: "nan", value: "NaN,0,1,1", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var b Bounds
			err := b.Decode(test.value)
			if (err != nil) != test.wantErr {
				t.Fatalf("decode %q, got: %v, expected error: %v", test.value, err, test.wantErr)
			}
			if err == nil && b.Rect() != test.expected {
				t.Errorf("decode %q, got: %v, expected: %v", test.value, b.Rect(), test.expected)
			}
		})
	}
}

func TestLoadLayers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, layers map[string]LayerConfig)
		wantErr error
	}{
		{
			name: "full",
			content: `
[layers.cafes]
capacity = 8
max_depth = 4
auto_expand = false
bounds = { min_x = 0.0, min_y = 0.0, max_x = 100.0, max_y = 50.0 }

[layers.shops]
capacity = 2
`,
			check: func(t *testing.T, layers map[string]LayerConfig) {
				cafes, ok := layers["cafes"]
				if !ok {
					t.Fatalf("cafes, got: missing, expected: present")
				}
				if cafes.Capacity != 8 || cafes.MaxDepth != 4 {
					t.Errorf("cafes, got: %+v, expected: capacity 8 max depth 4", cafes)
				}
				if cafes.AutoExpand == nil || *cafes.AutoExpand {
					t.Errorf("cafes auto expand, got: %v, expected: false", cafes.AutoExpand)
				}
				expected := geom.Rect{MaxX: 100, MaxY: 50}
				if cafes.Bounds == nil || *cafes.Bounds != expected {
					t.Errorf("cafes bounds, got: %v, expected: %v", cafes.Bounds, expected)
				}
				shops := layers["shops"]
				if shops.Bounds != nil || shops.AutoExpand != nil || shops.Capacity != 2 {
					t.Errorf("shops, got: %+v, expected: only capacity set", shops)
				}
			},
		},
		{
			name:    "empty",
			content: ``,
			check: func(t *testing.T, layers map[string]LayerConfig) {
				if layers == nil || len(layers) != 0 {
					t.Errorf("layers, got: %v, expected: empty map", layers)
				}
			},
		},
		{
			name: "bad_bounds",
			content: `
[layers.a]
bounds = { min_x = 10.0, min_y = 0.0, max_x = 0.0, max_y = 1.0 }
`,
			wantErr: geom.ErrInvalidArgument,
		},
		{
			name: "negative_capacity",
			content: `
[layers.a]
capacity = -1
`,
			wantErr: geom.ErrInvalidArgument,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "layers.toml")
			if err := os.WriteFile(path, []byte(test.content), 0600); err != nil {
				t.Fatalf("write file, got: %v, expected: nil", err)
			}
			layers, err := LoadLayers(path)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Errorf("load layers, got: %v, expected: %v", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("load layers, got: %v, expected: nil", err)
			}
			test.check(t, layers)
		})
	}
}

func TestLoadLayers_Missing(t *testing.T) {
	if _, err := LoadLayers(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Errorf("load missing file, got: nil, expected: error")
	}
}
