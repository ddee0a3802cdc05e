// Package sheet implements the sprite-sheet analysis core: grid-layout
// detection, cell splitting, edge-seeded background removal, and
// content-bounded cropping/resizing. Every operation is a pure transform
// over in-memory NRGBA buffers; decoding, file walking, and encoding belong
// to the callers.
package sheet

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable parameters of the extraction pipeline. It is
// created once per run and read-only afterwards; every stage takes it by
// value and never writes back.
type Config struct {
	// WhiteThreshold is the channel value at or above which a pixel counts
	// as white background. All three of R, G, B must pass.
	WhiteThreshold int `yaml:"white_threshold"`

	// GridLineThreshold is the mean brightness below which a row or column
	// would count as a dark separator line. Detection currently uses
	// WhiteThreshold with a fixed fill ratio instead; the field is kept so
	// config files round-trip.
	GridLineThreshold int `yaml:"grid_line_threshold"`

	// GridLineMinCoverage is the fraction of dark pixels a separator line
	// would need. Superseded by the fixed fill ratio, kept like above.
	GridLineMinCoverage float64 `yaml:"grid_line_min_coverage"`

	// Padding is added around the content bounding box when cropping,
	// clamped to the cell bounds.
	Padding int `yaml:"padding"`

	// OutputSize is the side of the square output canvas. 0 keeps the
	// cropped size.
	OutputSize int `yaml:"output_size"`

	// FloodFillTolerance widens the flood-fill expansion predicate: a pixel
	// expands the fill if every channel is >= WhiteThreshold-FloodFillTolerance.
	FloodFillTolerance int `yaml:"flood_fill_tolerance"`

	// MinSpritePixels is the minimum number of opaque pixels a cropped cell
	// needs to count as containing a sprite.
	MinSpritePixels int `yaml:"min_sprite_pixels"`

	// GapMinWidth is the minimum width of a low-content band recognised as
	// a grid gap by the projection strategy.
	GapMinWidth int `yaml:"gap_min_width"`
}

// DefaultConfig returns the configuration the CLI advertises as defaults.
func DefaultConfig() Config {
	return Config{
		WhiteThreshold:      230,
		GridLineThreshold:   80,
		GridLineMinCoverage: 0.8,
		Padding:             10,
		OutputSize:          512,
		FloodFillTolerance:  25,
		MinSpritePixels:     200,
		GapMinWidth:         8,
	}
}

// LoadConfig reads a YAML file and applies it on top of base. Fields absent
// from the file keep their base values.
func LoadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	conf := base
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return base, fmt.Errorf("could not parse config file %q: %w", path, err)
	}

	if err := conf.validate(); err != nil {
		return base, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return conf, nil
}

func (c Config) validate() error {
	switch {
	case c.WhiteThreshold < 0 || c.WhiteThreshold > 255:
		return fmt.Errorf("white_threshold out of range: %d", c.WhiteThreshold)
	case c.Padding < 0:
		return fmt.Errorf("negative padding: %d", c.Padding)
	case c.OutputSize < 0:
		return fmt.Errorf("negative output_size: %d", c.OutputSize)
	case c.FloodFillTolerance < 0:
		return fmt.Errorf("negative flood_fill_tolerance: %d", c.FloodFillTolerance)
	case c.MinSpritePixels < 0:
		return fmt.Errorf("negative min_sprite_pixels: %d", c.MinSpritePixels)
	case c.GapMinWidth < 0:
		return fmt.Errorf("negative gap_min_width: %d", c.GapMinWidth)
	}
	return nil
}
