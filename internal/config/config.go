// Package config handles view map configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/viewmap/internal/chain"
	"github.com/Faultbox/viewmap/internal/feature"
	"github.com/Faultbox/viewmap/internal/pipeline"
	"github.com/Faultbox/viewmap/internal/sweep"
	"github.com/Faultbox/viewmap/internal/visibility"
)

// Config holds all view map settings.
type Config struct {
	ViewMap ViewMapConfig `yaml:"view_map"`
	Grid    GridConfig    `yaml:"grid"`
	Logging LoggingConfig `yaml:"logging"`
}

// ViewMapConfig holds the feature extraction and visibility settings.
type ViewMapConfig struct {
	CreaseAngle              float64 `yaml:"crease_angle"`        // degrees
	SphereRadiusRatio        float64 `yaml:"sphere_radius_ratio"` // <= 0 uses the one-ring
	EnableRidgesValleys      bool    `yaml:"enable_ridges_valleys"`
	EnableSuggestiveContours bool    `yaml:"enable_suggestive_contours"`

	SuggestiveContourKrDerivativeEpsilon float64 `yaml:"suggestive_contour_kr_derivative_epsilon"`

	VisibilityAlgorithm string  `yaml:"visibility_algorithm"` // exhaustive, fast or very_fast
	IntersectionEpsilon float64 `yaml:"intersection_epsilon"`
	ChainCornerAngle    float64 `yaml:"chain_corner_angle"` // degrees, <= 0 disables corners
	ComputeCusps        bool    `yaml:"compute_cusps"`
}

// GridConfig holds occluder grid settings.
type GridConfig struct {
	Cells int `yaml:"cells"` // Target number of cells
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		ViewMap: ViewMapConfig{
			CreaseAngle:                          134.43,
			SphereRadiusRatio:                    1.0,
			EnableRidgesValleys:                  false,
			EnableSuggestiveContours:             false,
			SuggestiveContourKrDerivativeEpsilon: 0,
			VisibilityAlgorithm:                  "exhaustive",
			IntersectionEpsilon:                  1e-6,
			ChainCornerAngle:                     45,
			ComputeCusps:                         true,
		},
		Grid: GridConfig{
			Cells: 1000,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	v := c.ViewMap
	if v.CreaseAngle <= 0 || v.CreaseAngle > 180 {
		err = multierr.Append(err, fmt.Errorf("view_map.crease_angle %v out of range (0, 180]", v.CreaseAngle))
	}
	if v.SuggestiveContourKrDerivativeEpsilon < 0 {
		err = multierr.Append(err, errors.New("view_map.suggestive_contour_kr_derivative_epsilon must not be negative"))
	}
	if _, e := visibility.ParseAlgorithm(v.VisibilityAlgorithm); e != nil {
		err = multierr.Append(err, fmt.Errorf("view_map.visibility_algorithm: %w", e))
	}
	if v.IntersectionEpsilon <= 0 {
		err = multierr.Append(err, errors.New("view_map.intersection_epsilon must be positive"))
	}
	if v.ChainCornerAngle >= 180 {
		err = multierr.Append(err, fmt.Errorf("view_map.chain_corner_angle %v must be below 180", v.ChainCornerAngle))
	}
	if c.Grid.Cells <= 0 {
		err = multierr.Append(err, errors.New("grid.cells must be positive"))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	return err
}

// PipelineOptions converts the settings into stage options.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	if err := c.Validate(); err != nil {
		return pipeline.Options{}, err
	}
	v := c.ViewMap
	algo, _ := visibility.ParseAlgorithm(v.VisibilityAlgorithm)
	return pipeline.Options{
		Feature: feature.Options{
			CreaseAngle:         v.CreaseAngle,
			SphereRadiusRatio:   v.SphereRadiusRatio,
			RidgesAndValleys:    v.EnableRidgesValleys,
			SuggestiveContours:  v.EnableSuggestiveContours,
			KrDerivativeEpsilon: v.SuggestiveContourKrDerivativeEpsilon,
		},
		Chain: chain.Options{CornerAngle: v.ChainCornerAngle},
		Sweep: sweep.Options{Epsilon: v.IntersectionEpsilon},
		Visibility: visibility.Options{
			Algorithm: algo,
			Epsilon:   v.IntersectionEpsilon,
		},
		GridCells:    c.Grid.Cells,
		ComputeCusps: v.ComputeCusps,
	}, nil
}
