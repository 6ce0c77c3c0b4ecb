// Package config loads the settings of the signal network background.
//
// Settings come from built-in defaults, optionally overlaid by a YAML file,
// then by command-line flags. Validate is called once after all layers are
// applied.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iburimskiy/signal-network/internal/logging"
	"github.com/iburimskiy/signal-network/internal/network"
)

const (
	WindowWidth  = 1024
	WindowHeight = 512

	DefaultLineCount       = 50
	DefaultSignalDensity   = 8
	DefaultSpeedMultiplier = 1.0
	DefaultBackground      = "#05070d"

	// FrameRingSize is the number of recent frame durations kept for the
	// debug overlay.
	FrameRingSize = 120
)

// Config is the full configuration of the application.
type Config struct {
	// LineCount is the number of curves in the network. Zero yields an
	// empty network.
	LineCount int `yaml:"line_count"`

	// SignalDensity is the target number of concurrently live signals.
	SignalDensity int `yaml:"signal_density"`

	// SpeedMultiplier scales every signal speed.
	SpeedMultiplier float64 `yaml:"speed_multiplier"`

	// BackgroundColor is an opaque "#rrggbb" fill colour.
	BackgroundColor string `yaml:"background_color"`

	// Seed fixes the random source. Zero seeds from the clock.
	Seed uint64 `yaml:"seed"`

	Window WindowConfig `yaml:"window"`

	Log logging.Config `yaml:"log"`

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `yaml:"metrics_addr"`
}

// WindowConfig configures the interactive window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LineCount:       DefaultLineCount,
		SignalDensity:   DefaultSignalDensity,
		SpeedMultiplier: DefaultSpeedMultiplier,
		BackgroundColor: DefaultBackground,
		Window: WindowConfig{
			Width:  WindowWidth,
			Height: WindowHeight,
			Title:  "Signal Network",
		},
		Log: logging.Config{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults. Fields missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the renderer cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.LineCount < 0 {
		errs = append(errs, fmt.Errorf("line_count must be >= 0, got %d", c.LineCount))
	}
	if c.SignalDensity < 0 {
		errs = append(errs, fmt.Errorf("signal_density must be >= 0, got %d", c.SignalDensity))
	}
	if c.SpeedMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("speed_multiplier must be positive, got %v", c.SpeedMultiplier))
	}
	if _, err := c.Background(); err != nil {
		errs = append(errs, err)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	return errors.Join(errs...)
}

// Background parses BackgroundColor.
func (c *Config) Background() (network.Color, error) {
	col, err := network.ParseHex(c.BackgroundColor)
	if err != nil {
		return network.Color{}, fmt.Errorf("background_color %q: %w", c.BackgroundColor, err)
	}
	return col, nil
}

// Params returns the lifecycle parameters derived from c.
func (c *Config) Params() network.Params {
	return network.Params{
		Density:         c.SignalDensity,
		SpeedMultiplier: c.SpeedMultiplier,
	}
}
