// Package config loads the demo configuration from TOML or YAML, validates it and
// hot-reloads the flock parameters of a running scene.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-birds/common"
	"github.com/Carmen-Shannon/oxy-birds/common/logger"
	"github.com/Carmen-Shannon/oxy-birds/engine/birds"
	"github.com/Carmen-Shannon/oxy-birds/engine/flock"
	"github.com/Carmen-Shannon/oxy-birds/engine/scene"
)

var (
	// ErrInvalidFlock wraps flock parameter and quantity problems.
	ErrInvalidFlock = errors.New("config: invalid flock")
	// ErrInvalidColorMode is returned for color modes outside 0..4.
	ErrInvalidColorMode = errors.New("config: invalid color mode")
	// ErrInvalidColor is returned for colors above 0xffffff.
	ErrInvalidColor = errors.New("config: invalid color")
	// ErrInvalidConfig covers the remaining sections.
	ErrInvalidConfig = errors.New("config: invalid configuration")
	// ErrUnsupportedFormat is returned by Load for extensions other than .toml, .yaml and .yml.
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
)

// Compute backend names.
const (
	BackendGPU = "gpu"
	BackendCPU = "cpu"
)

// Config is the complete demo configuration.
type Config struct {
	Window   WindowConfig     `toml:"window" yaml:"window"`
	Renderer RendererConfig   `toml:"renderer" yaml:"renderer"`
	Compute  ComputeConfig    `toml:"compute" yaml:"compute"`
	Birds    BirdsConfig      `toml:"birds" yaml:"birds"`
	Flock    flock.Parameters `toml:"flock" yaml:"flock"`
	Logging  logger.Config    `toml:"logging" yaml:"logging"`
	Metrics  MetricsConfig    `toml:"metrics" yaml:"metrics"`
}

// WindowConfig sizes the window.
type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

// RendererConfig holds surface settings.
type RendererConfig struct {
	// Background is the packed 0xRRGGBB clear color.
	Background uint32 `toml:"background" yaml:"background"`
	VSync      bool   `toml:"vsync" yaml:"vsync"`
	// MSAA is the sample count: 1 or 4.
	MSAA int `toml:"msaa" yaml:"msaa"`
}

// ComputeConfig selects the simulation backend.
type ComputeConfig struct {
	// Backend is "gpu" or "cpu".
	Backend string `toml:"backend" yaml:"backend"`
	// Workers sizes the CPU backend's pool. Zero picks GOMAXPROCS.
	Workers int `toml:"workers" yaml:"workers"`
	// HalfFloat allows rgba16float targets when rgba32float is unavailable.
	HalfFloat bool `toml:"half_float" yaml:"half_float"`
}

// BirdsConfig describes the flock mesh.
type BirdsConfig struct {
	// Quantity is the grid width; the flock holds Quantity² birds unless Agents is set.
	Quantity  int     `toml:"quantity" yaml:"quantity"`
	// Agents overrides Quantity with an exact bird count. The grid rounds up to the next square.
	Agents    int     `toml:"agents" yaml:"agents"`
	WingSpan  float32 `toml:"wing_span" yaml:"wing_span"`
	ColorMode int     `toml:"color_mode" yaml:"color_mode"`
	Color1    uint32  `toml:"color1" yaml:"color1"`
	Color2    uint32  `toml:"color2" yaml:"color2"`
	Seed      uint64  `toml:"seed" yaml:"seed"`
}

// MetricsConfig controls the profiler and the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	// Address is the listen address of /metrics. Empty disables the endpoint.
	Address string `toml:"address" yaml:"address"`
	// Interval is a duration string such as "1s".
	Interval string `toml:"interval" yaml:"interval"`
}

// Default returns the reference configuration: 32² birds, wing span 20, distances of 20,
// freedom 0.75, lerp coloring between 0x8bf329 and 0x298bf3 on a white background.
func Default() *Config {
	s := scene.DefaultSettings()
	return &Config{
		Window:   WindowConfig{Title: "oxy-birds", Width: 1280, Height: 720},
		Renderer: RendererConfig{Background: 0xffffff, VSync: true, MSAA: 4},
		Compute:  ComputeConfig{Backend: BackendGPU},
		Birds: BirdsConfig{
			Quantity:  s.GridWidth(),
			WingSpan:  s.WingSpan,
			ColorMode: int(s.ColorMode),
			Color1:    s.Color1,
			Color2:    s.Color2,
		},
		Flock:   s.Flock,
		Logging: logger.Config{Environment: "development", Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Address: ":2112", Interval: "1s"},
	}
}

// Load reads path over Default and validates the result.
// The decoder is chosen by extension; unknown keys are rejected.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//
// Returns:
//   - *Config: the loaded configuration
//   - error: read, decode or validation error
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data in the format named by ext over Default and validates the result.
//
// Parameters:
//   - data: the encoded configuration
//   - ext: ".toml", ".yaml" or ".yml"
//
// Returns:
//   - *Config: the decoded configuration
//   - error: ErrUnsupportedFormat, a decode error or a validation error
func Decode(data []byte, ext string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
//
// Returns:
//   - error: the first problem wrapped in a package sentinel, or nil
func (c *Config) Validate() error {
	if c.Birds.Quantity < 1 || c.Birds.Quantity > flock.MaxGridWidth {
		return fmt.Errorf("%w: quantity %d outside [1, %d]", ErrInvalidFlock, c.Birds.Quantity, flock.MaxGridWidth)
	}
	if c.Birds.Agents < 0 || c.Birds.Agents > scene.MaxAgents {
		return fmt.Errorf("%w: agents %d outside [0, %d]", ErrInvalidFlock, c.Birds.Agents, scene.MaxAgents)
	}
	if c.Birds.WingSpan < 0 {
		return fmt.Errorf("%w: negative wing span %g", ErrInvalidFlock, c.Birds.WingSpan)
	}
	if err := c.Flock.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFlock, err)
	}
	if !birds.ColorMode(c.Birds.ColorMode).Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidColorMode, c.Birds.ColorMode)
	}
	colors := []struct {
		name  string
		value uint32
	}{
		{"color1", c.Birds.Color1},
		{"color2", c.Birds.Color2},
		{"background", c.Renderer.Background},
	}
	for _, color := range colors {
		if err := common.ValidateColor(color.value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidColor, color.name, err)
		}
	}

	if c.Window.Width < 1 || c.Window.Height < 1 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	switch c.Renderer.MSAA {
	case 1, 4:
	default:
		return fmt.Errorf("%w: msaa %d is not 1 or 4", ErrInvalidConfig, c.Renderer.MSAA)
	}
	switch c.Compute.Backend {
	case BackendGPU, BackendCPU:
	default:
		return fmt.Errorf("%w: unknown compute backend %q", ErrInvalidConfig, c.Compute.Backend)
	}
	if c.Compute.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.Compute.Workers)
	}
	if _, err := c.MetricsInterval(); err != nil {
		return fmt.Errorf("%w: metrics interval: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MetricsInterval parses Metrics.Interval, defaulting to one second when empty.
func (c *Config) MetricsInterval() (time.Duration, error) {
	if c.Metrics.Interval == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(c.Metrics.Interval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %s", d)
	}
	return d, nil
}

// AgentCount returns Birds.Agents when set, otherwise Birds.Quantity².
func (c *Config) AgentCount() int {
	if c.Birds.Agents > 0 {
		return c.Birds.Agents
	}
	return c.Birds.Quantity * c.Birds.Quantity
}

// Settings converts the birds and flock sections into scene settings.
func (c *Config) Settings() scene.Settings {
	return scene.Settings{
		Agents:    c.AgentCount(),
		WingSpan:  c.Birds.WingSpan,
		ColorMode: birds.ColorMode(c.Birds.ColorMode),
		Color1:    c.Birds.Color1,
		Color2:    c.Birds.Color2,
		Flock:     c.Flock,
		Seed:      c.Birds.Seed,
	}
}

// BackgroundRGB unpacks Renderer.Background into clear color components.
func (c *Config) BackgroundRGB() (r, g, b float64) {
	color := common.ColorFromHex(c.Renderer.Background)
	return float64(color.R), float64(color.G), float64(color.B)
}
