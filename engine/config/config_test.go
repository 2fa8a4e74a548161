package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-birds/engine/birds"
	"github.com/Carmen-Shannon/oxy-birds/engine/flock"
)

const sampleTOML = `
[window]
title = "flock"
width = 800
height = 600

[renderer]
background = 0x101010
msaa = 1

[compute]
backend = "cpu"
workers = 4

[birds]
quantity = 16
color_mode = 4
color1 = 0xff0000
seed = 7

[flock]
separation = 30
alignment = 10
cohesion = 5
freedom = 0.5
`

const sampleYAML = `
window:
  width: 640
  height: 480
birds:
  quantity: 8
  agents: 10
  wing_span: 12
  color2: 0x00ff00
flock:
  separation: 1
  alignment: 2
  cohesion: 3
  freedom: 0.75
metrics:
  enabled: false
  interval: 500ms
`

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 32, cfg.Birds.Quantity)
	assert.Equal(t, 32*32, cfg.AgentCount())
	assert.Equal(t, float32(20), cfg.Birds.WingSpan)
	assert.Equal(t, uint32(0x8bf329), cfg.Birds.Color1)
	assert.Equal(t, uint32(0x298bf3), cfg.Birds.Color2)
	assert.Equal(t, uint32(0xffffff), cfg.Renderer.Background)
	assert.Equal(t, flock.DefaultParameters(), cfg.Flock)

	r, g, b := cfg.BackgroundRGB()
	assert.Equal(t, []float64{1, 1, 1}, []float64{r, g, b})
}

func TestDecodeTOML(t *testing.T) {
	cfg, err := Decode([]byte(sampleTOML), ".toml")
	require.NoError(t, err)

	assert.Equal(t, "flock", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, uint32(0x101010), cfg.Renderer.Background)
	assert.Equal(t, BackendCPU, cfg.Compute.Backend)
	assert.Equal(t, 4, cfg.Compute.Workers)
	assert.Equal(t, flock.Parameters{Separation: 30, Alignment: 10, Cohesion: 5, Freedom: 0.5}, cfg.Flock)

	s := cfg.Settings()
	assert.Equal(t, 256, s.Agents)
	assert.Equal(t, 16, s.GridWidth())
	assert.Equal(t, birds.ColorModeMix, s.ColorMode)
	assert.Equal(t, uint32(0xff0000), s.Color1)
	assert.Equal(t, uint32(0x298bf3), s.Color2, "unset keys keep defaults")
	assert.Equal(t, float32(20), s.WingSpan)
	assert.Equal(t, uint64(7), s.Seed)
	assert.NoError(t, s.Validate())
}

func TestDecodeYAML(t *testing.T) {
	for _, ext := range []string{".yaml", ".YML"} {
		cfg, err := Decode([]byte(sampleYAML), ext)
		require.NoError(t, err, ext)
		assert.Equal(t, 8, cfg.Birds.Quantity)
		assert.Equal(t, 10, cfg.AgentCount(), "agents overrides quantity")
		assert.Equal(t, 4, cfg.Settings().GridWidth())
		assert.Equal(t, float32(12), cfg.Birds.WingSpan)
		assert.Equal(t, uint32(0x00ff00), cfg.Birds.Color2)
		assert.False(t, cfg.Metrics.Enabled)

		interval, err := cfg.MetricsInterval()
		require.NoError(t, err)
		assert.Equal(t, 500*time.Millisecond, interval)
	}

	cfg, err := Decode(nil, ".yaml")
	require.NoError(t, err, "an empty document keeps the defaults")
	assert.Equal(t, Default(), cfg)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
		want error
	}{
		{"unknown extension", "", ".json", ErrUnsupportedFormat},
		{"quantity too large", "[birds]\nquantity = 201", ".toml", ErrInvalidFlock},
		{"quantity zero", "birds:\n  quantity: 0", ".yaml", ErrInvalidFlock},
		{"negative agents", "[birds]\nagents = -1", ".toml", ErrInvalidFlock},
		{"agents too large", "[birds]\nagents = 40001", ".toml", ErrInvalidFlock},
		{"negative distance", "[flock]\nseparation = -1", ".toml", ErrInvalidFlock},
		{"all zero distances", "[flock]\nseparation = 0\nalignment = 0\ncohesion = 0", ".toml", ErrInvalidFlock},
		{"color mode", "[birds]\ncolor_mode = 5", ".toml", ErrInvalidColorMode},
		{"color", "[birds]\ncolor1 = 0x1000000", ".toml", ErrInvalidColor},
		{"background", "renderer:\n  background: 0x1000000", ".yaml", ErrInvalidColor},
		{"msaa", "[renderer]\nmsaa = 2", ".toml", ErrInvalidConfig},
		{"msaa 8x", "[renderer]\nmsaa = 8", ".toml", ErrInvalidConfig},
		{"backend", "[compute]\nbackend = \"tpu\"", ".toml", ErrInvalidConfig},
		{"interval", "metrics:\n  interval: soon", ".yaml", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.ext)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Decode([]byte("[birds]\nquantiy = 3"), ".toml")
	assert.Error(t, err, "unknown TOML keys are rejected")
	_, err = Decode([]byte("birds:\n  quantiy: 3"), ".yaml")
	assert.Error(t, err, "unknown YAML keys are rejected")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "birds.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Birds.Quantity)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type recordingReceiver struct {
	mu     sync.Mutex
	params []flock.Parameters
}

func (r *recordingReceiver) SetFlockParameters(p flock.Parameters) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = append(r.params, p)
	return nil
}

func (r *recordingReceiver) last() (flock.Parameters, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.params) == 0 {
		return flock.Parameters{}, 0
	}
	return r.params[len(r.params)-1], len(r.params)
}

func TestWatcherReloadsFlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "birds.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))
	initial, err := Load(path)
	require.NoError(t, err)

	receiver := &recordingReceiver{}
	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, initial, receiver,
		WithDebounce(20*time.Millisecond),
		WithOnReload(func(c *Config) { reloaded <- c }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.ErrorIs(t, w.Start(ctx), ErrWatcherStarted)
	defer func() { assert.NoError(t, w.Stop()) }()
	assert.Same(t, initial, w.Current())

	// An invalid file is ignored.
	require.NoError(t, os.WriteFile(path, []byte("[flock]\nseparation = -5\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, w.Reloads())
	assert.Same(t, initial, w.Current())

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))

	require.NoError(t, os.WriteFile(path, []byte("[flock]\nseparation = 40\nalignment = 2\ncohesion = 3\nfreedom = 0.1\n"), 0o644))
	select {
	case cfg := <-reloaded:
		assert.Equal(t, float32(40), cfg.Flock.Separation)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	got, n := receiver.last()
	assert.GreaterOrEqual(t, n, 1)
	assert.Equal(t, flock.Parameters{Separation: 40, Alignment: 2, Cohesion: 3, Freedom: 0.1}, got)
	assert.Equal(t, float32(40), w.Current().Flock.Separation)
}

func TestWatcherStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "birds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	w, err := NewWatcher(path, Default(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	done := make(chan error)
	go func() { done <- w.Stop() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
