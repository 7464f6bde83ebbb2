package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/halcyon-games/prism/engine/core"
)

// BufferMode is the requested swapchain buffering strategy. The device has
// the final word: an unsupported request degrades to the nearest supported
// value and the degraded value becomes what Config queries report.
type BufferMode uint8

const (
	DoubleBuffer BufferMode = iota
	TripleBuffer
)

func (b BufferMode) String() string {
	if b == TripleBuffer {
		return "triple"
	}
	return "double"
}

// MSAA is a multisample level. The value is the sample count itself so the
// negotiation code can compare it against device limits directly.
type MSAA uint8

const (
	MSAA1x  MSAA = 1
	MSAA2x  MSAA = 2
	MSAA4x  MSAA = 4
	MSAA8x  MSAA = 8
	MSAA16x MSAA = 16
	MSAA32x MSAA = 32
)

// FilterMode selects how textures are sampled when scaled.
type FilterMode uint8

const (
	FilterLinear FilterMode = iota
	FilterNearest
)

// Renderer holds the user-facing renderer options. Zero value is a valid
// request (double buffering, no multisampling, linear filtering).
type Renderer struct {
	BufferMode BufferMode `toml:"buffer_mode"`
	MSAA       MSAA       `toml:"msaa"`
	Filter     FilterMode `toml:"filter"`
}

// App is the top-level application configuration, loaded from a TOML file.
type App struct {
	Name     string   `toml:"name"`
	StartX   uint32   `toml:"start_x"`
	StartY   uint32   `toml:"start_y"`
	Width    uint32   `toml:"width"`
	Height   uint32   `toml:"height"`
	LogLevel string   `toml:"log_level"`
	Renderer Renderer `toml:"renderer"`
}

// Default returns the configuration used when no file is present.
func Default() *App {
	return &App{
		Name:     "Prism",
		StartX:   100,
		StartY:   100,
		Width:    1280,
		Height:   720,
		LogLevel: "info",
		Renderer: Renderer{
			BufferMode: DoubleBuffer,
			MSAA:       MSAA1x,
			Filter:     FilterLinear,
		},
	}
}

// Load reads a TOML configuration file. A missing file is not an error; the
// defaults are returned so a bare checkout runs out of the box.
func Load(path string) (*App, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogDebug("no config file at %s, using defaults", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Renderer.MSAA == 0 {
		cfg.Renderer.MSAA = MSAA1x
	}
	return cfg, nil
}

// Save writes the configuration back out, used to persist degraded values so
// the file reflects what the device actually granted.
func Save(path string, cfg *App) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
