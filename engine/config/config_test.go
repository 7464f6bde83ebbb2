package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadParsesRendererSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
name = "demo"
width = 640
height = 480

[renderer]
buffer_mode = 1
msaa = 8
filter = 1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.Name)
	require.Equal(t, uint32(640), cfg.Width)
	require.Equal(t, uint32(480), cfg.Height)
	require.Equal(t, TripleBuffer, cfg.Renderer.BufferMode)
	require.Equal(t, MSAA8x, cfg.Renderer.MSAA)
	require.Equal(t, FilterNearest, cfg.Renderer.Filter)

	// Unset fields keep their defaults.
	require.Equal(t, Default().LogLevel, cfg.LogLevel)
}

func TestLoadZeroMSAAMeansOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\nmsaa = 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, MSAA1x, cfg.Renderer.MSAA)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")

	want := Default()
	want.Name = "roundtrip"
	want.Renderer.BufferMode = TripleBuffer
	want.Renderer.MSAA = MSAA4x

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestBufferModeString(t *testing.T) {
	require.Equal(t, "double", DoubleBuffer.String())
	require.Equal(t, "triple", TripleBuffer.String())
}
