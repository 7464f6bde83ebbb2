package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halcyon-games/prism/engine/config"
)

func stagingEngine() *Engine {
	return &Engine{pendingConfig: make(chan config.Renderer, 1)}
}

func TestStagedRendererConfigEmpty(t *testing.T) {
	e := stagingEngine()

	_, ok := e.stagedRendererConfig()
	require.False(t, ok)
}

func TestStageRendererConfigDeliversOnce(t *testing.T) {
	e := stagingEngine()
	e.stageRendererConfig(config.Renderer{MSAA: config.MSAA4x})

	cfg, ok := e.stagedRendererConfig()
	require.True(t, ok)
	require.Equal(t, config.MSAA4x, cfg.MSAA)

	_, ok = e.stagedRendererConfig()
	require.False(t, ok)
}

func TestStageRendererConfigLatestWins(t *testing.T) {
	e := stagingEngine()

	// The watcher can fire again before the render loop drains; the stale
	// value is discarded rather than blocking the watcher goroutine.
	e.stageRendererConfig(config.Renderer{MSAA: config.MSAA2x})
	e.stageRendererConfig(config.Renderer{MSAA: config.MSAA8x})

	cfg, ok := e.stagedRendererConfig()
	require.True(t, ok)
	require.Equal(t, config.MSAA8x, cfg.MSAA)

	_, ok = e.stagedRendererConfig()
	require.False(t, ok)
}
