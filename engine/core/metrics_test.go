package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameTimerZeroBeforeFirstSecond(t *testing.T) {
	ft := NewFrameTimer()
	ft.Record(0.016)
	ft.Record(0.016)

	require.Zero(t, ft.AverageFrameTime())
	require.Zero(t, ft.FPS())
}

func TestFrameTimerRollsOverAfterOneSecond(t *testing.T) {
	ft := NewFrameTimer()
	for i := 0; i < 100; i++ {
		ft.Record(0.010)
	}

	require.InDelta(t, 10.0, ft.AverageFrameTime(), 1e-9)
	require.InDelta(t, 100.0, ft.FPS(), 1e-9)
}

func TestFrameTimerKeepsLastWindow(t *testing.T) {
	ft := NewFrameTimer()
	for i := 0; i < 50; i++ {
		ft.Record(0.020)
	}
	require.InDelta(t, 20.0, ft.AverageFrameTime(), 1e-9)

	// A partial window does not disturb the published values.
	ft.Record(0.005)
	require.InDelta(t, 20.0, ft.AverageFrameTime(), 1e-9)
	require.InDelta(t, 50.0, ft.FPS(), 1e-9)
}
