package vulkan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// controllerRecorder wires a TargetController to a call log so the pass
// sequencing can be asserted without a device.
type controllerRecorder struct {
	tc    TargetController
	calls []string
}

func newControllerRecorder() *controllerRecorder {
	cr := &controllerRecorder{}
	cr.tc.DrainPending = func() { cr.calls = append(cr.calls, "drain") }
	cr.tc.EndPass = func() { cr.calls = append(cr.calls, "end") }
	cr.tc.BeginScreenPass = func() { cr.calls = append(cr.calls, "begin-screen") }
	cr.tc.BeginTargetPass = func(*RenderTarget) { cr.calls = append(cr.calls, "begin-target") }
	cr.tc.InvalidateBinds = func() { cr.calls = append(cr.calls, "invalidate") }
	return cr
}

func TestTargetControllerRetargetSequence(t *testing.T) {
	cr := newControllerRecorder()
	cr.tc.BeginFrame()

	target := &RenderTarget{Width: 64, Height: 64}
	require.NoError(t, cr.tc.SetTarget(target))

	require.Equal(t, []string{"drain", "end", "begin-target", "invalidate"}, cr.calls)
	require.Equal(t, target, cr.tc.Current())
	require.True(t, cr.tc.PassOpen())

	cr.calls = nil
	require.NoError(t, cr.tc.SetTarget(nil))
	require.Equal(t, []string{"drain", "end", "begin-screen", "invalidate"}, cr.calls)
	require.Nil(t, cr.tc.Current())
}

func TestTargetControllerSetSameTargetIsNoop(t *testing.T) {
	cr := newControllerRecorder()
	cr.tc.BeginFrame()

	target := &RenderTarget{}
	require.NoError(t, cr.tc.SetTarget(target))
	cr.calls = nil

	require.NoError(t, cr.tc.SetTarget(target))
	require.Empty(t, cr.calls)

	require.NoError(t, cr.tc.SetTarget(nil))
	cr.calls = nil
	require.NoError(t, cr.tc.SetTarget(nil))
	require.Empty(t, cr.calls)
}

func TestTargetControllerSetTargetOutsideFrame(t *testing.T) {
	cr := newControllerRecorder()

	err := cr.tc.SetTarget(&RenderTarget{})
	require.Error(t, err)
	require.Empty(t, cr.calls)
}

func TestTargetControllerFinishFrameFromScreen(t *testing.T) {
	cr := newControllerRecorder()
	cr.tc.BeginFrame()

	require.NoError(t, cr.tc.FinishFrame())
	require.Equal(t, []string{"drain", "end"}, cr.calls)
	require.False(t, cr.tc.PassOpen())

	require.Error(t, cr.tc.FinishFrame())
}

func TestTargetControllerFinishFrameRetargetsScreen(t *testing.T) {
	cr := newControllerRecorder()
	cr.tc.BeginFrame()

	require.NoError(t, cr.tc.SetTarget(&RenderTarget{}))
	cr.calls = nil

	require.NoError(t, cr.tc.FinishFrame())

	// The last pass of the frame must be against the screen so the
	// swapchain image ends up presentable.
	require.Equal(t, []string{"drain", "end", "begin-screen", "invalidate", "drain", "end"}, cr.calls)
	require.Nil(t, cr.tc.Current())
	require.False(t, cr.tc.PassOpen())
}

func TestTargetControllerBeginFrameResetsToScreen(t *testing.T) {
	cr := newControllerRecorder()
	cr.tc.BeginFrame()
	require.NoError(t, cr.tc.SetTarget(&RenderTarget{}))
	require.NoError(t, cr.tc.FinishFrame())

	cr.tc.BeginFrame()
	require.Nil(t, cr.tc.Current())
	require.True(t, cr.tc.PassOpen())
}
