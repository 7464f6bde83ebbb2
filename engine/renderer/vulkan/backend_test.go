package vulkan

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/require"
)

// recorderBackend builds a VulkanRenderer whose target controller records
// its calls instead of touching a device. Segments are seeded by hand, so
// the tests below must never let the backend close one.
func recorderBackend() (*VulkanRenderer, *[]string) {
	calls := &[]string{}
	vr := &VulkanRenderer{context: &VulkanContext{}}
	vr.context.Target.DrainPending = func() { *calls = append(*calls, "drain") }
	vr.context.Target.EndPass = func() { *calls = append(*calls, "end") }
	vr.context.Target.BeginScreenPass = func() { *calls = append(*calls, "begin-screen") }
	vr.context.Target.BeginTargetPass = func(*RenderTarget) { *calls = append(*calls, "begin-target") }
	vr.context.Target.InvalidateBinds = func() { *calls = append(*calls, "invalidate") }
	return vr, calls
}

func TestBackendSetTargetSameScreenKeepsSegment(t *testing.T) {
	vr, calls := recorderBackend()
	vr.context.Target.BeginFrame()

	segment := &VulkanCommandBuffer{}
	vr.segment = segment
	pipeline := vk.Pipeline(unsafe.Pointer(uintptr(1)))
	require.True(t, vr.context.Binds.BindPipeline(pipeline))

	// Already on the screen; redirecting to the screen must not end the
	// segment or disturb the bind cache.
	require.NoError(t, vr.SetTarget(nil))
	require.Same(t, segment, vr.segment)
	require.Empty(t, *calls)
	require.False(t, vr.context.Binds.BindPipeline(pipeline))
}

func TestBackendSetTargetSameRenderTargetKeepsSegment(t *testing.T) {
	vr, calls := recorderBackend()
	vr.context.Target.BeginFrame()

	target := &RenderTarget{Width: 32, Height: 32}
	require.NoError(t, vr.SetTarget(target))
	*calls = nil

	segment := &VulkanCommandBuffer{}
	vr.segment = segment
	pipeline := vk.Pipeline(unsafe.Pointer(uintptr(2)))
	require.True(t, vr.context.Binds.BindPipeline(pipeline))

	require.NoError(t, vr.SetTarget(target))
	require.Same(t, segment, vr.segment)
	require.Empty(t, *calls)
	require.False(t, vr.context.Binds.BindPipeline(pipeline))
	require.Equal(t, target, vr.Target())
}

func TestBackendSetTargetOutsideFrame(t *testing.T) {
	vr, calls := recorderBackend()

	require.Error(t, vr.SetTarget(&RenderTarget{}))
	require.Nil(t, vr.segment)
	require.Empty(t, *calls)
}
