package vulkan

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/require"
)

// fakeCommandBuffer manufactures distinct non-nil handles without a device.
func fakeCommandBuffer(id uintptr) vk.CommandBuffer {
	return vk.CommandBuffer(unsafe.Pointer(id))
}

func TestDrawListDrainExecutesPendingOnce(t *testing.T) {
	var dl DrawList
	dl.Reset()

	a := fakeCommandBuffer(1)
	b := fakeCommandBuffer(2)
	dl.Append(a)
	dl.Append(b)

	var drained []vk.CommandBuffer
	dl.Drain(func(buffers []vk.CommandBuffer) {
		drained = append(drained, buffers...)
	})

	require.Equal(t, []vk.CommandBuffer{a, b}, drained)
	require.Equal(t, 2, dl.Offset())

	// A second drain with nothing new must not hand the same buffers back.
	dl.Drain(func(buffers []vk.CommandBuffer) {
		t.Fatalf("drained already-executed buffers: %v", buffers)
	})
	require.Equal(t, 2, dl.Offset())
}

func TestDrawListDrainOnlyNewBuffers(t *testing.T) {
	var dl DrawList
	dl.Reset()

	a := fakeCommandBuffer(1)
	dl.Append(a)
	dl.Drain(func([]vk.CommandBuffer) {})

	b := fakeCommandBuffer(2)
	c := fakeCommandBuffer(3)
	dl.Append(b)
	dl.Append(c)

	var drained []vk.CommandBuffer
	dl.Drain(func(buffers []vk.CommandBuffer) {
		drained = append(drained, buffers...)
	})
	require.Equal(t, []vk.CommandBuffer{b, c}, drained)
	require.Equal(t, 3, dl.Len())
	require.Equal(t, 3, dl.Offset())
}

func TestDrawListEmptyDrainAdvancesNothing(t *testing.T) {
	var dl DrawList
	dl.Reset()

	called := false
	dl.Drain(func([]vk.CommandBuffer) { called = true })
	require.False(t, called)
	require.Equal(t, 0, dl.Offset())
}

func TestDrawListResetRewindsCursor(t *testing.T) {
	var dl DrawList
	dl.Append(fakeCommandBuffer(1))
	dl.Drain(func([]vk.CommandBuffer) {})
	require.Equal(t, 1, dl.Offset())

	dl.Reset()
	require.Equal(t, 0, dl.Len())
	require.Equal(t, 0, dl.Offset())
	require.Empty(t, dl.Pending())
}
