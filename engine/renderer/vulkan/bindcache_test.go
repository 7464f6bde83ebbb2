package vulkan

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/require"
)

func TestBindCacheSuppressesRepeatBinds(t *testing.T) {
	var bc BindCache
	bc.Invalidate()

	pipeline := vk.Pipeline(unsafe.Pointer(uintptr(1)))
	buffer := vk.Buffer(unsafe.Pointer(uintptr(2)))
	set := vk.DescriptorSet(unsafe.Pointer(uintptr(3)))

	require.True(t, bc.BindPipeline(pipeline))
	require.False(t, bc.BindPipeline(pipeline))

	require.True(t, bc.BindVertexBuffer(buffer))
	require.False(t, bc.BindVertexBuffer(buffer))

	require.True(t, bc.BindDescriptorSet(set))
	require.False(t, bc.BindDescriptorSet(set))
}

func TestBindCacheDetectsChange(t *testing.T) {
	var bc BindCache
	bc.Invalidate()

	first := vk.Pipeline(unsafe.Pointer(uintptr(1)))
	second := vk.Pipeline(unsafe.Pointer(uintptr(2)))

	require.True(t, bc.BindPipeline(first))
	require.True(t, bc.BindPipeline(second))
	require.True(t, bc.BindPipeline(first))
}

func TestBindCacheInvalidateForcesRebind(t *testing.T) {
	var bc BindCache
	bc.Invalidate()

	pipeline := vk.Pipeline(unsafe.Pointer(uintptr(1)))
	buffer := vk.Buffer(unsafe.Pointer(uintptr(2)))
	set := vk.DescriptorSet(unsafe.Pointer(uintptr(3)))

	bc.BindPipeline(pipeline)
	bc.BindVertexBuffer(buffer)
	bc.BindDescriptorSet(set)

	bc.Invalidate()

	require.True(t, bc.BindPipeline(pipeline))
	require.True(t, bc.BindVertexBuffer(buffer))
	require.True(t, bc.BindDescriptorSet(set))
}
