package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/core"
)

// VulkanContext carries every piece of renderer state, threaded explicitly
// through the whole package. There is intentionally no package-level
// instance; two renderers in one process simply get two contexts.
type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Current generation of framebuffer size. If it does not match
	// FramebufferSizeLastGeneration, the swapchain must be rebuilt.
	FramebufferSizeGeneration     uint64
	FramebufferSizeLastGeneration uint64

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	// The authoritative renderer configuration: what the device actually
	// granted after downgrades, not what the caller asked for.
	Config config.Renderer

	Swapchain *VulkanSwapchain

	// Frame slots, one per in-flight frame; survive swapchain resets.
	FrameSlots []*FrameSlot

	// Per-image fence table indexed by swapchain image index. Holds a
	// pointer to the slot fence last submitted against that image, or nil.
	// This is what forbids two in-flight frames from writing one image.
	imagesInFlight []*VulkanFence

	// Swapchain image index acquired for the frame being recorded.
	ImageIndex uint32
	// Frame slot index, cycles modulo len(FrameSlots).
	CurrentFrame uint32

	RecreatingSwapchain bool

	// Per-frame draw recording state.
	Draws  DrawList
	Target TargetController
	Binds  BindCache

	// Per-image uniform data, see uniform.go.
	Uniforms *UniformController

	// Allocator for combined image sampler sets used by textures and
	// render targets.
	TexDescriptors *DescriptorAllocator

	// Every texture usable as a render target, so a config change can
	// rebuild all backing images consistently.
	Targets *TargetRegistry

	// Colour modifier blended into every draw, RGBA.
	ColourMod [4]float32
}

// FrameSlot owns the synchronization primitives for one in-flight frame.
// Created once at init, reused every frame, destroyed at shutdown.
type FrameSlot struct {
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       *VulkanFence
	CommandBuffer  *VulkanCommandBuffer
	// Pool the frame's primary and secondary buffers come from. Resetting
	// it invalidates everything allocated from it last time around.
	CommandPool vk.CommandPool
	// Secondary buffers recorded the last time this slot ran; freed once
	// the slot fence proves the GPU is done with them.
	secondaries []*VulkanCommandBuffer
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
