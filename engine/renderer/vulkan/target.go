package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/core"
)

// RenderTarget is a texture that draws can be redirected into mid-frame. The
// backing image doubles as a colour attachment and a sampled texture, resting
// in shader-read layout between passes.
type RenderTarget struct {
	ID     uuid.UUID
	Width  uint32
	Height uint32

	Image       *VulkanImage
	Framebuffer *VulkanFramebuffer
	Sampler     vk.Sampler

	// Set binding the target as a sampled texture, so a finished target can
	// be drawn like any other image.
	DescriptorSet vk.DescriptorSet
}

func TargetCreate(context *VulkanContext, width, height uint32) (*RenderTarget, error) {
	target := &RenderTarget{
		ID:     uuid.New(),
		Width:  width,
		Height: height,
	}
	if err := target.build(context); err != nil {
		return nil, err
	}
	context.Targets.register(target)
	return target, nil
}

func (rt *RenderTarget) build(context *VulkanContext) error {
	image, err := ImageCreate(
		context,
		rt.Width,
		rt.Height,
		context.Swapchain.ImageFormat.Format,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		vk.SampleCount1Bit,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return err
	}
	rt.Image = image

	fb, err := FramebufferCreate(context, context.Swapchain.ExternalRenderpass, rt.Width, rt.Height, []vk.ImageView{image.View})
	if err != nil {
		return err
	}
	rt.Framebuffer = fb

	filter := vk.FilterLinear
	if context.Config.Filter == config.FilterNearest {
		filter = vk.FilterNearest
	}
	samplerInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    filter,
		MinFilter:    filter,
		AddressModeU: vk.SamplerAddressModeClampToEdge,
		AddressModeV: vk.SamplerAddressModeClampToEdge,
		AddressModeW: vk.SamplerAddressModeClampToEdge,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("failed to create target sampler: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	rt.Sampler = sampler

	// The external pass expects the image shader-readable, so move the
	// fresh image out of undefined before it is ever targeted.
	pool := context.Device.GraphicsCommandPool
	commandBuffer, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}
	if err := image.TransitionLayout(commandBuffer, vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return err
	}
	if err := commandBuffer.EndSingleUse(context, pool, context.Device.GraphicsQueue); err != nil {
		return err
	}

	// Rebuilds rewrite the existing set in place instead of allocating a
	// fresh one every swapchain reset.
	if rt.DescriptorSet == nil {
		set, err := context.TexDescriptors.Allocate(context)
		if err != nil {
			return err
		}
		rt.DescriptorSet = set
	}
	updateSamplerDescriptor(context, rt.DescriptorSet, image.View, sampler)
	return nil
}

func (rt *RenderTarget) teardown(context *VulkanContext) {
	if rt.Sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, rt.Sampler, context.Allocator)
		rt.Sampler = nil
	}
	if rt.Framebuffer != nil {
		rt.Framebuffer.Destroy(context)
		rt.Framebuffer = nil
	}
	if rt.Image != nil {
		rt.Image.Destroy(context)
		rt.Image = nil
	}
}

// Destroy releases the target and removes it from the registry.
func (rt *RenderTarget) Destroy(context *VulkanContext) {
	rt.teardown(context)
	context.Targets.unregister(rt)
}

// TargetRegistry tracks every live render target so that swapchain resets
// can rebuild all of them against the new pass and surface format.
type TargetRegistry struct {
	targets map[uuid.UUID]*RenderTarget
}

func NewTargetRegistry() *TargetRegistry {
	return &TargetRegistry{targets: make(map[uuid.UUID]*RenderTarget)}
}

func (tr *TargetRegistry) register(target *RenderTarget) {
	tr.targets[target.ID] = target
}

func (tr *TargetRegistry) unregister(target *RenderTarget) {
	delete(tr.targets, target.ID)
}

func (tr *TargetRegistry) Len() int {
	return len(tr.targets)
}

// RebuildAll recreates the backing resources of every registered target.
// Called after a swapchain reset while the device is idle. Contents are not
// preserved.
func (tr *TargetRegistry) RebuildAll(context *VulkanContext) error {
	for _, target := range tr.targets {
		target.teardown(context)
		if err := target.build(context); err != nil {
			return err
		}
	}
	return nil
}

func (tr *TargetRegistry) DestroyAll(context *VulkanContext) {
	for id, target := range tr.targets {
		target.teardown(context)
		delete(tr.targets, id)
	}
}

// TargetController sequences the mid-frame retarget protocol. The actual
// pass and draw work is injected as functions so the ordering rules stay
// independent of the device.
type TargetController struct {
	// DrainPending executes the not-yet-executed draws into the open pass.
	DrainPending func()
	// EndPass closes the currently open render pass.
	EndPass func()
	// BeginScreenPass opens the mid-frame screen pass (load, not clear).
	BeginScreenPass func()
	// BeginTargetPass opens the external pass against a target texture.
	BeginTargetPass func(target *RenderTarget)
	// InvalidateBinds forgets cached bind state across the pass boundary.
	InvalidateBinds func()

	current  *RenderTarget
	passOpen bool
}

// BeginFrame marks the frame's opening pass (against the screen) as open.
// The caller has already begun the main pass on the primary buffer.
func (tc *TargetController) BeginFrame() {
	tc.current = nil
	tc.passOpen = true
}

// Current returns the active target, nil meaning the screen.
func (tc *TargetController) Current() *RenderTarget {
	return tc.current
}

// PassOpen reports whether a render pass is open on the primary buffer.
func (tc *TargetController) PassOpen() bool {
	return tc.passOpen
}

// SetTarget redirects subsequent draws. Setting the already-active target is
// a no-op; otherwise pending draws are drained into the open pass, the pass
// is closed, and the variant for the new destination is opened.
func (tc *TargetController) SetTarget(target *RenderTarget) error {
	if !tc.passOpen {
		return fmt.Errorf("cannot set render target outside of a frame")
	}
	if target == tc.current {
		return nil
	}

	tc.DrainPending()
	tc.EndPass()
	if target == nil {
		tc.BeginScreenPass()
	} else {
		tc.BeginTargetPass(target)
	}
	tc.InvalidateBinds()
	tc.current = target
	return nil
}

// FinishFrame drains the remaining draws and closes the last pass. If the
// frame ends while a texture is targeted, it retargets the screen first so
// the final pass always leaves the swapchain image presentable.
func (tc *TargetController) FinishFrame() error {
	if !tc.passOpen {
		return fmt.Errorf("no frame open")
	}
	if tc.current != nil {
		if err := tc.SetTarget(nil); err != nil {
			return err
		}
	}
	tc.DrainPending()
	tc.EndPass()
	tc.passOpen = false
	return nil
}
