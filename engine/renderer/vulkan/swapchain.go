package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/core"
	pmath "github.com/halcyon-games/prism/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat       vk.SurfaceFormat
	Extent            vk.Extent2D
	MaxFramesInFlight uint8
	Handle            vk.Swapchain
	ImageCount        uint32
	Images            []vk.Image
	Views             []vk.ImageView

	DepthAttachment *VulkanImage
	// Multisample colour image; nil when multisampling is off.
	ColourAttachment *VulkanImage

	// The three pass variants the frame loop switches between.
	MainRenderpass     *VulkanRenderpass
	MidFrameRenderpass *VulkanRenderpass
	ExternalRenderpass *VulkanRenderpass

	// framebuffers used for on-screen rendering, one per image.
	Framebuffers []*VulkanFramebuffer
}

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

func SwapchainCreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	return createSwapchain(context, width, height)
}

// Recreate destroys the old swapchain and builds a fresh one. Waits for the
// device to go idle first, so it is safe even with a frame logically in
// flight.
func (vs *VulkanSwapchain) Recreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	vs.destroySwapchain(context)
	return createSwapchain(context, width, height)
}

func (vs *VulkanSwapchain) Destroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// AcquireNextImageIndex performs a bounded wait for the next presentable
// image. An out-of-date surface is reported via core.ErrSwapchainOutOfDate
// so the caller can recreate and abandon the frame.
func (vs *VulkanSwapchain) AcquireNextImageIndex(context *VulkanContext, timeoutNs uint64, imageAvailableSemaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNs, imageAvailableSemaphore, fence, &imageIndex)

	if result == vk.ErrorOutOfDate {
		return 0, core.ErrSwapchainOutOfDate
	}
	if result != vk.Success && result != vk.Suboptimal {
		err := fmt.Errorf("failed to acquire swapchain image: %s", VulkanResultString(result))
		core.LogError(err.Error())
		return 0, err
	}
	return imageIndex, nil
}

// Present gives the image back to the swapchain. Staleness is returned as
// core.ErrSwapchainOutOfDate; the frame's output is dropped, nothing else.
func (vs *VulkanSwapchain) Present(context *VulkanContext, presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
	}

	result := vk.QueuePresent(presentQueue, &presentInfo)

	// Increment (and loop) the frame slot index regardless of staleness;
	// presentation order must keep matching acquisition order.
	context.CurrentFrame = (context.CurrentFrame + 1) % uint32(vs.MaxFramesInFlight)

	if result == vk.ErrorOutOfDate || result == vk.Suboptimal {
		return core.ErrSwapchainOutOfDate
	}
	if result != vk.Success {
		err := fmt.Errorf("failed to present swapchain image: %s", VulkanResultString(result))
		core.LogError(err.Error())
		return err
	}
	return nil
}

// chooseSurfaceFormat prefers B8G8R8A8 sRGB-nonlinear and otherwise falls
// back to whatever the surface lists first.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox when available; FIFO is the only mode
// every device has to offer.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// negotiateImageCount maps the requested buffering strategy onto the
// device-reported bounds. maxImages of zero means unbounded.
func negotiateImageCount(mode config.BufferMode, minImages, maxImages uint32) uint32 {
	desired := uint32(2)
	if mode == config.TripleBuffer {
		desired = 3
	}
	if desired < minImages {
		desired = minImages
	}
	if maxImages > 0 && desired > maxImages {
		desired = maxImages
	}
	return desired
}

// bufferModeForCount reports the strategy an image count actually delivers,
// used to write the authoritative value back into the config.
func bufferModeForCount(count uint32) config.BufferMode {
	if count >= 3 {
		return config.TripleBuffer
	}
	return config.DoubleBuffer
}

// negotiateSampleCount downgrades an unsupported multisample level to the
// nearest lower level the device supports. The result is authoritative.
// Requests that are not a valid sample count (config files are free text)
// round down to one before the walk.
func negotiateSampleCount(requested config.MSAA, supported vk.SampleCountFlags) config.MSAA {
	if requested == 0 {
		requested = config.MSAA1x
	}
	level := config.MSAA32x
	for level > requested {
		level >>= 1
	}
	for ; level > config.MSAA1x; level >>= 1 {
		if supported&vk.SampleCountFlags(level) != 0 {
			return level
		}
	}
	return config.MSAA1x
}

func sampleCountBit(level config.MSAA) vk.SampleCountFlagBits {
	if level == 0 {
		return vk.SampleCount1Bit
	}
	return vk.SampleCountFlagBits(level)
}

func createSwapchain(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport
	swapchain := &VulkanSwapchain{
		MaxFramesInFlight: 2,
	}

	swapchain.ImageFormat = chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes)

	swapchainExtent := vk.Extent2D{Width: width, Height: height}
	if support.Capabilities.CurrentExtent.Width != math.MaxUint32 {
		swapchainExtent = support.Capabilities.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	min := support.Capabilities.MinImageExtent
	max := support.Capabilities.MaxImageExtent
	swapchainExtent.Width = pmath.Clamp(swapchainExtent.Width, min.Width, max.Width)
	swapchainExtent.Height = pmath.Clamp(swapchainExtent.Height, min.Height, max.Height)
	swapchain.Extent = swapchainExtent

	imageCount := negotiateImageCount(
		context.Config.BufferMode,
		support.Capabilities.MinImageCount,
		support.Capabilities.MaxImageCount)

	// The granted values become what configuration queries return.
	context.Config.BufferMode = bufferModeForCount(imageCount)
	granted := negotiateSampleCount(context.Config.MSAA, context.Device.SupportedSampleCounts())
	if granted != context.Config.MSAA {
		core.LogInfo("multisample level %dx not supported, using %dx", context.Config.MSAA, granted)
		context.Config.MSAA = granted
	}
	samples := sampleCountBit(granted)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
	}

	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	swapchainCreateInfo.PreTransform = support.Capabilities.CurrentTransform
	swapchainCreateInfo.CompositeAlpha = vk.CompositeAlphaOpaqueBit
	swapchainCreateInfo.PresentMode = presentMode
	swapchainCreateInfo.Clipped = vk.True
	swapchainCreateInfo.OldSwapchain = nil

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		if res == vk.ErrorSurfaceLost {
			core.LogError("surface lost while creating swapchain")
			return nil, core.ErrSurfaceLost
		}
		err := fmt.Errorf("failed to create swapchain: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = swapchainHandle

	// Start with a zero frame index.
	context.CurrentFrame = 0

	swapchain.ImageCount = 0
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		err := fmt.Errorf("failed to count swapchain images: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	swapchain.Views = make([]vk.ImageView, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		err := fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	for i := 0; i < int(swapchain.ImageCount); i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &swapchain.Views[i]); res != vk.Success {
			err := fmt.Errorf("failed to create swapchain image view: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return nil, err
		}
	}

	if !DeviceDetectDepthFormat(context.Device) {
		context.Device.DepthFormat = vk.FormatUndefined
		err := fmt.Errorf("failed to find a supported depth format")
		core.LogError(err.Error())
		return nil, err
	}

	depthAttachment, err := ImageCreate(
		context,
		swapchainExtent.Width,
		swapchainExtent.Height,
		context.Device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		samples,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return nil, err
	}
	swapchain.DepthAttachment = depthAttachment

	if samples != vk.SampleCount1Bit {
		colourAttachment, err := ImageCreate(
			context,
			swapchainExtent.Width,
			swapchainExtent.Height,
			swapchain.ImageFormat.Format,
			vk.ImageTilingOptimal,
			vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransientAttachmentBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			samples,
			vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return nil, err
		}
		swapchain.ColourAttachment = colourAttachment
	}

	if swapchain.MainRenderpass, err = RenderpassCreate(context, RenderpassMain, swapchain.ImageFormat.Format, samples); err != nil {
		return nil, err
	}
	if swapchain.MidFrameRenderpass, err = RenderpassCreate(context, RenderpassMidFrame, swapchain.ImageFormat.Format, samples); err != nil {
		return nil, err
	}
	if swapchain.ExternalRenderpass, err = RenderpassCreate(context, RenderpassExternal, swapchain.ImageFormat.Format, vk.SampleCount1Bit); err != nil {
		return nil, err
	}

	swapchain.Framebuffers = make([]*VulkanFramebuffer, swapchain.ImageCount)
	for i := 0; i < int(swapchain.ImageCount); i++ {
		var attachments []vk.ImageView
		if swapchain.ColourAttachment != nil {
			attachments = []vk.ImageView{swapchain.ColourAttachment.View, swapchain.Views[i], swapchain.DepthAttachment.View}
		} else {
			attachments = []vk.ImageView{swapchain.Views[i], swapchain.DepthAttachment.View}
		}
		fb, err := FramebufferCreate(context, swapchain.MainRenderpass, swapchainExtent.Width, swapchainExtent.Height, attachments)
		if err != nil {
			return nil, err
		}
		swapchain.Framebuffers[i] = fb
	}

	core.LogInfo("Swapchain created: %d images, %s buffering, %dx msaa.",
		swapchain.ImageCount, context.Config.BufferMode, context.Config.MSAA)

	return swapchain, nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	for _, fb := range vs.Framebuffers {
		fb.Destroy(context)
	}
	vs.Framebuffers = nil

	if vs.MainRenderpass != nil {
		vs.MainRenderpass.Destroy(context)
	}
	if vs.MidFrameRenderpass != nil {
		vs.MidFrameRenderpass.Destroy(context)
	}
	if vs.ExternalRenderpass != nil {
		vs.ExternalRenderpass.Destroy(context)
	}

	vs.DepthAttachment.Destroy(context)
	if vs.ColourAttachment != nil {
		vs.ColourAttachment.Destroy(context)
	}

	// Only destroy the views, not the images, since those are owned by the
	// swapchain and are thus destroyed when it is.
	for i := 0; i < int(vs.ImageCount); i++ {
		vk.DestroyImageView(context.Device.LogicalDevice, vs.Views[i], context.Allocator)
	}

	vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
}
