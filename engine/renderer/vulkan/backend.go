package vulkan

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/core"
	pmath "github.com/halcyon-games/prism/engine/math"
	"github.com/halcyon-games/prism/engine/platform"
)

const (
	vertShaderPath = "shaders/vert.spv"
	fragShaderPath = "shaders/frag.spv"

	// Image acquisition is bounded; a surface that cannot produce an image
	// inside this window is treated as a real failure, not backpressure.
	acquireTimeoutNs = uint64(5 * time.Second)
)

type VulkanRenderer struct {
	platform                *platform.Platform
	FrameNumber             uint64
	context                 *VulkanContext
	cachedFramebufferWidth  uint32
	cachedFramebufferHeight uint32

	debug bool

	vertModule vk.ShaderModule
	fragModule vk.ShaderModule

	// screenPipeline renders into the swapchain passes, targetPipeline into
	// external target passes. Both are rebuilt with the swapchain.
	screenPipeline *VulkanPipeline
	targetPipeline *VulkanPipeline

	// Pass currently open on the primary buffer, and the framebuffer and
	// extent it renders into. Secondary segments inherit these.
	currentPass        *VulkanRenderpass
	currentFramebuffer vk.Framebuffer
	currentWidth       uint32
	currentHeight      uint32

	// Open secondary segment draws are being recorded into, nil between
	// segments.
	segment *VulkanCommandBuffer

	// Staged configuration, applied at the next swapchain reset.
	newConfig *config.Renderer

	viewProjection pmath.Mat4
	clearColour    [4]float32

	// Viewport override for screen passes, nil meaning the full surface.
	// Target passes always use the target's own extent.
	viewport *vk.Viewport

	Timer       core.FrameTimer
	lastPresent time.Time
}

func New(p *platform.Platform, cfg config.Renderer) *VulkanRenderer {
	return &VulkanRenderer{
		platform:    p,
		FrameNumber: 0,
		context: &VulkanContext{
			Allocator: nil,
			Config:    cfg,
			Targets:   NewTargetRegistry(),
			ColourMod: [4]float32{1, 1, 1, 1},
		},
		viewProjection: pmath.NewMat4Identity(),
		clearColour:    [4]float32{0, 0, 0, 1},
		debug:          true,
	}
}

// Context exposes the renderer's state to sibling packages that create
// resources (textures, targets) against it.
func (vr *VulkanRenderer) Context() *VulkanContext {
	return vr.context
}

func (vr *VulkanRenderer) Initialize(appName string, appWidth, appHeight uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		core.LogFatal("GetInstanceProcAddress is nil")
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogFatal("failed to initialize vk: %s", err)
		return err
	}

	vr.context.FramebufferWidth = appWidth
	vr.context.FramebufferHeight = appHeight

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Prism Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}

	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	requiredLayers := []string{}
	if vr.debug {
		requiredLayers = []string{"VK_LAYER_KHRONOS_validation"}
		if !instanceLayersAvailable(requiredLayers) {
			core.LogWarn("Validation layers requested but not available, continuing without.")
			requiredLayers = nil
		}
	}
	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed to create the Vulkan instance: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if vr.debug && len(requiredLayers) > 0 {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			return err
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		core.LogError("Failed to create platform surface!")
		return err
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)

	if err := DeviceCreate(vr.context); err != nil {
		core.LogError("Failed to create device!")
		return err
	}

	sc, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	if err := vr.createFrameSlots(); err != nil {
		return err
	}

	vr.context.imagesInFlight = make([]*VulkanFence, vr.context.Swapchain.ImageCount)

	uniforms, err := NewUniformController(vr.context, vr.context.Swapchain.ImageCount)
	if err != nil {
		return err
	}
	vr.context.Uniforms = uniforms

	texDescriptors, err := newTextureDescriptorAllocator(vr.context)
	if err != nil {
		return err
	}
	vr.context.TexDescriptors = texDescriptors

	if err := vr.loadShaders(); err != nil {
		return err
	}
	if err := vr.createPipelines(); err != nil {
		return err
	}

	vr.wireTargetController()

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	// Destroy in the opposite order of creation.
	vr.destroyPipelines()
	if vr.vertModule != nil {
		vk.DestroyShaderModule(vr.context.Device.LogicalDevice, vr.vertModule, vr.context.Allocator)
		vr.vertModule = nil
	}
	if vr.fragModule != nil {
		vk.DestroyShaderModule(vr.context.Device.LogicalDevice, vr.fragModule, vr.context.Allocator)
		vr.fragModule = nil
	}

	vr.context.Targets.DestroyAll(vr.context)
	if vr.context.TexDescriptors != nil {
		layout := vr.context.TexDescriptors.Layout
		vr.context.TexDescriptors.Destroy(vr.context)
		vk.DestroyDescriptorSetLayout(vr.context.Device.LogicalDevice, layout, vr.context.Allocator)
		vr.context.TexDescriptors = nil
	}
	if vr.context.Uniforms != nil {
		vr.context.Uniforms.Destroy(vr.context)
		vr.context.Uniforms = nil
	}

	vr.destroyFrameSlots()
	vr.context.imagesInFlight = nil

	vr.context.Swapchain.Destroy(vr.context)

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
	return nil
}

// Resized records the new framebuffer size. The swapchain is rebuilt at the
// start of the next frame, not here.
func (vr *VulkanRenderer) Resized(width, height uint32) {
	vr.cachedFramebufferWidth = width
	vr.cachedFramebufferHeight = height
	vr.context.FramebufferSizeGeneration++

	core.LogInfo("Vulkan renderer backend->resized: w/h/gen: %d/%d/%d", width, height, vr.context.FramebufferSizeGeneration)
}

// SetViewProjection sets the matrix uploaded to the per-image uniform at
// the next frame start. Locked for the duration of a frame.
func (vr *VulkanRenderer) SetViewProjection(m pmath.Mat4) {
	vr.viewProjection = m
}

func (vr *VulkanRenderer) SetClearColour(c [4]float32) {
	vr.clearColour = c
}

// SetViewport overrides the viewport for screen rendering. Non-positive
// width or height restores the full surface.
func (vr *VulkanRenderer) SetViewport(x, y, width, height float32) {
	if width <= 0 || height <= 0 {
		vr.viewport = nil
		return
	}
	vr.viewport = &vk.Viewport{X: x, Y: y, Width: width, Height: height, MinDepth: 0, MaxDepth: 1}
}

// Viewport reports the active screen viewport.
func (vr *VulkanRenderer) Viewport() (x, y, width, height float32) {
	if vr.viewport != nil {
		return vr.viewport.X, vr.viewport.Y, vr.viewport.Width, vr.viewport.Height
	}
	return 0, 0, float32(vr.context.FramebufferWidth), float32(vr.context.FramebufferHeight)
}

func (vr *VulkanRenderer) SetColourMod(c [4]float32) {
	vr.context.ColourMod = c
}

func (vr *VulkanRenderer) ColourMod() [4]float32 {
	return vr.context.ColourMod
}

// Config returns the authoritative renderer configuration, after any
// downgrades the device forced.
func (vr *VulkanRenderer) Config() config.Renderer {
	return vr.context.Config
}

// SetConfig stages a new configuration. It takes effect at the next
// swapchain reset; queries keep reporting the active values until then.
func (vr *VulkanRenderer) SetConfig(cfg config.Renderer) {
	staged := cfg
	vr.newConfig = &staged
	vr.context.FramebufferSizeGeneration++
	vr.cachedFramebufferWidth = vr.context.FramebufferWidth
	vr.cachedFramebufferHeight = vr.context.FramebufferHeight
}

// Wait blocks until the device finishes all submitted work.
func (vr *VulkanRenderer) Wait() {
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
}

// StartFrame opens a frame: waits for the frame slot, acquires an image,
// begins the primary buffer and the main screen pass. A core.ErrFrameSkipped
// return means no frame is open and the caller should simply try again next
// tick.
func (vr *VulkanRenderer) StartFrame() error {
	device := vr.context.Device

	if vr.context.RecreatingSwapchain {
		if result := vk.DeviceWaitIdle(device.LogicalDevice); !VulkanResultIsSuccess(result) {
			err := fmt.Errorf("StartFrame vkDeviceWaitIdle failed: %s", VulkanResultString(result))
			core.LogError(err.Error())
			return err
		}
		core.LogInfo("Recreating swapchain, booting.")
		return core.ErrFrameSkipped
	}

	if vr.context.FramebufferSizeGeneration != vr.context.FramebufferSizeLastGeneration {
		if result := vk.DeviceWaitIdle(device.LogicalDevice); !VulkanResultIsSuccess(result) {
			err := fmt.Errorf("StartFrame vkDeviceWaitIdle failed: %s", VulkanResultString(result))
			core.LogError(err.Error())
			return err
		}
		if !vr.recreateSwapchain() {
			err := fmt.Errorf("failed to recreate the swapchain")
			core.LogError(err.Error())
			return err
		}
		core.LogInfo("Resized, booting.")
		return core.ErrFrameSkipped
	}

	// Backpressure: reuse of this slot waits until the GPU is done with the
	// frame submitted against it. Unbounded on purpose.
	slot := vr.context.FrameSlots[vr.context.CurrentFrame]
	if !slot.InFlight.Wait(vr.context, math.MaxUint64) {
		err := fmt.Errorf("in-flight fence wait failure")
		core.LogWarn(err.Error())
		return err
	}

	imageIndex, err := vr.context.Swapchain.AcquireNextImageIndex(vr.context, acquireTimeoutNs, slot.ImageAvailable, vk.NullFence)
	if err != nil {
		if err == core.ErrSwapchainOutOfDate {
			vr.cachedFramebufferWidth = vr.context.FramebufferWidth
			vr.cachedFramebufferHeight = vr.context.FramebufferHeight
			vr.recreateSwapchain()
			return core.ErrFrameSkipped
		}
		return err
	}
	vr.context.ImageIndex = imageIndex

	// The slot fence has signalled, so last time's secondaries are free.
	for _, s := range slot.secondaries {
		s.Free(vr.context, slot.CommandPool)
	}
	slot.secondaries = slot.secondaries[:0]

	commandBuffer := slot.CommandBuffer
	commandBuffer.Reset()
	if err := commandBuffer.Begin(true, false, false); err != nil {
		return err
	}

	vr.currentPass = vr.context.Swapchain.MainRenderpass
	vr.currentFramebuffer = vr.context.Swapchain.Framebuffers[vr.context.ImageIndex].Handle
	vr.currentWidth = vr.context.FramebufferWidth
	vr.currentHeight = vr.context.FramebufferHeight

	vr.currentPass.Begin(commandBuffer, vr.currentFramebuffer, vr.currentWidth, vr.currentHeight, vr.clearColour)

	vr.context.Draws.Reset()
	vr.context.Binds.Invalidate()
	vr.context.Target.BeginFrame()

	// Only the acquired image's uniform set is touched; the other images
	// may still be read by frames in flight.
	vr.context.Uniforms.Update(vr.context, vr.context.ImageIndex, GlobalUniform{ViewProjection: vr.viewProjection})

	return nil
}

// EndFrame drains outstanding draws, closes the last pass, submits the
// primary buffer and presents. A stale surface at present is not an error;
// the swapchain is rebuilt and the frame's output dropped.
func (vr *VulkanRenderer) EndFrame() error {
	vr.closeSegment()
	if err := vr.context.Target.FinishFrame(); err != nil {
		return err
	}

	slot := vr.context.FrameSlots[vr.context.CurrentFrame]
	commandBuffer := slot.CommandBuffer
	if err := commandBuffer.End(); err != nil {
		return err
	}

	// Two frames in flight must never write one image: wait on whichever
	// slot fence was last submitted against this image index.
	if vr.context.imagesInFlight[vr.context.ImageIndex] != nil {
		vr.context.imagesInFlight[vr.context.ImageIndex].Wait(vr.context, math.MaxUint64)
	}
	vr.context.imagesInFlight[vr.context.ImageIndex] = slot.InFlight

	if err := slot.InFlight.Reset(vr.context); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.RenderFinished},
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{slot.ImageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
	}

	if result := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, slot.InFlight.Handle); result != vk.Success {
		err := fmt.Errorf("vkQueueSubmit failed with result: %s", VulkanResultString(result))
		core.LogError(err.Error())
		return err
	}
	commandBuffer.UpdateSubmitted()

	err := vr.context.Swapchain.Present(vr.context, vr.context.Device.PresentQueue, slot.RenderFinished, vr.context.ImageIndex)
	if err == core.ErrSwapchainOutOfDate {
		vr.cachedFramebufferWidth = vr.context.FramebufferWidth
		vr.cachedFramebufferHeight = vr.context.FramebufferHeight
		vr.recreateSwapchain()
		err = nil
	}
	if err != nil {
		return err
	}

	vr.FrameNumber++
	now := time.Now()
	if !vr.lastPresent.IsZero() {
		vr.Timer.Record(now.Sub(vr.lastPresent).Seconds())
	}
	vr.lastPresent = now
	return nil
}

// SetTarget redirects subsequent draws to a target texture, or back to the
// screen when target is nil. Only valid between StartFrame and EndFrame.
// Setting the already-active target is a full no-op: the open segment and
// the bind cache survive untouched.
func (vr *VulkanRenderer) SetTarget(target *RenderTarget) error {
	if vr.context.Target.PassOpen() && target == vr.context.Target.Current() {
		return nil
	}
	vr.closeSegment()
	return vr.context.Target.SetTarget(target)
}

// Target returns the active render target, nil meaning the screen.
func (vr *VulkanRenderer) Target() *RenderTarget {
	return vr.context.Target.Current()
}

// DrawGeometry records one draw into the current segment, binding only what
// changed since the previous draw.
func (vr *VulkanRenderer) DrawGeometry(vertexBuffer *VulkanBuffer, firstVertex, vertexCount uint32, textureSet vk.DescriptorSet, push PushConstants) error {
	if err := vr.beginSegment(); err != nil {
		return err
	}
	cb := vr.segment.Handle

	pipeline := vr.screenPipeline
	if vr.context.Target.Current() != nil {
		pipeline = vr.targetPipeline
	}

	if vr.context.Binds.BindPipeline(pipeline.Handle) {
		pipeline.Bind(cb, vk.PipelineBindPointGraphics)
		vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, pipeline.PipelineLayout,
			0, 1, []vk.DescriptorSet{vr.context.Uniforms.Sets[vr.context.ImageIndex].DescriptorSet}, 0, nil)
	}
	if vr.context.Binds.BindVertexBuffer(vertexBuffer.Handle) {
		vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{vertexBuffer.Handle}, []vk.DeviceSize{0})
	}
	if vr.context.Binds.BindDescriptorSet(textureSet) {
		vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, pipeline.PipelineLayout,
			1, 1, []vk.DescriptorSet{textureSet}, 0, nil)
	}

	vk.CmdPushConstants(cb, pipeline.PipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		0, pushConstantsSize, unsafe.Pointer(&push))

	vk.CmdDraw(cb, vertexCount, 1, firstVertex, 0)
	return nil
}

// beginSegment lazily opens a secondary buffer inheriting the current pass.
// Dynamic state is per command buffer, so viewport and scissor are set at
// every segment start.
func (vr *VulkanRenderer) beginSegment() error {
	if vr.segment != nil {
		return nil
	}
	if !vr.context.Target.PassOpen() {
		return fmt.Errorf("cannot draw outside of a frame")
	}
	slot := vr.context.FrameSlots[vr.context.CurrentFrame]
	cb, err := NewVulkanCommandBuffer(vr.context, slot.CommandPool, false)
	if err != nil {
		return err
	}
	if err := cb.BeginSecondary(vr.currentPass.Handle, vr.currentFramebuffer); err != nil {
		return err
	}

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(vr.currentWidth),
		Height:   float32(vr.currentHeight),
		MinDepth: 0,
		MaxDepth: 1,
	}
	if vr.viewport != nil && vr.context.Target.Current() == nil {
		viewport = *vr.viewport
	}
	scissor := vk.Rect2D{
		Extent: vk.Extent2D{Width: vr.currentWidth, Height: vr.currentHeight},
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	slot.secondaries = append(slot.secondaries, cb)
	vr.segment = cb
	return nil
}

// closeSegment ends the open segment and appends it to the draw list. The
// bind cache dies with the segment.
func (vr *VulkanRenderer) closeSegment() {
	if vr.segment == nil {
		return
	}
	vr.segment.End()
	vr.context.Draws.Append(vr.segment.Handle)
	vr.segment = nil
	vr.context.Binds.Invalidate()
}

// wireTargetController injects the pass plumbing into the retarget protocol.
func (vr *VulkanRenderer) wireTargetController() {
	primary := func() *VulkanCommandBuffer {
		return vr.context.FrameSlots[vr.context.CurrentFrame].CommandBuffer
	}

	vr.context.Target.DrainPending = func() {
		vr.closeSegment()
		vr.context.Draws.Drain(func(buffers []vk.CommandBuffer) {
			vk.CmdExecuteCommands(primary().Handle, uint32(len(buffers)), buffers)
		})
	}
	vr.context.Target.EndPass = func() {
		vr.currentPass.End(primary())
	}
	vr.context.Target.BeginScreenPass = func() {
		vr.currentPass = vr.context.Swapchain.MidFrameRenderpass
		vr.currentFramebuffer = vr.context.Swapchain.Framebuffers[vr.context.ImageIndex].Handle
		vr.currentWidth = vr.context.FramebufferWidth
		vr.currentHeight = vr.context.FramebufferHeight
		vr.currentPass.Begin(primary(), vr.currentFramebuffer, vr.currentWidth, vr.currentHeight, vr.clearColour)
	}
	vr.context.Target.BeginTargetPass = func(target *RenderTarget) {
		vr.currentPass = vr.context.Swapchain.ExternalRenderpass
		vr.currentFramebuffer = target.Framebuffer.Handle
		vr.currentWidth = target.Width
		vr.currentHeight = target.Height
		vr.currentPass.Begin(primary(), vr.currentFramebuffer, vr.currentWidth, vr.currentHeight, vr.clearColour)
	}
	vr.context.Target.InvalidateBinds = func() {
		vr.context.Binds.Invalidate()
	}
}

func (vr *VulkanRenderer) createFrameSlots() error {
	count := int(vr.context.Swapchain.MaxFramesInFlight)
	vr.context.FrameSlots = make([]*FrameSlot, count)

	for i := 0; i < count; i++ {
		slot := &FrameSlot{}

		poolCreateInfo := vk.CommandPoolCreateInfo{
			SType:            vk.StructureTypeCommandPoolCreateInfo,
			QueueFamilyIndex: uint32(vr.context.Device.GraphicsQueueIndex),
			Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit | vk.CommandPoolCreateResetCommandBufferBit),
		}
		var pool vk.CommandPool
		if res := vk.CreateCommandPool(vr.context.Device.LogicalDevice, &poolCreateInfo, vr.context.Allocator, &pool); res != vk.Success {
			err := fmt.Errorf("failed to create frame command pool: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}
		slot.CommandPool = pool

		cb, err := NewVulkanCommandBuffer(vr.context, pool, true)
		if err != nil {
			return err
		}
		slot.CommandBuffer = cb

		semaphoreCreateInfo := vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}
		if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &slot.ImageAvailable); res != vk.Success {
			err := fmt.Errorf("failed to create semaphore on image available")
			core.LogError(err.Error())
			return err
		}
		if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &slot.RenderFinished); res != vk.Success {
			err := fmt.Errorf("failed to create semaphore on render finished")
			core.LogError(err.Error())
			return err
		}

		// Created signaled so the first frame's wait returns immediately.
		fence, err := NewFence(vr.context, true)
		if err != nil {
			return err
		}
		slot.InFlight = fence

		vr.context.FrameSlots[i] = slot
	}
	return nil
}

func (vr *VulkanRenderer) destroyFrameSlots() {
	for _, slot := range vr.context.FrameSlots {
		if slot.ImageAvailable != vk.NullSemaphore {
			vk.DestroySemaphore(vr.context.Device.LogicalDevice, slot.ImageAvailable, vr.context.Allocator)
			slot.ImageAvailable = vk.NullSemaphore
		}
		if slot.RenderFinished != vk.NullSemaphore {
			vk.DestroySemaphore(vr.context.Device.LogicalDevice, slot.RenderFinished, vr.context.Allocator)
			slot.RenderFinished = vk.NullSemaphore
		}
		slot.InFlight.Destroy(vr.context)
		vk.DestroyCommandPool(vr.context.Device.LogicalDevice, slot.CommandPool, vr.context.Allocator)
		slot.CommandPool = nil
	}
	vr.context.FrameSlots = nil
}

func (vr *VulkanRenderer) loadShaders() error {
	vert, err := os.ReadFile(vertShaderPath)
	if err != nil {
		return fmt.Errorf("failed to read vertex shader: %w", err)
	}
	frag, err := os.ReadFile(fragShaderPath)
	if err != nil {
		return fmt.Errorf("failed to read fragment shader: %w", err)
	}

	if vr.vertModule, err = NewShaderModule(vr.context, vert); err != nil {
		return err
	}
	if vr.fragModule, err = NewShaderModule(vr.context, frag); err != nil {
		return err
	}
	return nil
}

func (vr *VulkanRenderer) createPipelines() error {
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vr.vertModule,
			PName:  VulkanSafeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: vr.fragModule,
			PName:  VulkanSafeString("main"),
		},
	}

	layouts := []vk.DescriptorSetLayout{
		vr.context.Uniforms.Layout,
		vr.context.TexDescriptors.Layout,
	}

	pipelineConfig := &VulkanPipelineConfig{
		Renderpass:           vr.context.Swapchain.MainRenderpass,
		Stride:               vertex2DStride,
		Attributes:           vertex2DAttributes(),
		DescriptorSetLayouts: layouts,
		Stages:               stages,
	}

	screen, err := NewGraphicsPipeline(vr.context, pipelineConfig)
	if err != nil {
		return err
	}
	vr.screenPipeline = screen

	pipelineConfig.Renderpass = vr.context.Swapchain.ExternalRenderpass
	target, err := NewGraphicsPipeline(vr.context, pipelineConfig)
	if err != nil {
		return err
	}
	vr.targetPipeline = target
	return nil
}

func (vr *VulkanRenderer) destroyPipelines() {
	if vr.screenPipeline != nil {
		vr.screenPipeline.Destroy(vr.context)
		vr.screenPipeline = nil
	}
	if vr.targetPipeline != nil {
		vr.targetPipeline.Destroy(vr.context)
		vr.targetPipeline = nil
	}
}

// recreateSwapchain tears down and rebuilds everything tied to the surface:
// swapchain, passes, framebuffers, pipelines, per-image state and every
// registered render target. Staged configuration takes effect here.
func (vr *VulkanRenderer) recreateSwapchain() bool {
	if vr.context.RecreatingSwapchain {
		core.LogDebug("recreateSwapchain called when already recreating. Booting.")
		return false
	}

	if vr.cachedFramebufferWidth == 0 || vr.cachedFramebufferHeight == 0 {
		core.LogDebug("recreateSwapchain called when window is < 1 in a dimension. Booting.")
		return false
	}

	vr.context.RecreatingSwapchain = true
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	for i := range vr.context.imagesInFlight {
		vr.context.imagesInFlight[i] = nil
	}

	if vr.newConfig != nil {
		vr.context.Config = *vr.newConfig
		vr.newConfig = nil
	}

	DeviceQuerySwapchainSupport(vr.context.Device.PhysicalDevice, vr.context.Surface, &vr.context.Device.SwapchainSupport)
	DeviceDetectDepthFormat(vr.context.Device)

	vr.destroyPipelines()

	sc, err := vr.context.Swapchain.Recreate(vr.context, vr.cachedFramebufferWidth, vr.cachedFramebufferHeight)
	if err != nil {
		vr.context.RecreatingSwapchain = false
		return false
	}
	vr.context.Swapchain = sc

	vr.context.FramebufferWidth = vr.cachedFramebufferWidth
	vr.context.FramebufferHeight = vr.cachedFramebufferHeight
	vr.cachedFramebufferWidth = 0
	vr.cachedFramebufferHeight = 0
	vr.context.FramebufferSizeLastGeneration = vr.context.FramebufferSizeGeneration

	if uint32(len(vr.context.imagesInFlight)) != sc.ImageCount {
		vr.context.imagesInFlight = make([]*VulkanFence, sc.ImageCount)
	}
	if err := vr.context.Uniforms.Resize(vr.context, sc.ImageCount); err != nil {
		vr.context.RecreatingSwapchain = false
		return false
	}
	if err := vr.createPipelines(); err != nil {
		vr.context.RecreatingSwapchain = false
		return false
	}
	if err := vr.context.Targets.RebuildAll(vr.context); err != nil {
		vr.context.RecreatingSwapchain = false
		return false
	}

	vr.context.RecreatingSwapchain = false
	return true
}

func instanceLayersAvailable(required []string) bool {
	var availableCount uint32
	if res := vk.EnumerateInstanceLayerProperties(&availableCount, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, availableCount)
	if res := vk.EnumerateInstanceLayerProperties(&availableCount, available); res != vk.Success {
		return false
	}

	for _, name := range required {
		found := false
		for j := range available {
			available[j].Deref()
			end := FindFirstZeroInByteArray(available[j].LayerName[:])
			if name == vk.ToString(available[j].LayerName[:end+1]) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
