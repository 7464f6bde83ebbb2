package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/halcyon-games/prism/engine/core"
)

// RenderpassKind selects one of the three pass variants the frame loop uses.
type RenderpassKind int

const (
	// RenderpassMain opens the frame against the screen: clears, expects an
	// undefined image, leaves it presentable.
	RenderpassMain RenderpassKind = iota
	// RenderpassMidFrame re-targets back to the screen mid-frame: loads the
	// existing contents instead of clearing.
	RenderpassMidFrame
	// RenderpassExternal renders to a target texture, loading its contents
	// and leaving it shader-readable.
	RenderpassExternal
)

type VulkanRenderpass struct {
	Handle   vk.RenderPass
	Kind     RenderpassKind
	HasDepth bool
	Samples  vk.SampleCountFlagBits
}

// renderpassAttachments builds the attachment descriptions for one pass
// variant. Split out of RenderpassCreate so the layout and load/store
// policy can be checked without a device.
func renderpassAttachments(kind RenderpassKind, colourFormat, depthFormat vk.Format, samples vk.SampleCountFlagBits) []vk.AttachmentDescription {
	multisampled := samples != vk.SampleCount1Bit
	hasDepth := kind != RenderpassExternal

	var attachments []vk.AttachmentDescription

	colourAttachment := vk.AttachmentDescription{
		Format:         colourFormat,
		Samples:        samples,
		LoadOp:         vk.AttachmentLoadOpLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
	}
	switch kind {
	case RenderpassMain:
		colourAttachment.LoadOp = vk.AttachmentLoadOpClear
		colourAttachment.InitialLayout = vk.ImageLayoutUndefined
		colourAttachment.FinalLayout = vk.ImageLayoutPresentSrc
	case RenderpassMidFrame:
		colourAttachment.InitialLayout = vk.ImageLayoutPresentSrc
		colourAttachment.FinalLayout = vk.ImageLayoutPresentSrc
	case RenderpassExternal:
		colourAttachment.InitialLayout = vk.ImageLayoutShaderReadOnlyOptimal
		colourAttachment.FinalLayout = vk.ImageLayoutShaderReadOnlyOptimal
	}
	if multisampled {
		// The multisample image is drawn to and resolved; the resolve
		// attachment carries the layouts the single-sample colour would.
		resolveFinal := colourAttachment.FinalLayout
		resolveInitial := colourAttachment.InitialLayout
		colourAttachment.InitialLayout = vk.ImageLayoutUndefined
		if kind != RenderpassMain {
			colourAttachment.InitialLayout = vk.ImageLayoutColorAttachmentOptimal
		}
		colourAttachment.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
		attachments = append(attachments, colourAttachment)

		resolveAttachment := vk.AttachmentDescription{
			Format:         colourFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpDontCare,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  resolveInitial,
			FinalLayout:    resolveFinal,
		}
		if kind == RenderpassMain {
			resolveAttachment.InitialLayout = vk.ImageLayoutUndefined
		}
		attachments = append(attachments, resolveAttachment)
	} else {
		attachments = append(attachments, colourAttachment)
	}

	if hasDepth {
		// Depth is never carried across passes: the main pass stores with
		// DontCare, so every variant clears from an undefined image.
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         depthFormat,
			Samples:        samples,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
	}

	return attachments
}

func RenderpassCreate(context *VulkanContext, kind RenderpassKind, colourFormat vk.Format, samples vk.SampleCountFlagBits) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{
		Kind:     kind,
		HasDepth: kind != RenderpassExternal,
		Samples:  samples,
	}
	multisampled := samples != vk.SampleCount1Bit

	attachments := renderpassAttachments(kind, colourFormat, context.Device.DepthFormat, samples)

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{
			{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal},
		},
	}
	if multisampled {
		subpass.PResolveAttachments = []vk.AttachmentReference{
			{Attachment: 1, Layout: vk.ImageLayoutColorAttachmentOptimal},
		}
	}
	if outRenderpass.HasDepth {
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(attachments) - 1),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var pRenderPass vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass); res != vk.Success {
		err := fmt.Errorf("failed to create render pass: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	outRenderpass.Handle = pRenderPass
	return outRenderpass, nil
}

func (vr *VulkanRenderpass) Destroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

// Begin opens the pass on the primary buffer. Contents are always recorded
// through secondary buffers, never inline.
func (vr *VulkanRenderpass) Begin(commandBuffer *VulkanCommandBuffer, framebuffer vk.Framebuffer, width, height uint32, clearColour [4]float32) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: width, Height: height},
		},
	}

	// Clear values must cover every attachment even when most load ops
	// are loads; only the ones with a clear op are consumed.
	attachmentCount := 1
	if vr.Samples != vk.SampleCount1Bit {
		attachmentCount++
	}
	if vr.HasDepth {
		attachmentCount++
	}
	clearValues := make([]vk.ClearValue, attachmentCount)
	clearValues[0].SetColor(clearColour[:])
	if vr.Samples != vk.SampleCount1Bit {
		clearValues[1].SetColor(clearColour[:])
	}
	if vr.HasDepth {
		clearValues[attachmentCount-1].SetDepthStencil(1.0, 0)
	}
	beginInfo.ClearValueCount = uint32(attachmentCount)
	beginInfo.PClearValues = clearValues

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsSecondaryCommandBuffers)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) End(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
