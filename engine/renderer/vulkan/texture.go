package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/core"
	pmath "github.com/halcyon-games/prism/engine/math"
)

const vertex2DStride = uint32(unsafe.Sizeof(pmath.Vertex2D{}))

// vertex2DAttributes describes the Vertex2D layout: position, texcoord,
// colour.
func vertex2DAttributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(pmath.Vertex2D{}.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(pmath.Vertex2D{}.Texcoord))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: uint32(unsafe.Offsetof(pmath.Vertex2D{}.Colour))},
	}
}

// newTextureDescriptorAllocator builds the combined image sampler layout
// shared by textures and render targets.
func newTextureDescriptorAllocator(context *VulkanContext) (*DescriptorAllocator, error) {
	layoutBinding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{layoutBinding},
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("failed to create texture descriptor set layout: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	return NewDescriptorAllocator(context, layout, []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: 1},
	})
}

// VulkanTexture is an immutable sampled image uploaded once from RGBA
// pixels.
type VulkanTexture struct {
	Image         *VulkanImage
	Sampler       vk.Sampler
	DescriptorSet vk.DescriptorSet
	Width         uint32
	Height        uint32
}

// TextureCreate uploads tightly packed RGBA pixels through a staging buffer
// and leaves the image shader-readable.
func TextureCreate(context *VulkanContext, width, height uint32, pixels []byte) (*VulkanTexture, error) {
	if uint32(len(pixels)) != width*height*4 {
		return nil, fmt.Errorf("texture pixel data is %d bytes, want %d", len(pixels), width*height*4)
	}

	texture := &VulkanTexture{
		Width:  width,
		Height: height,
	}

	image, err := ImageCreate(
		context,
		width,
		height,
		vk.FormatR8g8b8a8Unorm,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		vk.SampleCount1Bit,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}
	texture.Image = image

	staging, err := BufferCreate(context, vk.DeviceSize(len(pixels)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)
	staging.LoadData(0, pixels)

	pool := context.Device.GraphicsCommandPool
	commandBuffer, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return nil, err
	}
	if err := image.TransitionLayout(commandBuffer, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return nil, err
	}
	image.CopyFromBuffer(commandBuffer, staging.Handle)
	if err := image.TransitionLayout(commandBuffer, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return nil, err
	}
	if err := commandBuffer.EndSingleUse(context, pool, context.Device.GraphicsQueue); err != nil {
		return nil, err
	}

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
		err := fmt.Errorf("failed to create texture sampler: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	texture.Sampler = sampler

	set, err := writeSamplerDescriptor(context, image.View, sampler)
	if err != nil {
		return nil, err
	}
	texture.DescriptorSet = set

	return texture, nil
}

func (vt *VulkanTexture) Destroy(context *VulkanContext) {
	if vt.Sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, vt.Sampler, context.Allocator)
		vt.Sampler = nil
	}
	if vt.Image != nil {
		vt.Image.Destroy(context)
		vt.Image = nil
	}
}

// writeSamplerDescriptor allocates a combined image sampler set and points
// it at the view.
func writeSamplerDescriptor(context *VulkanContext, view vk.ImageView, sampler vk.Sampler) (vk.DescriptorSet, error) {
	set, err := context.TexDescriptors.Allocate(context)
	if err != nil {
		return nil, err
	}
	updateSamplerDescriptor(context, set, view, sampler)
	return set, nil
}

func updateSamplerDescriptor(context *VulkanContext, set vk.DescriptorSet, view vk.ImageView, sampler vk.Sampler) {
	imageInfo := vk.DescriptorImageInfo{
		Sampler:     sampler,
		ImageView:   view,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}
