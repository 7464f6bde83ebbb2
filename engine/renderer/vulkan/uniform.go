package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/halcyon-games/prism/engine/core"
	pmath "github.com/halcyon-games/prism/engine/math"
)

// GlobalUniform is the per-frame uniform block handed to the vertex stage.
type GlobalUniform struct {
	ViewProjection pmath.Mat4
}

const globalUniformSize = vk.DeviceSize(unsafe.Sizeof(GlobalUniform{}))

// UniformSet pairs one swapchain image's uniform buffer with the descriptor
// set that points at it. The descriptor is rewritten only when the backing
// buffer handle changes, not on every data upload.
type UniformSet struct {
	Buffer        *VulkanBuffer
	DescriptorSet vk.DescriptorSet

	lastBuffer vk.Buffer
}

// UniformController owns one UniformSet per swapchain image. Each frame only
// the set for the acquired image index is touched; the others may still be
// read by frames in flight.
type UniformController struct {
	Layout    vk.DescriptorSetLayout
	Sets      []*UniformSet
	allocator *DescriptorAllocator
}

func NewUniformController(context *VulkanContext, imageCount uint32) (*UniformController, error) {
	uc := &UniformController{}

	layoutBinding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{layoutBinding},
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("failed to create uniform descriptor set layout: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	uc.Layout = layout

	allocator, err := NewDescriptorAllocator(context, layout, []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: 1},
	})
	if err != nil {
		return nil, err
	}
	uc.allocator = allocator

	uc.Sets = make([]*UniformSet, imageCount)
	for i := range uc.Sets {
		buffer, err := BufferCreate(context, globalUniformSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
		if err != nil {
			return nil, err
		}
		set, err := allocator.Allocate(context)
		if err != nil {
			return nil, err
		}
		uc.Sets[i] = &UniformSet{Buffer: buffer, DescriptorSet: set}
	}
	return uc, nil
}

// Update uploads the view-projection for the acquired image and, if the
// backing buffer changed since the descriptor was last written, points the
// descriptor at it.
func (uc *UniformController) Update(context *VulkanContext, imageIndex uint32, uniform GlobalUniform) {
	set := uc.Sets[imageIndex]

	data := unsafe.Slice((*byte)(unsafe.Pointer(&uniform)), globalUniformSize)
	set.Buffer.LoadData(0, data)

	if set.lastBuffer == set.Buffer.Handle {
		return
	}
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: set.Buffer.Handle,
		Offset: 0,
		Range:  globalUniformSize,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set.DescriptorSet,
		DstBinding:      0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	set.lastBuffer = set.Buffer.Handle
}

// Resize rebuilds the per-image sets for a new image count after a swapchain
// reset. Existing buffers are reused where the counts overlap.
func (uc *UniformController) Resize(context *VulkanContext, imageCount uint32) error {
	if uint32(len(uc.Sets)) == imageCount {
		return nil
	}
	for uint32(len(uc.Sets)) > imageCount {
		last := uc.Sets[len(uc.Sets)-1]
		last.Buffer.Destroy(context)
		uc.Sets = uc.Sets[:len(uc.Sets)-1]
	}
	for uint32(len(uc.Sets)) < imageCount {
		buffer, err := BufferCreate(context, globalUniformSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
		if err != nil {
			return err
		}
		set, err := uc.allocator.Allocate(context)
		if err != nil {
			return err
		}
		uc.Sets = append(uc.Sets, &UniformSet{Buffer: buffer, DescriptorSet: set})
	}
	return nil
}

func (uc *UniformController) Destroy(context *VulkanContext) {
	for _, set := range uc.Sets {
		set.Buffer.Destroy(context)
	}
	uc.Sets = nil
	if uc.allocator != nil {
		uc.allocator.Destroy(context)
	}
	if uc.Layout != nil {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, uc.Layout, context.Allocator)
		uc.Layout = nil
	}
}
