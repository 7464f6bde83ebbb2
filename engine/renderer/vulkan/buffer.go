package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/halcyon-games/prism/engine/core"
	pmath "github.com/halcyon-games/prism/engine/math"
)

type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
	// Host-visible buffers stay mapped for their whole lifetime.
	mapped unsafe.Pointer
}

// BufferCreate allocates a host-visible, host-coherent buffer and maps it.
// Uniform and vertex data for a 2D workload is small and rewritten per frame,
// so device-local staging is not worth the copy here.
func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		Size: size,
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var pBuffer vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &pBuffer); res != vk.Success {
		err := fmt.Errorf("failed to create buffer: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Handle = pBuffer

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryFlags := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryType == -1 {
		err := fmt.Errorf("required memory type not found for buffer")
		core.LogError(err.Error())
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var pMemory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &pMemory); res != vk.Success {
		err := fmt.Errorf("failed to allocate buffer memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Memory = pMemory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		err := fmt.Errorf("failed to bind buffer memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	var data unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, buffer.Memory, 0, size, 0, &data); res != vk.Success {
		err := fmt.Errorf("failed to map buffer memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.mapped = data

	return buffer, nil
}

// VertexBufferCreate uploads Vertex2D geometry into a fresh vertex buffer.
func VertexBufferCreate(context *VulkanContext, vertices []pmath.Vertex2D) (*VulkanBuffer, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("vertex buffer needs at least one vertex")
	}
	size := len(vertices) * int(unsafe.Sizeof(pmath.Vertex2D{}))
	buffer, err := BufferCreate(context, vk.DeviceSize(size), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, err
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
	buffer.LoadData(0, data)
	return buffer, nil
}

// LoadData copies raw bytes into the mapped buffer at the given offset.
func (vb *VulkanBuffer) LoadData(offset vk.DeviceSize, data []byte) {
	dst := unsafe.Pointer(uintptr(vb.mapped) + uintptr(offset))
	vk.Memcopy(dst, data)
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		vb.mapped = nil
	}
	if vb.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = nil
	}
	vb.Size = 0
}
