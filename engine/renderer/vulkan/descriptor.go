package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/halcyon-games/prism/engine/core"
)

const descriptorPoolSetCount = 64

// DescriptorAllocator hands out descriptor sets for one layout, growing by
// whole pools when the current one runs dry. Pools are never shrunk; a
// Reset recycles every set allocated so far.
type DescriptorAllocator struct {
	Layout vk.DescriptorSetLayout

	pools       []vk.DescriptorPool
	current     int
	descriptors []vk.DescriptorPoolSize
}

// NewDescriptorAllocator creates an allocator for the given set layout. The
// sizes describe what one set consumes; they are scaled by the per-pool set
// count when a pool is created.
func NewDescriptorAllocator(context *VulkanContext, layout vk.DescriptorSetLayout, sizes []vk.DescriptorPoolSize) (*DescriptorAllocator, error) {
	da := &DescriptorAllocator{
		Layout:      layout,
		descriptors: append([]vk.DescriptorPoolSize(nil), sizes...),
	}
	if err := da.grow(context); err != nil {
		return nil, err
	}
	return da, nil
}

func (da *DescriptorAllocator) grow(context *VulkanContext) error {
	sizes := make([]vk.DescriptorPoolSize, len(da.descriptors))
	for i, s := range da.descriptors {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            s.Type,
			DescriptorCount: s.DescriptorCount * descriptorPoolSetCount,
		}
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
		MaxSets:       descriptorPoolSetCount,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor pool: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	da.pools = append(da.pools, pool)
	da.current = len(da.pools) - 1
	return nil
}

// Allocate returns a fresh descriptor set, creating another pool when the
// current one is exhausted. Failing to grow is unrecoverable.
func (da *DescriptorAllocator) Allocate(context *VulkanContext) (vk.DescriptorSet, error) {
	set, res := da.allocateFrom(context, da.pools[da.current])
	if res == vk.Success {
		return set, nil
	}
	if res != vk.ErrorOutOfPoolMemory && res != vk.ErrorFragmentedPool {
		err := fmt.Errorf("failed to allocate descriptor set: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	if err := da.grow(context); err != nil {
		core.LogFatal("descriptor pool growth failed, cannot continue")
		return nil, err
	}
	set, res = da.allocateFrom(context, da.pools[da.current])
	if res != vk.Success {
		err := fmt.Errorf("failed to allocate descriptor set from fresh pool: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	return set, nil
}

func (da *DescriptorAllocator) allocateFrom(context *VulkanContext, pool vk.DescriptorPool) (vk.DescriptorSet, vk.Result) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{da.Layout},
	}
	sets := make([]vk.DescriptorSet, 1)
	res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocInfo, &sets[0])
	return sets[0], res
}

// Reset recycles every allocated set. Any handles previously returned become
// invalid; callers re-allocate after a reset.
func (da *DescriptorAllocator) Reset(context *VulkanContext) {
	for _, pool := range da.pools {
		vk.ResetDescriptorPool(context.Device.LogicalDevice, pool, 0)
	}
	da.current = 0
}

func (da *DescriptorAllocator) Destroy(context *VulkanContext) {
	for _, pool := range da.pools {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, pool, context.Allocator)
	}
	da.pools = nil
}
