package vulkan

import (
	vk "github.com/goki/vulkan"
)

// BindCache suppresses redundant bind commands while recording draws. It
// compares handle identity only; two distinct objects with identical
// contents still rebind. State is only meaningful within a single pass
// segment, so the cache is invalidated at frame start and at every pass
// transition.
type BindCache struct {
	lastPipeline      vk.Pipeline
	lastVertexBuffer  vk.Buffer
	lastDescriptorSet vk.DescriptorSet
}

// Invalidate forgets all cached bindings. The next draw rebinds everything.
func (bc *BindCache) Invalidate() {
	bc.lastPipeline = vk.Pipeline(vk.NullHandle)
	bc.lastVertexBuffer = vk.Buffer(vk.NullHandle)
	bc.lastDescriptorSet = vk.DescriptorSet(vk.NullHandle)
}

// BindPipeline reports whether the pipeline changed since the last draw and
// records it as current.
func (bc *BindCache) BindPipeline(pipeline vk.Pipeline) bool {
	if pipeline == bc.lastPipeline {
		return false
	}
	bc.lastPipeline = pipeline
	return true
}

// BindVertexBuffer reports whether the vertex buffer changed since the last
// draw and records it as current.
func (bc *BindCache) BindVertexBuffer(buffer vk.Buffer) bool {
	if buffer == bc.lastVertexBuffer {
		return false
	}
	bc.lastVertexBuffer = buffer
	return true
}

// BindDescriptorSet reports whether the descriptor set changed since the
// last draw and records it as current.
func (bc *BindCache) BindDescriptorSet(set vk.DescriptorSet) bool {
	if set == bc.lastDescriptorSet {
		return false
	}
	bc.lastDescriptorSet = set
	return true
}
