package vulkan

import (
	vk "github.com/goki/vulkan"
)

// DrawList is the ordered sequence of secondary command buffers recorded for
// the current frame, split by a processed-boundary cursor. Buffers below the
// cursor have already been executed inside some render pass this frame;
// buffers at or above it are pending. The cursor only ever moves forward and
// resets exactly once per frame, so no buffer can execute twice.
type DrawList struct {
	buffers []vk.CommandBuffer
	offset  int
}

// Reset discards the frame's buffers and rewinds the cursor. Called once at
// frame start; the handles themselves are reclaimed by the pool reset.
func (dl *DrawList) Reset() {
	dl.buffers = dl.buffers[:0]
	dl.offset = 0
}

// Append records one finished secondary buffer at the end of the list.
func (dl *DrawList) Append(buffer vk.CommandBuffer) {
	dl.buffers = append(dl.buffers, buffer)
}

// Pending returns the not-yet-executed tail of the list. May be empty; a
// drain over an empty range is still a well-formed (if trivial) drain.
func (dl *DrawList) Pending() []vk.CommandBuffer {
	return dl.buffers[dl.offset:]
}

// Drain hands every pending buffer to exec and advances the cursor to the
// total recorded count. exec is skipped for an empty range but the cursor
// still advances, keeping the invariant offset <= len.
func (dl *DrawList) Drain(exec func(buffers []vk.CommandBuffer)) {
	pending := dl.Pending()
	if len(pending) > 0 {
		exec(pending)
	}
	dl.offset = len(dl.buffers)
}

// Len returns the total number of buffers recorded this frame.
func (dl *DrawList) Len() int {
	return len(dl.buffers)
}

// Offset returns the processed-boundary cursor.
func (dl *DrawList) Offset() int {
	return dl.offset
}
