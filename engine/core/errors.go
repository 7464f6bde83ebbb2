package core

import (
	"errors"
)

var (
	// ErrSwapchainOutOfDate is returned when the presentable surface no longer
	// matches the swapchain. The renderer recovers by recreating the swapchain;
	// the frame that observed it is skipped, never the whole run.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	// ErrFrameSkipped is returned from StartFrame when a frame is abandoned
	// (resize, swapchain recreation). The caller simply retries next tick.
	ErrFrameSkipped = errors.New("frame skipped")
	// ErrNoSuitableDevice is fatal: no physical device satisfies the renderer.
	ErrNoSuitableDevice = errors.New("no suitable physical device")
	// ErrSurfaceLost is fatal: the surface cannot be renegotiated.
	ErrSurfaceLost = errors.New("surface lost")
	// ErrTargetInUse rejects sampling a render target while it is bound as
	// the draw destination.
	ErrTargetInUse = errors.New("render target is the active draw destination")
)
