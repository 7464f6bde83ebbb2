package core

// FrameTimer keeps a rolling average of frame times over roughly one second
// of wall time. One instance belongs to one renderer; there is no global
// metrics state.
type FrameTimer struct {
	accumulatedMS float64
	frames        int32
	avgMS         float64
	fps           float64
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{}
}

// Record feeds one frame's elapsed time in seconds. Once a full second of
// frames has accumulated, the published average and FPS roll over.
func (ft *FrameTimer) Record(frameElapsedSeconds float64) {
	frameMS := frameElapsedSeconds * 1000.0
	ft.accumulatedMS += frameMS
	ft.frames++

	if ft.accumulatedMS >= 1000.0 {
		ft.avgMS = ft.accumulatedMS / float64(ft.frames)
		ft.fps = float64(ft.frames) * 1000.0 / ft.accumulatedMS
		ft.accumulatedMS = 0
		ft.frames = 0
	}
}

// AverageFrameTime returns the frame time in milliseconds averaged over the
// last full second. Zero until the first second has elapsed.
func (ft *FrameTimer) AverageFrameTime() float64 {
	return ft.avgMS
}

func (ft *FrameTimer) FPS() float64 {
	return ft.fps
}
