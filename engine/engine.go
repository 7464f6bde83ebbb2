package engine

import (
	"errors"
	"fmt"

	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/core"
	"github.com/halcyon-games/prism/engine/platform"
	"github.com/halcyon-games/prism/engine/renderer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool
	platform     *platform.Platform
	renderer     *renderer.Renderer
	configPath   string
	watcher      *config.Watcher
	width        uint32
	height       uint32
	clearColour  [4]float32
	clock        *core.Clock
	lastTime     float64

	// Hand-off from the config watcher goroutine to the render loop. The
	// renderer itself is only ever touched from Run's thread.
	pendingConfig chan config.Renderer
}

func New(g *Game, configPath string) (*Engine, error) {
	if g.Config == nil {
		return nil, fmt.Errorf("game has no configuration")
	}

	p, err := platform.New()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		clock:         core.NewClock(),
		platform:      p,
		renderer:      renderer.New(p, g.Config.Renderer),
		configPath:    configPath,
		isRunning:     true,
		isSuspended:   false,
		width:         g.Config.Width,
		height:        g.Config.Height,
		clearColour:   [4]float32{0, 0, 0, 1},
		lastTime:      0,
		pendingConfig: make(chan config.Renderer, 1),
	}, nil
}

// stageRendererConfig parks a renderer configuration for the render loop to
// pick up. Safe to call from the watcher goroutine; when the loop has not
// drained the previous one yet, the latest write wins.
func (e *Engine) stageRendererConfig(cfg config.Renderer) {
	select {
	case <-e.pendingConfig:
	default:
	}
	e.pendingConfig <- cfg
}

// stagedRendererConfig reports and clears the parked configuration, if any.
func (e *Engine) stagedRendererConfig() (config.Renderer, bool) {
	select {
	case cfg := <-e.pendingConfig:
		return cfg, true
	default:
		return config.Renderer{}, false
	}
}

// SetClearColour sets the colour the screen is cleared to each frame.
func (e *Engine) SetClearColour(c [4]float32) {
	e.clearColour = c
}

// Renderer exposes the renderer to the game's callbacks.
func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	cfg := e.gameInstance.Config

	core.SetLogLevel(cfg.LogLevel)

	if err := e.platform.Startup(cfg.Name, cfg.StartX, cfg.StartY, cfg.Width, cfg.Height); err != nil {
		return err
	}

	if err := e.renderer.Initialize(cfg.Name, e.width, e.height); err != nil {
		return err
	}

	// Live-reload renderer settings from the config file. The callback runs
	// on the watcher goroutine, so it only parks the change; Run picks it up
	// and the renderer applies it at a frame boundary.
	if e.configPath != "" {
		w, err := config.NewWatcher(e.configPath, func(next *config.App) {
			e.stageRendererConfig(next.Renderer)
		})
		if err != nil {
			core.LogWarn("config watcher disabled: %s", err)
		} else {
			e.watcher = w
		}
	}

	if err := e.gameInstance.FnInitialize(e.renderer); err != nil {
		return err
	}
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.ElapsedSeconds()

	for e.isRunning {
		e.platform.PumpMessages()
		if e.platform.ShouldClose() {
			e.isRunning = false
			break
		}

		if width, height, ok := e.platform.ConsumeResize(); ok {
			e.onResized(width, height)
		}

		if cfg, ok := e.stagedRendererConfig(); ok {
			e.renderer.SetConfig(cfg)
		}

		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.ElapsedSeconds()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogFatal("Game update failed, shutting down.")
			e.isRunning = false
			break
		}

		if err := e.renderer.StartFrame(e.clearColour); err != nil {
			// A skipped frame is routine: resize or swapchain reset in
			// progress. Try again next tick.
			if errors.Is(err, core.ErrFrameSkipped) {
				continue
			}
			core.LogError("StartFrame failed: %s", err)
			e.isRunning = false
			break
		}

		if err := e.gameInstance.FnRender(e.renderer, delta); err != nil {
			core.LogFatal("Game render failed, shutting down.")
			e.isRunning = false
			break
		}

		if err := e.renderer.EndFrame(); err != nil {
			core.LogError("EndFrame failed: %s", err)
			e.isRunning = false
			break
		}
	}

	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			core.LogWarn(err.Error())
		}
		e.watcher = nil
	}
	if err := e.renderer.Shutdown(); err != nil {
		return err
	}
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	return nil
}

// GetFramebufferSize returns the width and height (in this order) of the
// application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onResized(width, height uint32) {
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization.
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}

	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	e.renderer.OnResize(width, height)
}
