package engine

import (
	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/renderer"
)

type Game struct {
	Config       *config.App
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
}

type Initialize func(r *renderer.Renderer) error
type Update func(deltaTime float64) error
type Render func(r *renderer.Renderer, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
