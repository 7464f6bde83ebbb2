package testbed

import (
	"image"
	"image/color"
	"math"

	"github.com/halcyon-games/prism/engine"
	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/core"
	pmath "github.com/halcyon-games/prism/engine/math"
	"github.com/halcyon-games/prism/engine/renderer"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32

	checker *renderer.Texture
	minimap *renderer.Target
	hexagon *renderer.Polygon

	rotation   float32
	statsTimer float64
}

func NewTestGame(cfg *config.App) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize

	return tg
}

func (g *TestGame) Initialize(r *renderer.Renderer) error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)

	tex, err := r.CreateTextureFromImage(checkerboard(128, 16))
	if err != nil {
		return err
	}
	state.checker = tex

	// A small offscreen scene, redrawn into mid-frame and composited back.
	minimap, err := r.CreateTarget(256, 256)
	if err != nil {
		return err
	}
	state.minimap = minimap

	hexagon, err := r.CreatePolygon(regularPolygon(6, 80, pmath.Vec4{X: 0.4, Y: 0.8, Z: 1, W: 1}))
	if err != nil {
		return err
	}
	state.hexagon = hexagon

	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.rotation += float32(deltaTime)
	if state.rotation > 2*math.Pi {
		state.rotation -= 2 * math.Pi
	}
	return nil
}

func (g *TestGame) Render(r *renderer.Renderer, deltaTime float64) error {
	state := g.State.(*gameState)

	// Background.
	if err := r.DrawRectangle(0, 0, float32(state.width), float32(state.height), pmath.Vec4{X: 0.08, Y: 0.08, Z: 0.12, W: 1}); err != nil {
		return err
	}

	// A spinning checkerboard in the middle of the screen.
	if err := r.DrawTexture(state.checker,
		float32(state.width)/2, float32(state.height)/2,
		2, 2, state.rotation, 64, 64); err != nil {
		return err
	}

	// Redirect mid-frame into the minimap, then come back and composite it.
	if err := r.SetTarget(state.minimap); err != nil {
		return err
	}
	if err := r.DrawRectangle(0, 0, 256, 256, pmath.Vec4{X: 0, Y: 0.2, Z: 0, W: 1}); err != nil {
		return err
	}
	if err := r.DrawPolygon(state.hexagon, 128, 128, 1, 1, -state.rotation, 0, 0); err != nil {
		return err
	}
	if err := r.SetTarget(nil); err != nil {
		return err
	}
	if err := r.DrawTarget(state.minimap, 16, 16); err != nil {
		return err
	}

	state.statsTimer += deltaTime
	if state.statsTimer >= 5 {
		state.statsTimer = 0
		stats := r.Stats()
		core.LogInfo("frame %d, FPS: %5.1f (%4.2fms avg)", stats.FrameNumber, stats.FPS, stats.AverageFrameTime)
	}

	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

// checkerboard builds a size by size test pattern with the given cell size.
func checkerboard(size, cell int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	light := color.RGBA{R: 235, G: 235, B: 235, A: 255}
	dark := color.RGBA{R: 40, G: 40, B: 60, A: 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return img
}

// regularPolygon triangulates an n-gon as a fan around the origin.
func regularPolygon(sides int, radius float32, colour pmath.Vec4) []pmath.Vertex2D {
	centre := pmath.Vertex2D{Colour: colour, Texcoord: pmath.Vec2{X: 0.5, Y: 0.5}}
	vertices := make([]pmath.Vertex2D, 0, sides*3)
	for i := 0; i < sides; i++ {
		a0 := 2 * math.Pi * float64(i) / float64(sides)
		a1 := 2 * math.Pi * float64(i+1) / float64(sides)
		v0 := pmath.Vertex2D{
			Position: pmath.Vec2{X: radius * float32(math.Cos(a0)), Y: radius * float32(math.Sin(a0))},
			Colour:   colour,
		}
		v1 := pmath.Vertex2D{
			Position: pmath.Vec2{X: radius * float32(math.Cos(a1)), Y: radius * float32(math.Sin(a1))},
			Colour:   colour,
		}
		vertices = append(vertices, centre, v0, v1)
	}
	return vertices
}
