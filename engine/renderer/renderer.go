package renderer

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/engine/core"
	pmath "github.com/halcyon-games/prism/engine/math"
	"github.com/halcyon-games/prism/engine/platform"
	"github.com/halcyon-games/prism/engine/renderer/vulkan"
)

// Texture is an immutable image that can be drawn any number of times.
type Texture struct {
	tex *vulkan.VulkanTexture
}

func (t *Texture) Width() uint32  { return t.tex.Width }
func (t *Texture) Height() uint32 { return t.tex.Height }

// Target is a texture that draws can be redirected into mid-frame, then
// drawn like any other texture.
type Target struct {
	target *vulkan.RenderTarget
}

func (t *Target) Width() uint32  { return t.target.Width }
func (t *Target) Height() uint32 { return t.target.Height }

// Polygon is pre-uploaded geometry in model space.
type Polygon struct {
	buffer *vulkan.VulkanBuffer
	count  uint32
}

// Renderer is the front end of the rendering runtime. It owns a Vulkan
// backend and translates draw calls into recorded geometry. Not safe for
// concurrent use; all calls belong on the main thread, like the platform
// layer they ultimately drive.
type Renderer struct {
	backend  *vulkan.VulkanRenderer
	platform *platform.Platform

	// camera is what SetCamera writes; frameCamera is the copy locked at
	// frame start.
	camera      Camera
	frameCamera Camera

	// When false, draws into a render target ignore the camera and use a
	// pixel projection of the target's size instead.
	textureCamera bool
	// Inverse of the frame's view-projection, used to cancel the uniform
	// matrix for camera-less target draws.
	frameVPInv pmath.Mat4

	quad  *vulkan.VulkanBuffer
	white *Texture
}

func New(p *platform.Platform, cfg config.Renderer) *Renderer {
	return &Renderer{
		backend:  vulkan.New(p, cfg),
		platform: p,
	}
}

func (r *Renderer) Initialize(appName string, width, height uint32) error {
	if err := r.backend.Initialize(appName, width, height); err != nil {
		return err
	}

	r.camera = DefaultCamera(float32(width), float32(height))

	quad, err := r.uploadVertices(unitQuad())
	if err != nil {
		return err
	}
	r.quad = quad

	white, err := r.CreateTexture(1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		return err
	}
	r.white = white

	return nil
}

func (r *Renderer) Shutdown() error {
	r.backend.Wait()
	if r.white != nil {
		r.white.tex.Destroy(r.backend.Context())
		r.white = nil
	}
	if r.quad != nil {
		r.quad.Destroy(r.backend.Context())
		r.quad = nil
	}
	return r.backend.Shutdown()
}

// OnResize forwards a framebuffer size change; the swapchain rebuilds at the
// next frame start.
func (r *Renderer) OnResize(width, height uint32) {
	r.backend.Resized(width, height)
}

// StartFrame locks the camera, clears the screen to the given colour and
// opens a frame against it. A core.ErrFrameSkipped return means nothing may
// be drawn this tick.
func (r *Renderer) StartFrame(clearColour [4]float32) error {
	r.backend.SetClearColour(clearColour)
	r.frameCamera = r.camera
	vp := r.frameCamera.ViewProjection()
	r.frameVPInv = vp.Inverse()
	r.backend.SetViewProjection(vp)
	return r.backend.StartFrame()
}

func (r *Renderer) EndFrame() error {
	return r.backend.EndFrame()
}

// SetTarget redirects subsequent draws into the target texture; nil returns
// to the screen. Only valid inside a frame.
func (r *Renderer) SetTarget(t *Target) error {
	if t == nil {
		return r.backend.SetTarget(nil)
	}
	return r.backend.SetTarget(t.target)
}

func (r *Renderer) Camera() Camera {
	return r.camera
}

func (r *Renderer) SetCamera(c Camera) {
	r.camera = c
}

// SetTextureCamera controls whether the camera applies to draws made into a
// render target. Off by default: target draws land in the target's own pixel
// space.
func (r *Renderer) SetTextureCamera(enabled bool) {
	r.textureCamera = enabled
}

func (r *Renderer) TextureCamera() bool {
	return r.textureCamera
}

// Config reports the authoritative configuration, after device downgrades.
func (r *Renderer) Config() config.Renderer {
	return r.backend.Config()
}

// SetConfig stages a configuration change; it takes effect at the next
// swapchain reset, which it also schedules.
func (r *Renderer) SetConfig(cfg config.Renderer) {
	r.backend.SetConfig(cfg)
}

// ResetSwapchain schedules a swapchain rebuild with the current config.
func (r *Renderer) ResetSwapchain() {
	r.backend.SetConfig(r.backend.Config())
}

func (r *Renderer) ColourMod() [4]float32 {
	return r.backend.ColourMod()
}

func (r *Renderer) SetColourMod(c [4]float32) {
	r.backend.SetColourMod(c)
}

// Viewport reports the active screen viewport as x, y, width, height.
func (r *Renderer) Viewport() (float32, float32, float32, float32) {
	return r.backend.Viewport()
}

// SetViewport overrides the screen viewport; non-positive dimensions restore
// the full surface. Takes effect at the next pass segment.
func (r *Renderer) SetViewport(x, y, width, height float32) {
	r.backend.SetViewport(x, y, width, height)
}

// Stats is a read-only snapshot of the renderer's frame metrics.
type Stats struct {
	FrameNumber uint64
	// Rolling average frame time in milliseconds over the last second.
	AverageFrameTime float64
	FPS              float64
}

func (r *Renderer) Stats() Stats {
	return Stats{
		FrameNumber:      r.backend.FrameNumber,
		AverageFrameTime: r.backend.Timer.AverageFrameTime(),
		FPS:              r.backend.Timer.FPS(),
	}
}

// AverageFrameTime reports the rolling average frame time in milliseconds.
func (r *Renderer) AverageFrameTime() float64 {
	return r.backend.Timer.AverageFrameTime()
}

func (r *Renderer) FPS() float64 {
	return r.backend.Timer.FPS()
}

// Wait blocks until the device is idle. Needed before destroying resources
// a recent frame may still reference.
func (r *Renderer) Wait() {
	r.backend.Wait()
}

// CreateTexture uploads tightly packed RGBA pixels.
func (r *Renderer) CreateTexture(width, height uint32, pixels []byte) (*Texture, error) {
	tex, err := vulkan.TextureCreate(r.backend.Context(), width, height, pixels)
	if err != nil {
		return nil, err
	}
	return &Texture{tex: tex}, nil
}

// CreateTextureFromImage converts any image.Image to RGBA and uploads it.
func (r *Renderer) CreateTextureFromImage(img image.Image) (*Texture, error) {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	return r.CreateTexture(uint32(bounds.Dx()), uint32(bounds.Dy()), rgba.Pix)
}

func (r *Renderer) DestroyTexture(t *Texture) {
	r.backend.Wait()
	t.tex.Destroy(r.backend.Context())
}

// CreateTarget creates a texture draws can be redirected into.
func (r *Renderer) CreateTarget(width, height uint32) (*Target, error) {
	target, err := vulkan.TargetCreate(r.backend.Context(), width, height)
	if err != nil {
		return nil, err
	}
	return &Target{target: target}, nil
}

func (r *Renderer) DestroyTarget(t *Target) {
	r.backend.Wait()
	t.target.Destroy(r.backend.Context())
}

// CreatePolygon uploads model-space geometry, three vertices per triangle.
func (r *Renderer) CreatePolygon(vertices []pmath.Vertex2D) (*Polygon, error) {
	buffer, err := r.uploadVertices(vertices)
	if err != nil {
		return nil, err
	}
	return &Polygon{buffer: buffer, count: uint32(len(vertices))}, nil
}

func (r *Renderer) DestroyPolygon(p *Polygon) {
	r.backend.Wait()
	p.buffer.Destroy(r.backend.Context())
}

// DrawTexture draws the texture with its top-left corner at x, y, scaled,
// then rotated around the origin point ox, oy.
func (r *Renderer) DrawTexture(t *Texture, x, y, xscale, yscale, rotation, ox, oy float32) error {
	model := pmath.NewMat4Model2D(x, y, xscale*float32(t.tex.Width), yscale*float32(t.tex.Height), rotation, ox, oy)
	return r.backend.DrawGeometry(r.quad, 0, 6, t.tex.DescriptorSet, vulkan.PushConstants{
		Model:  r.adjustModel(model),
		Colour: r.modColour(pmath.NewVec4One()),
	})
}

// DrawTarget draws a finished target texture. Drawing the currently bound
// target is rejected; its pass is still writing the image.
func (r *Renderer) DrawTarget(t *Target, x, y float32) error {
	if r.backend.Target() == t.target {
		return core.ErrTargetInUse
	}
	model := pmath.NewMat4Model2D(x, y, float32(t.target.Width), float32(t.target.Height), 0, 0, 0)
	return r.backend.DrawGeometry(r.quad, 0, 6, t.target.DescriptorSet, vulkan.PushConstants{
		Model:  r.adjustModel(model),
		Colour: r.modColour(pmath.NewVec4One()),
	})
}

// DrawPolygon draws pre-uploaded geometry with the given transform.
func (r *Renderer) DrawPolygon(p *Polygon, x, y, xscale, yscale, rotation, ox, oy float32) error {
	model := pmath.NewMat4Model2D(x, y, xscale, yscale, rotation, ox, oy)
	return r.backend.DrawGeometry(p.buffer, 0, p.count, r.white.tex.DescriptorSet, vulkan.PushConstants{
		Model:  r.adjustModel(model),
		Colour: r.modColour(pmath.NewVec4One()),
	})
}

// DrawRectangle draws a solid colour rectangle.
func (r *Renderer) DrawRectangle(x, y, w, h float32, colour pmath.Vec4) error {
	model := pmath.NewMat4Model2D(x, y, w, h, 0, 0, 0)
	return r.backend.DrawGeometry(r.quad, 0, 6, r.white.tex.DescriptorSet, vulkan.PushConstants{
		Model:  r.adjustModel(model),
		Colour: r.modColour(colour),
	})
}

// adjustModel rebases a model matrix for the active destination. The uniform
// view-projection is frame-locked, so camera-less target draws cancel it and
// substitute the target's pixel projection.
func (r *Renderer) adjustModel(model pmath.Mat4) pmath.Mat4 {
	target := r.backend.Target()
	if target == nil || r.textureCamera {
		return model
	}
	projection := pmath.NewMat4Orthographic(0, float32(target.Width), 0, float32(target.Height), -1, 1)
	return r.frameVPInv.Mul(projection).Mul(model)
}

func (r *Renderer) modColour(c pmath.Vec4) pmath.Vec4 {
	mod := r.backend.ColourMod()
	return pmath.Vec4{
		X: c.X * mod[0],
		Y: c.Y * mod[1],
		Z: c.Z * mod[2],
		W: c.W * mod[3],
	}
}

func (r *Renderer) uploadVertices(vertices []pmath.Vertex2D) (*vulkan.VulkanBuffer, error) {
	return vulkan.VertexBufferCreate(r.backend.Context(), vertices)
}

// unitQuad is two triangles covering (0,0)-(1,1) with matching texcoords.
func unitQuad() []pmath.Vertex2D {
	white := pmath.NewVec4One()
	return []pmath.Vertex2D{
		{Position: pmath.Vec2{X: 0, Y: 0}, Texcoord: pmath.Vec2{X: 0, Y: 0}, Colour: white},
		{Position: pmath.Vec2{X: 1, Y: 0}, Texcoord: pmath.Vec2{X: 1, Y: 0}, Colour: white},
		{Position: pmath.Vec2{X: 1, Y: 1}, Texcoord: pmath.Vec2{X: 1, Y: 1}, Colour: white},
		{Position: pmath.Vec2{X: 0, Y: 0}, Texcoord: pmath.Vec2{X: 0, Y: 0}, Colour: white},
		{Position: pmath.Vec2{X: 1, Y: 1}, Texcoord: pmath.Vec2{X: 1, Y: 1}, Colour: white},
		{Position: pmath.Vec2{X: 0, Y: 1}, Texcoord: pmath.Vec2{X: 0, Y: 1}, Colour: white},
	}
}
