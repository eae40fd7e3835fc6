package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/camera"
	"github.com/pthm-cable/fluid/components"
)

// Palette endpoints: calm water to compressed or fast water.
var (
	calmColor  = rl.Color{R: 40, G: 110, B: 220, A: 255}
	hotColor   = rl.Color{R: 235, G: 245, B: 255, A: 255}
	floorColor = rl.Color{R: 90, G: 90, B: 100, A: 255}
)

// speedScale is the speed drawn at full highlight when no density is known.
const speedScale = 400

// ParticleRenderer draws the published particle buffer as discs.
type ParticleRenderer struct {
	Radius float32 // world units
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer(radius float32) *ParticleRenderer {
	return &ParticleRenderer{Radius: radius}
}

// Draw renders all particles. With a density field the color encodes
// compression relative to rho0, otherwise speed.
func (r *ParticleRenderer) Draw(cam *camera.Camera, ps []components.Particle, density []float32, rho0 float32) {
	radius := r.Radius * cam.Zoom
	if radius < 1 {
		radius = 1
	}

	for i := range ps {
		p := &ps[i]
		if !cam.IsVisible(p.Pos[0], p.Pos[1], r.Radius) {
			continue
		}

		var t float32
		if len(density) == len(ps) && rho0 > 0 {
			t = density[i]/rho0 - 1
		} else {
			vx, vy, _ := p.Velocity()
			t = float32(math.Sqrt(float64(vx*vx+vy*vy))) / speedScale
		}

		sx, sy := cam.WorldToScreen(p.Pos[0], p.Pos[1])
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, lerpColor(calmColor, hotColor, t))
	}
}

// DrawFloor draws the floor plane as a horizontal line across the viewport.
func (r *ParticleRenderer) DrawFloor(cam *camera.Camera, y float32) {
	_, sy := cam.WorldToScreen(0, y)
	rl.DrawLineEx(rl.Vector2{X: 0, Y: sy}, rl.Vector2{X: cam.ViewportW, Y: sy}, 2, floorColor)
}

// DrawPointer outlines the interaction radius around the cursor.
func (r *ParticleRenderer) DrawPointer(cam *camera.Camera, wx, wy, radius float32) {
	sx, sy := cam.WorldToScreen(wx, wy)
	rl.DrawCircleLines(int32(sx), int32(sy), radius*cam.Zoom, rl.Fade(rl.White, 0.4))
}

// lerpColor blends a toward b, with t clamped to [0, 1].
func lerpColor(a, b rl.Color, t float32) rl.Color {
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
