package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Single step while paused
	if g.paused && rl.IsKeyPressed(rl.KeyN) {
		if err := g.step(); err != nil {
			slog.Error("step failed", "error", err)
		}
	}

	// Substeps per rendered frame with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.substeps > 1 {
		g.substeps--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.substeps < 50 {
		g.substeps++
	}

	if rl.IsKeyPressed(rl.KeyR) {
		g.Reset()
	}

	if rl.IsKeyPressed(rl.KeyP) {
		g.showPanels = !g.showPanels
	}

	// Left button drives the solver's pointer spring
	mouse := rl.GetMousePosition()
	g.pointer.x, g.pointer.y = g.camera.ScreenToWorld(mouse.X, mouse.Y)
	g.pointer.pressed = rl.IsMouseButtonDown(rl.MouseButtonLeft)

	// Camera controls
	g.handleCameraInput(mouse)
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.backgroundRenderer.Resize(int32(w), int32(h))
	g.perfPanel.SetPosition(int32(w)-270, 10)
	g.densityPanel.SetPosition(int32(w)-270, 200)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput(mouse rl.Vector2) {
	// Right drag pans
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		delta := rl.GetMouseDelta()
		g.camera.Pan(-delta.X, -delta.Y)
	}

	// Arrow key panning
	const panSpeed = 8.0
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom toward the cursor with the mouse wheel
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomAt(1+wheel*0.1, mouse.X, mouse.Y)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
