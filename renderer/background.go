package renderer

import rl "github.com/gen2brain/raylib-go/raylib"

// BackgroundRenderer fills the viewport with a vertical gradient.
type BackgroundRenderer struct {
	screenW, screenH int32
	top, bottom      rl.Color
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(screenW, screenH int32) *BackgroundRenderer {
	return &BackgroundRenderer{
		screenW: screenW,
		screenH: screenH,
		top:     rl.Color{R: 18, G: 22, B: 32, A: 255},
		bottom:  rl.Color{R: 6, G: 8, B: 12, A: 255},
	}
}

// Resize updates the fill area after a window resize.
func (b *BackgroundRenderer) Resize(screenW, screenH int32) {
	b.screenW = screenW
	b.screenH = screenH
}

// Draw renders the background.
func (b *BackgroundRenderer) Draw() {
	rl.DrawRectangleGradientV(0, 0, b.screenW, b.screenH, b.top, b.bottom)
}
