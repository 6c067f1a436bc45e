// Package display renders pipeline output in a GoCV window and polls it for
// key events. The window doubles as the pipeline's renderer and input
// source.
package display

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/drishti/internal/pipeline"
	"gocv.io/x/gocv"
)

// HUD overlay colors (RGBA).
var (
	hudModeColor = color.RGBA{255, 255, 0, 0}
	hudPerfColor = color.RGBA{0, 255, 0, 0}
	hudSkipColor = color.RGBA{0, 255, 255, 0}
)

// Window is a GoCV window implementing pipeline.Renderer and
// pipeline.InputSource. It must be used from the main goroutine.
type Window struct {
	win *gocv.Window
}

// NewWindow creates a named window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show draws the HUD readout onto the frame and displays it.
func (w *Window) Show(frame *gocv.Mat, hud pipeline.HUD) {
	h := frame.Rows()

	gocv.PutText(frame, fmt.Sprintf("Mode: %s", hud.Mode.Label()),
		image.Pt(10, 30), gocv.FontHersheySimplex, 0.7, hudModeColor, 2)

	if hud.HasMotion {
		gocv.PutText(frame, fmt.Sprintf("Motion: %.1f%%", hud.MotionPercent),
			image.Pt(10, 60), gocv.FontHersheySimplex, 0.7, hudPerfColor, 2)
	}

	gocv.PutText(frame, fmt.Sprintf("FPS: %.1f | %.1fms", hud.FPS, hud.TransformMillis),
		image.Pt(10, h-60), gocv.FontHersheySimplex, 0.6, hudPerfColor, 2)
	gocv.PutText(frame, fmt.Sprintf("Skip: 1/%d", hud.SkipInterval),
		image.Pt(10, h-30), gocv.FontHersheySimplex, 0.6, hudSkipColor, 2)

	w.win.IMShow(*frame)
}

// PollKey services the window's event loop for one millisecond and returns
// the pressed key, or KeyNone.
func (w *Window) PollKey() pipeline.Key {
	k := w.win.WaitKey(1)
	if k < 0 {
		return pipeline.KeyNone
	}
	return pipeline.Key(k & 0xFF)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
