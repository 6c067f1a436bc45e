// Package pipeline implements the adaptive frame-processing loop: mode
// dispatch, frame-skip scheduling, performance instrumentation, and the
// driver state machine tying them together.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/ayusman/drishti/internal/vision"
	"gocv.io/x/gocv"
)

// State is the driver's lifecycle state. Stopped is terminal.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// ErrDriverStopped is returned when Run is called on a driver that already
// ran. A driver runs at most once.
var ErrDriverStopped = errors.New("driver already stopped")

// roiOutlineColor is the rectangle drawn around the processed region in ROI
// mode (green, matching the HUD perf readout).
var roiOutlineColor = color.RGBA{0, 255, 0, 0}

// FrameSource supplies raw frames on demand. Any error is treated as fatal
// end-of-stream.
type FrameSource interface {
	ReadFrame() (*gocv.Mat, error)
}

// Renderer displays a processed frame with its HUD overlay. The frame is
// valid only for the duration of the call.
type Renderer interface {
	Show(frame *gocv.Mat, hud HUD)
}

// InputSource polls for a key event without blocking. KeyNone means no key
// was pressed.
type InputSource interface {
	PollKey() Key
}

// HUD carries the on-screen readout for one rendered frame.
type HUD struct {
	Mode            Mode
	FPS             float64
	FrameMillis     float64
	TransformMillis float64
	SkipInterval    int
	// MotionPercent is the share of changed pixels; meaningful only when
	// HasMotion is set.
	MotionPercent float64
	HasMotion     bool
}

// TickInfo describes one completed tick for observers.
type TickInfo struct {
	Tick            uint64
	Processed       bool
	Mode            Mode
	Stats           Stats
	TransformMillis float64
	MotionPercent   float64
	SkipInterval    int
}

// TickObserver is notified synchronously after each tick is rendered. The
// frame is valid only for the duration of the call.
type TickObserver interface {
	OnTick(frame *gocv.Mat, info TickInfo)
}

// DriverConfig wires a Driver's collaborators.
type DriverConfig struct {
	Source   FrameSource
	Renderer Renderer
	Input    InputSource
	Modes    *ModeController
	Skip     *SkipConfig
	Monitor  *Monitor
	Motion   *vision.MotionDetector
	// Observer is optional.
	Observer TickObserver
}

// Driver runs the processing loop: acquire a frame, gate it through the
// frame-skip scheduler, dispatch on the active mode, instrument the tick,
// render, and poll for input. The loop is single-threaded; every tick
// completes fully before the next begins.
type Driver struct {
	source   FrameSource
	renderer Renderer
	input    InputSource
	modes    *ModeController
	skip     *SkipConfig
	monitor  *Monitor
	motion   *vision.MotionDetector
	observer TickObserver

	mu        sync.Mutex
	state     State
	tick      uint64
	processed uint64
}

// NewDriver creates a Driver in the Idle state.
func NewDriver(cfg DriverConfig) *Driver {
	return &Driver{
		source:   cfg.Source,
		renderer: cfg.Renderer,
		input:    cfg.Input,
		modes:    cfg.Modes,
		skip:     cfg.Skip,
		monitor:  cfg.Monitor,
		motion:   cfg.Motion,
		observer: cfg.Observer,
	}
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Counters returns the total tick count and the number of ticks whose frames
// were transformed rather than passed through.
func (d *Driver) Counters() (ticks, processed uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tick, d.processed
}

// Run executes the loop until a quit key is received (nil return) or frame
// acquisition fails (the acquisition error is returned). Either way the
// driver ends up Stopped and cannot be run again.
func (d *Driver) Run() error {
	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		return ErrDriverStopped
	}
	d.state = StateRunning
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.state = StateStopped
		d.mu.Unlock()
	}()

	for {
		done, err := d.runTick()
		if err != nil {
			return fmt.Errorf("frame acquisition failed: %w", err)
		}
		if done {
			return nil
		}
	}
}

// runTick executes one full loop iteration. It returns done=true when the
// quit key was received and a non-nil error only for fatal acquisition
// failures; transient transform errors degrade the tick to pass-through.
func (d *Driver) runTick() (done bool, err error) {
	start := time.Now()

	frame, err := d.source.ReadFrame()
	if err != nil {
		return false, err
	}
	defer frame.Close()

	d.mu.Lock()
	tick := d.tick
	d.tick++
	d.mu.Unlock()

	mode := d.modes.Mode()
	interval := d.skip.Interval()
	process := ShouldProcess(tick, interval)

	hud := HUD{Mode: mode, SkipInterval: interval}

	var display gocv.Mat
	if process {
		transformStart := time.Now()
		display = d.dispatch(mode, frame, &hud)
		hud.TransformMillis = float64(time.Since(transformStart)) / float64(time.Millisecond)

		d.mu.Lock()
		d.processed++
		d.mu.Unlock()
	} else {
		// Gated out: forward unmodified. The savings come from skipping
		// the transform, not from skipping display.
		display = frame.Clone()
	}
	defer display.Close()

	stats := d.monitor.RecordTick(start, time.Now())
	hud.FPS = stats.FPS
	hud.FrameMillis = stats.LastFrameMillis

	d.renderer.Show(&display, hud)

	if d.observer != nil {
		d.observer.OnTick(&display, TickInfo{
			Tick:            tick,
			Processed:       process,
			Mode:            mode,
			Stats:           stats,
			TransformMillis: hud.TransformMillis,
			MotionPercent:   hud.MotionPercent,
			SkipInterval:    interval,
		})
	}

	return d.handleKey(d.input.PollKey()), nil
}

// dispatch applies the active mode's transform and returns the frame to
// display. Transient transform errors fall back to a pass-through clone.
func (d *Driver) dispatch(mode Mode, frame *gocv.Mat, hud *HUD) gocv.Mat {
	switch mode {
	case ModeEdge:
		edges, err := vision.DetectEdges(frame)
		if err != nil {
			log.Printf("Edge detection skipped: %v", err)
			return frame.Clone()
		}
		defer edges.Close()

		display := gocv.NewMat()
		gocv.CvtColor(edges, &display, gocv.ColorGrayToBGR)
		return display

	case ModeMotion:
		mask, percent, err := d.motion.Detect(frame)
		if err != nil {
			log.Printf("Motion detection skipped: %v", err)
			return frame.Clone()
		}
		defer mask.Close()

		hud.MotionPercent = percent
		hud.HasMotion = true

		display := gocv.NewMat()
		gocv.CvtColor(mask, &display, gocv.ColorGrayToBGR)
		return display

	case ModeROI:
		return d.dispatchROI(frame)

	default:
		return frame.Clone()
	}
}

// dispatchROI runs edge detection inside the centered window and composites
// the result back onto a copy of the source frame at its original position,
// outlined for visibility.
func (d *Driver) dispatchROI(frame *gocv.Mat) gocv.Mat {
	region, offset, err := vision.ExtractROI(frame)
	if err != nil {
		log.Printf("ROI extraction skipped: %v", err)
		return frame.Clone()
	}

	edges, err := vision.DetectEdges(&region)
	region.Close()
	if err != nil {
		log.Printf("ROI edge detection skipped: %v", err)
		return frame.Clone()
	}
	defer edges.Close()

	processed := gocv.NewMat()
	defer processed.Close()
	gocv.CvtColor(edges, &processed, gocv.ColorGrayToBGR)

	display := frame.Clone()
	rect := image.Rect(offset.X, offset.Y, offset.X+processed.Cols(), offset.Y+processed.Rows())

	window := display.Region(rect)
	processed.CopyTo(&window)
	window.Close()

	gocv.Rectangle(&display, rect, roiOutlineColor, 2)
	return display
}

// handleKey applies one polled key event. It reports whether the quit key
// was received. Unrecognized keys change nothing.
func (d *Driver) handleKey(key Key) bool {
	switch key {
	case KeyQuit:
		return true

	case KeyEdge, KeyMotion, KeyROI, KeyNormal:
		prev := d.modes.Mode()
		mode, changed := d.modes.Apply(key)
		if changed {
			// Leaving motion mode invalidates the retained frame; the
			// next motion pass must start cold.
			if prev == ModeMotion {
				d.motion.Reset()
			}
			log.Printf("Mode: %s", mode.Label())
		}

	case KeySkipMore, KeySkipMoreAlias:
		log.Printf("Skip: 1/%d", d.skip.Increment())

	case KeySkipLess, KeySkipLessAlias:
		log.Printf("Skip: 1/%d", d.skip.Decrement())
	}

	return false
}
