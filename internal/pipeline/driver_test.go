package pipeline

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ayusman/drishti/internal/vision"
	"gocv.io/x/gocv"
)

// scriptedSource plays back a fixed frame sequence, then fails like a
// disconnected camera.
type scriptedSource struct {
	frames []gocv.Mat
	reads  int
}

var errOutOfFrames = errors.New("camera disconnected")

func (s *scriptedSource) ReadFrame() (*gocv.Mat, error) {
	if s.reads >= len(s.frames) {
		return nil, errOutOfFrames
	}
	frame := s.frames[s.reads].Clone()
	s.reads++
	return &frame, nil
}

// renderedFrame captures one Show call. The pixel data is copied out because
// the Mat is only valid during the call.
type renderedFrame struct {
	hud    HUD
	pixels []byte
	rows   int
	cols   int
}

type recordingRenderer struct {
	frames []renderedFrame
}

func (r *recordingRenderer) Show(frame *gocv.Mat, hud HUD) {
	pixels := frame.ToBytes()
	r.frames = append(r.frames, renderedFrame{
		hud:    hud,
		pixels: append([]byte(nil), pixels...),
		rows:   frame.Rows(),
		cols:   frame.Cols(),
	})
}

// scriptedInput returns one key per poll, then KeyNone.
type scriptedInput struct {
	keys  []Key
	polls int
}

func (s *scriptedInput) PollKey() Key {
	if s.polls >= len(s.keys) {
		return KeyNone
	}
	key := s.keys[s.polls]
	s.polls++
	return key
}

type recordingObserver struct {
	infos []TickInfo
}

func (o *recordingObserver) OnTick(frame *gocv.Mat, info TickInfo) {
	o.infos = append(o.infos, info)
}

// gradientFrame builds a BGR frame with distinctive pixel values.
func gradientFrame(rows, cols int) gocv.Mat {
	frame := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			frame.SetUCharAt(r, c*3, uint8((r+c)%256))
		}
	}
	return frame
}

func newTestDriver(source FrameSource, renderer Renderer, input InputSource, mode Mode, interval int, observer TickObserver) (*Driver, *Monitor, *SkipConfig, *vision.MotionDetector) {
	monitor := NewMonitor()
	skip := NewSkipConfig(interval)
	motion := vision.NewMotionDetector()

	d := NewDriver(DriverConfig{
		Source:   source,
		Renderer: renderer,
		Input:    input,
		Modes:    NewModeController(mode),
		Skip:     skip,
		Monitor:  monitor,
		Motion:   motion,
		Observer: observer,
	})
	return d, monitor, skip, motion
}

func TestDriver_QuitKeyStopsLoop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gradientFrame(32, 32)
	defer frame.Close()

	source := &scriptedSource{frames: []gocv.Mat{frame, frame, frame, frame}}
	renderer := &recordingRenderer{}
	input := &scriptedInput{keys: []Key{KeyNone, KeyQuit}}

	d, _, _, motion := newTestDriver(source, renderer, input, ModeNormal, 1, nil)
	defer motion.Close()

	if got := d.State(); got != StateIdle {
		t.Fatalf("initial state = %v, want %v", got, StateIdle)
	}

	if err := d.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := d.State(); got != StateStopped {
		t.Errorf("state after quit = %v, want %v", got, StateStopped)
	}
	if len(renderer.frames) != 2 {
		t.Errorf("rendered %d frames, want 2", len(renderer.frames))
	}

	// Stopped is terminal.
	if err := d.Run(); !errors.Is(err, ErrDriverStopped) {
		t.Errorf("second Run() error = %v, want %v", err, ErrDriverStopped)
	}
}

func TestDriver_FatalAcquisitionError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	source := &scriptedSource{}
	renderer := &recordingRenderer{}
	input := &scriptedInput{}

	d, _, _, motion := newTestDriver(source, renderer, input, ModeNormal, 1, nil)
	defer motion.Close()

	err := d.Run()
	if !errors.Is(err, errOutOfFrames) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, errOutOfFrames)
	}

	if got := d.State(); got != StateStopped {
		t.Errorf("state after failure = %v, want %v", got, StateStopped)
	}
	if len(renderer.frames) != 0 {
		t.Errorf("rendered %d frames, want 0", len(renderer.frames))
	}
}

func TestDriver_NormalModeIsIdentity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gradientFrame(24, 40)
	defer frame.Close()
	want := frame.ToBytes()

	source := &scriptedSource{frames: []gocv.Mat{frame}}
	renderer := &recordingRenderer{}
	input := &scriptedInput{keys: []Key{KeyQuit}}

	d, _, _, motion := newTestDriver(source, renderer, input, ModeNormal, 1, nil)
	defer motion.Close()

	if err := d.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(renderer.frames) != 1 {
		t.Fatalf("rendered %d frames, want 1", len(renderer.frames))
	}
	if !bytes.Equal(renderer.frames[0].pixels, want) {
		t.Error("normal mode must reproduce the input frame pixel-for-pixel")
	}
}

func TestDriver_PassThroughTicksAreStillInstrumented(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gradientFrame(16, 16)
	defer frame.Close()

	frames := make([]gocv.Mat, 6)
	for i := range frames {
		frames[i] = frame
	}

	source := &scriptedSource{frames: frames}
	renderer := &recordingRenderer{}
	input := &scriptedInput{keys: []Key{KeyNone, KeyNone, KeyNone, KeyNone, KeyNone, KeyQuit}}
	observer := &recordingObserver{}

	d, monitor, _, motion := newTestDriver(source, renderer, input, ModeEdge, 3, observer)
	defer motion.Close()

	if err := d.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Every tick is rendered and timed; only ticks 0 and 3 are transformed.
	ticks, processed := d.Counters()
	if ticks != 6 {
		t.Errorf("ticks = %d, want 6", ticks)
	}
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
	if sum := monitor.Summary(); sum.Ticks != 6 {
		t.Errorf("instrumented ticks = %d, want 6", sum.Ticks)
	}
	if len(renderer.frames) != 6 {
		t.Fatalf("rendered %d frames, want 6", len(renderer.frames))
	}

	wantProcessed := []bool{true, false, false, true, false, false}
	for i, info := range observer.infos {
		if info.Processed != wantProcessed[i] {
			t.Errorf("tick %d processed = %v, want %v", i, info.Processed, wantProcessed[i])
		}
	}

	// Gated-out frames are forwarded unmodified.
	want := frame.ToBytes()
	if !bytes.Equal(renderer.frames[1].pixels, want) {
		t.Error("gated-out frame should be passed through unmodified")
	}
}

func TestDriver_SkipKeysAdjustCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gradientFrame(16, 16)
	defer frame.Close()

	source := &scriptedSource{frames: []gocv.Mat{frame, frame, frame}}
	renderer := &recordingRenderer{}
	input := &scriptedInput{keys: []Key{KeySkipMore, KeySkipMoreAlias, KeyQuit}}

	d, _, skip, motion := newTestDriver(source, renderer, input, ModeNormal, 2, nil)
	defer motion.Close()

	if err := d.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := skip.Interval(); got != 4 {
		t.Errorf("interval after two increments = %d, want 4", got)
	}
}

func TestDriver_ModeAndTransformPerTick(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gradientFrame(32, 48)
	defer frame.Close()

	// Edge, motion and ROI output all keep the source frame's geometry.
	for _, mode := range []Mode{ModeEdge, ModeMotion, ModeROI} {
		source := &scriptedSource{frames: []gocv.Mat{frame}}
		renderer := &recordingRenderer{}
		input := &scriptedInput{keys: []Key{KeyQuit}}

		d, _, _, motion := newTestDriver(source, renderer, input, mode, 1, nil)

		if err := d.Run(); err != nil {
			t.Fatalf("mode %v Run() error: %v", mode, err)
		}
		motion.Close()

		if len(renderer.frames) != 1 {
			t.Fatalf("mode %v rendered %d frames, want 1", mode, len(renderer.frames))
		}
		got := renderer.frames[0]
		if got.rows != 32 || got.cols != 48 {
			t.Errorf("mode %v display = %dx%d, want 32x48", mode, got.cols, got.rows)
		}
		if got.hud.Mode != mode {
			t.Errorf("HUD mode = %v, want %v", got.hud.Mode, mode)
		}
	}
}

func TestDriver_LeavingMotionModeResetsDetector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	motion := vision.NewMotionDetector()
	defer motion.Close()

	d := NewDriver(DriverConfig{
		Modes:  NewModeController(ModeMotion),
		Skip:   NewSkipConfig(1),
		Motion: motion,
	})

	// Seed the detector's previous-frame slot with a bright frame.
	bright := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 16, 16, gocv.MatTypeCV8UC3)
	defer bright.Close()
	mask, _, err := motion.Detect(&bright)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	mask.Close()

	// Switching away from motion mode must discard the slot.
	d.handleKey(KeyNormal)

	dark := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC3)
	defer dark.Close()
	mask, percent, err := motion.Detect(&dark)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	defer mask.Close()

	if percent != 0 {
		t.Errorf("motion after reset = %f%%, want 0 (cold start)", percent)
	}
}
