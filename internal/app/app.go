// Package app wires the capture, pipeline, persistence and observer pieces
// of the inspection loop together.
package app

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/pipeline"
	"github.com/ayusman/drishti/internal/store"
	"github.com/ayusman/drishti/internal/vision"
	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// SampleInterval is the tick cadence at which performance samples are written
// to the store.
const SampleInterval = 30

// Config holds the application's collaborators.
type Config struct {
	// Store is optional; without it no settings or history are persisted.
	Store    *store.Store
	Camera   capture.Camera
	CameraID int
	Renderer pipeline.Renderer
	Input    pipeline.InputSource
}

// Snapshot is the observable state of the running pipeline, served by the
// observer HTTP endpoints.
type Snapshot struct {
	SessionID     string  `json:"session_id"`
	Mode          string  `json:"mode"`
	FPS           float64 `json:"fps"`
	LastFrameMs   float64 `json:"last_frame_ms"`
	TransformMs   float64 `json:"transform_ms"`
	SkipInterval  int     `json:"skip_interval"`
	Ticks         uint64  `json:"ticks"`
	Processed     uint64  `json:"processed"`
	MotionPercent float64 `json:"motion_percent"`
}

// App owns the pipeline components and runs one inspection session. It
// doubles as the driver's tick observer: after each rendered tick it retains
// a JPEG of the displayed frame for the MJPEG stream and periodically writes
// a performance sample to the store.
type App struct {
	config  Config
	modes   *pipeline.ModeController
	skip    *pipeline.SkipConfig
	monitor *pipeline.Monitor
	motion  *vision.MotionDetector
	driver  *pipeline.Driver

	mu         sync.RWMutex
	sessionID  string
	startedAt  time.Time
	latestJPEG []byte
	lastInfo   pipeline.TickInfo
}

// New creates an App, restoring the persisted mode and skip interval when a
// store is configured.
func New(config Config) *App {
	a := &App{
		config:  config,
		monitor: pipeline.NewMonitor(),
		motion:  vision.NewMotionDetector(),
	}

	mode := pipeline.ModeNormal
	interval := pipeline.DefaultSkipInterval

	if config.Store != nil {
		settings := config.Store.Settings()

		if v, err := settings.Get(store.SettingMode); err == nil {
			if m, err := pipeline.ParseMode(v); err == nil {
				mode = m
			} else {
				log.Printf("Ignoring persisted mode: %v", err)
			}
		}
		if v, err := settings.GetInt(store.SettingSkipInterval); err == nil {
			interval = v
		}
	}

	a.modes = pipeline.NewModeController(mode)
	a.skip = pipeline.NewSkipConfig(interval)

	a.driver = pipeline.NewDriver(pipeline.DriverConfig{
		Source:   config.Camera,
		Renderer: config.Renderer,
		Input:    config.Input,
		Modes:    a.modes,
		Skip:     a.skip,
		Monitor:  a.monitor,
		Motion:   a.motion,
		Observer: a,
	})

	return a
}

// Run executes one inspection session to completion. It returns nil when the
// session ended on the quit key and the acquisition error otherwise. The
// session summary and the final runtime controls are persisted either way.
func (a *App) Run() error {
	// The observer server may already be polling Snapshot.
	a.mu.Lock()
	a.sessionID = uuid.NewString()
	a.startedAt = time.Now()
	sessionID, startedAt := a.sessionID, a.startedAt
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Create(&store.Session{
			ID:        sessionID,
			StartedAt: startedAt,
		}); err != nil {
			log.Printf("Failed to create session record: %v", err)
		}
	}

	log.Printf("Session %s started (mode=%s, skip=1/%d)",
		sessionID, a.modes.Mode(), a.skip.Interval())

	runErr := a.driver.Run()

	a.motion.Close()

	a.finishSession(runErr)
	a.persistSettings()

	return runErr
}

// finishSession writes the session's aggregates and exit reason.
func (a *App) finishSession(runErr error) {
	if a.config.Store == nil {
		return
	}

	summary := a.monitor.Summary()
	ticks, processed := a.driver.Counters()

	reason := "quit"
	if runErr != nil {
		reason = runErr.Error()
	}

	err := a.config.Store.Sessions().Finish(&store.Session{
		ID:          a.sessionID,
		EndedAt:     time.Now(),
		Ticks:       int64(ticks),
		Processed:   int64(processed),
		AvgFPS:      summary.FPS,
		MeanFrameMs: summary.MeanMillis,
		MaxFrameMs:  summary.MaxMillis,
		LastMode:    a.modes.Mode().String(),
		ExitReason:  reason,
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to finish session record: %v", err)
	}
}

// persistSettings saves the runtime controls for the next session.
func (a *App) persistSettings() {
	if a.config.Store == nil {
		return
	}

	settings := a.config.Store.Settings()
	if err := settings.Set(store.SettingMode, a.modes.Mode().String()); err != nil {
		log.Printf("Failed to persist mode: %v", err)
	}
	if err := settings.SetInt(store.SettingSkipInterval, a.skip.Interval()); err != nil {
		log.Printf("Failed to persist skip interval: %v", err)
	}
	if err := settings.SetInt(store.SettingCameraID, a.config.CameraID); err != nil {
		log.Printf("Failed to persist camera id: %v", err)
	}
}

// OnTick implements pipeline.TickObserver. It runs on the loop goroutine.
func (a *App) OnTick(frame *gocv.Mat, info pipeline.TickInfo) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err == nil {
		// The buffer's backing memory is released with it; keep a copy.
		jpeg := make([]byte, buf.Len())
		copy(jpeg, buf.GetBytes())
		buf.Close()

		a.mu.Lock()
		a.latestJPEG = jpeg
		a.lastInfo = info
		a.mu.Unlock()
	} else {
		log.Printf("Failed to encode frame for streaming: %v", err)
		a.mu.Lock()
		a.lastInfo = info
		a.mu.Unlock()
	}

	if a.config.Store != nil && info.Tick%SampleInterval == 0 {
		sample := &store.PerfSample{
			SessionID:    a.sessionID,
			Tick:         int64(info.Tick),
			FPS:          info.Stats.FPS,
			FrameMs:      info.Stats.LastFrameMillis,
			TransformMs:  info.TransformMillis,
			Mode:         info.Mode.String(),
			SkipInterval: info.SkipInterval,
		}
		if err := a.config.Store.Samples().Insert(sample); err != nil {
			log.Printf("Failed to record perf sample: %v", err)
		}
	}
}

// Snapshot returns the current observable pipeline state.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	info := a.lastInfo
	sessionID := a.sessionID
	a.mu.RUnlock()

	stats := a.monitor.Stats()
	ticks, processed := a.driver.Counters()

	return Snapshot{
		SessionID:     sessionID,
		Mode:          a.modes.Mode().String(),
		FPS:           stats.FPS,
		LastFrameMs:   stats.LastFrameMillis,
		TransformMs:   info.TransformMillis,
		SkipInterval:  a.skip.Interval(),
		Ticks:         ticks,
		Processed:     processed,
		MotionPercent: info.MotionPercent,
	}
}

// LatestJPEG returns the most recent rendered frame as JPEG bytes. The
// second return is false before the first frame has been rendered.
func (a *App) LatestJPEG() ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.latestJPEG == nil {
		return nil, false
	}
	return a.latestJPEG, true
}

// Summary returns the session-wide performance aggregates.
func (a *App) Summary() pipeline.Summary {
	return a.monitor.Summary()
}
