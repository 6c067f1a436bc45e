package pipeline

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// StatsWindowSize is the number of recent tick durations retained for the
// smoothed FPS estimate.
const StatsWindowSize = 30

// Stats is the rolling view of pipeline performance.
type Stats struct {
	// FPS is 1000 divided by the mean tick duration in milliseconds over
	// the retained window. Zero until the first tick is recorded.
	FPS float64
	// LastFrameMillis is the duration of the most recent tick.
	LastFrameMillis float64
}

// Summary aggregates a whole session's tick timings. Mean and max cover every
// recorded tick; the standard deviation covers the retained window only.
type Summary struct {
	Ticks        uint64
	FPS          float64
	MeanMillis   float64
	MaxMillis    float64
	StdDevMillis float64
}

// Monitor records per-tick wall-clock cost and maintains a bounded FIFO
// window of recent durations. Whole-session aggregates use constant-size
// accumulators, so memory stays fixed regardless of session length.
type Monitor struct {
	mu        sync.Mutex
	window    []float64
	ticks     uint64
	sumMillis float64
	maxMillis float64
}

// NewMonitor creates an empty Monitor.
func NewMonitor() *Monitor {
	return &Monitor{window: make([]float64, 0, StatsWindowSize)}
}

// RecordTick pushes the duration between start and end into the rolling
// window, evicting the oldest entry once the window is full, and returns the
// updated Stats.
func (m *Monitor) RecordTick(start, end time.Time) Stats {
	millis := float64(end.Sub(start)) / float64(time.Millisecond)
	if millis < 0 {
		millis = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.window) >= StatsWindowSize {
		// Shift window left by 1, removing the oldest duration
		copy(m.window, m.window[1:])
		m.window = m.window[:StatsWindowSize-1]
	}
	m.window = append(m.window, millis)

	m.ticks++
	m.sumMillis += millis
	if millis > m.maxMillis {
		m.maxMillis = millis
	}

	return m.statsLocked()
}

// Stats returns the current rolling view without recording anything.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsLocked()
}

func (m *Monitor) statsLocked() Stats {
	if len(m.window) == 0 {
		return Stats{}
	}

	s := Stats{LastFrameMillis: m.window[len(m.window)-1]}
	mean := stat.Mean(m.window, nil)
	if mean > 0 {
		s.FPS = 1000.0 / mean
	}
	return s
}

// Summary returns whole-session aggregates.
func (m *Monitor) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := Summary{Ticks: m.ticks, MaxMillis: m.maxMillis}
	if m.ticks == 0 {
		return sum
	}

	sum.MeanMillis = m.sumMillis / float64(m.ticks)
	if sum.MeanMillis > 0 {
		sum.FPS = 1000.0 / sum.MeanMillis
	}
	if len(m.window) > 1 {
		sum.StdDevMillis = stat.StdDev(m.window, nil)
	}
	return sum
}
