package pipeline

import (
	"math"
	"testing"
	"time"
)

func TestMonitor_FPSConvergesToReciprocalOfDuration(t *testing.T) {
	m := NewMonitor()

	start := time.Now()
	duration := 20 * time.Millisecond

	var stats Stats
	for i := 0; i < 2*StatsWindowSize; i++ {
		stats = m.RecordTick(start, start.Add(duration))
		start = start.Add(duration)
	}

	if math.Abs(stats.FPS-50.0) > 0.01 {
		t.Errorf("FPS = %f, want 50.0", stats.FPS)
	}
	if math.Abs(stats.LastFrameMillis-20.0) > 0.01 {
		t.Errorf("LastFrameMillis = %f, want 20.0", stats.LastFrameMillis)
	}
}

func TestMonitor_EmptyStats(t *testing.T) {
	m := NewMonitor()

	stats := m.Stats()
	if stats.FPS != 0 || stats.LastFrameMillis != 0 {
		t.Errorf("empty monitor stats = %+v, want zeros", stats)
	}
}

func TestMonitor_WindowIsBounded(t *testing.T) {
	m := NewMonitor()

	start := time.Now()
	// Fill the window with slow ticks, then feed fast ones. Once the slow
	// entries are evicted the smoothed FPS must reflect only the fast ones.
	for i := 0; i < StatsWindowSize; i++ {
		m.RecordTick(start, start.Add(100*time.Millisecond))
	}
	var stats Stats
	for i := 0; i < StatsWindowSize; i++ {
		stats = m.RecordTick(start, start.Add(10*time.Millisecond))
	}

	if math.Abs(stats.FPS-100.0) > 0.01 {
		t.Errorf("FPS after eviction = %f, want 100.0", stats.FPS)
	}

	if len(m.window) != StatsWindowSize {
		t.Errorf("window length = %d, want %d", len(m.window), StatsWindowSize)
	}
}

func TestMonitor_NegativeDurationClamped(t *testing.T) {
	m := NewMonitor()

	end := time.Now()
	stats := m.RecordTick(end.Add(5*time.Millisecond), end)
	if stats.LastFrameMillis != 0 {
		t.Errorf("LastFrameMillis = %f, want 0 for a negative duration", stats.LastFrameMillis)
	}
}

func TestMonitor_Summary(t *testing.T) {
	m := NewMonitor()

	if sum := m.Summary(); sum.Ticks != 0 || sum.FPS != 0 {
		t.Errorf("empty summary = %+v, want zeros", sum)
	}

	start := time.Now()
	durations := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
	}
	for _, d := range durations {
		m.RecordTick(start, start.Add(d))
	}

	sum := m.Summary()
	if sum.Ticks != 3 {
		t.Errorf("Ticks = %d, want 3", sum.Ticks)
	}
	if math.Abs(sum.MeanMillis-20.0) > 0.01 {
		t.Errorf("MeanMillis = %f, want 20.0", sum.MeanMillis)
	}
	if math.Abs(sum.MaxMillis-30.0) > 0.01 {
		t.Errorf("MaxMillis = %f, want 30.0", sum.MaxMillis)
	}
	if math.Abs(sum.FPS-50.0) > 0.01 {
		t.Errorf("FPS = %f, want 50.0", sum.FPS)
	}
	if sum.StdDevMillis <= 0 {
		t.Errorf("StdDevMillis = %f, want > 0", sum.StdDevMillis)
	}
}
