package pipeline

import "sync"

// DefaultSkipInterval is the initial frame-skip cadence (process 1 of every 2).
const DefaultSkipInterval = 2

// ShouldProcess reports whether the frame at the given tick index is
// transformed or passed through. Tick indices start at 0, so the first frame
// of a session is always processed. Intervals of 1 or less process every
// frame.
func ShouldProcess(tick uint64, interval int) bool {
	if interval <= 1 {
		return true
	}
	return tick%uint64(interval) == 0
}

// SkipConfig holds the frame-skip interval. The interval never drops below 1;
// there is no upper bound. Changes take effect on the next tick.
type SkipConfig struct {
	mu       sync.Mutex
	interval int
}

// NewSkipConfig creates a SkipConfig with the given interval, floored at 1.
func NewSkipConfig(interval int) *SkipConfig {
	if interval < 1 {
		interval = 1
	}
	return &SkipConfig{interval: interval}
}

// Interval returns the current skip interval.
func (s *SkipConfig) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Set replaces the interval, flooring at 1.
func (s *SkipConfig) Set(interval int) {
	if interval < 1 {
		interval = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = interval
}

// Increment raises the interval by one and returns the new value.
func (s *SkipConfig) Increment() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval++
	return s.interval
}

// Decrement lowers the interval by one, flooring at 1, and returns the new
// value.
func (s *SkipConfig) Decrement() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interval > 1 {
		s.interval--
	}
	return s.interval
}
