package pipeline

import (
	"fmt"
	"sync"
)

// Mode selects which transform the driver applies to processed frames.
// Exactly one mode is active at any time.
type Mode int

const (
	// ModeNormal passes frames through unmodified.
	ModeNormal Mode = iota
	// ModeEdge runs edge detection on the full frame.
	ModeEdge
	// ModeMotion runs frame differencing against the previous frame.
	ModeMotion
	// ModeROI runs edge detection inside the centered region of interest only.
	ModeROI
)

// String returns the stable short name used for persistence and logging.
func (m Mode) String() string {
	switch m {
	case ModeEdge:
		return "edge"
	case ModeMotion:
		return "motion"
	case ModeROI:
		return "roi"
	default:
		return "normal"
	}
}

// Label returns the human-readable name shown on the HUD.
func (m Mode) Label() string {
	switch m {
	case ModeEdge:
		return "Edge Detection"
	case ModeMotion:
		return "Motion Detection"
	case ModeROI:
		return "ROI Processing"
	default:
		return "Normal"
	}
}

// ParseMode converts a persisted short name back to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "normal":
		return ModeNormal, nil
	case "edge":
		return ModeEdge, nil
	case "motion":
		return ModeMotion, nil
	case "roi":
		return ModeROI, nil
	}
	return ModeNormal, fmt.Errorf("unknown mode %q", s)
}

// ModeController holds the active Mode and maps key events onto it.
// Unrecognized keys leave the mode unchanged.
type ModeController struct {
	mu   sync.Mutex
	mode Mode
}

// NewModeController creates a ModeController starting in the given mode.
func NewModeController(initial Mode) *ModeController {
	return &ModeController{mode: initial}
}

// Mode returns the currently active mode.
func (c *ModeController) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Apply maps a key event onto the held mode. It returns the mode in effect
// after the event and whether the event changed it. Keys outside the
// mode-selection set are no-ops.
func (c *ModeController) Apply(key Key) (Mode, bool) {
	var next Mode
	switch key {
	case KeyEdge:
		next = ModeEdge
	case KeyMotion:
		next = ModeMotion
	case KeyROI:
		next = ModeROI
	case KeyNormal:
		next = ModeNormal
	default:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.mode, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if next == c.mode {
		return c.mode, false
	}
	c.mode = next
	return c.mode, true
}
