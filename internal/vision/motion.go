package vision

import (
	"sync"

	"gocv.io/x/gocv"
)

// DiffThreshold is the binary threshold applied to the per-pixel absolute
// difference between consecutive frames.
const DiffThreshold = 30

// MotionDetector computes a binarized difference between the current frame
// and the previously processed frame. It is the only transform with
// cross-tick state: exactly one grayscale frame is retained, and all
// mutation of that slot happens inside this type.
type MotionDetector struct {
	mu          sync.Mutex
	prevGray    gocv.Mat
	initialized bool
}

// NewMotionDetector creates a MotionDetector with an empty previous-frame
// slot.
func NewMotionDetector() *MotionDetector {
	return &MotionDetector{prevGray: gocv.NewMat()}
}

// Detect compares the frame against the retained previous frame and returns
// a binary map where set pixels changed by more than DiffThreshold, together
// with the percentage of pixels that changed.
//
// The first frame after construction, a Reset, or a resolution change seeds
// the slot and reports no motion (an all-zero map). After every call the
// current grayscale frame replaces the slot. The caller owns the returned
// Mat and must close it.
func (m *MotionDetector) Detect(frame *gocv.Mat) (gocv.Mat, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return gocv.Mat{}, 0, ErrEmptyFrame
	}

	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	// A resolution change invalidates the retained frame; re-seed.
	if m.initialized && (m.prevGray.Rows() != gray.Rows() || m.prevGray.Cols() != gray.Cols()) {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
		m.initialized = false
	}

	if !m.initialized {
		m.prevGray.Close()
		m.prevGray = gray
		m.initialized = true
		return gocv.NewMatWithSize(gray.Rows(), gray.Cols(), gocv.MatTypeCV8UC1), 0, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prevGray, &diff)

	mask := gocv.NewMat()
	gocv.Threshold(diff, &mask, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(mask)
	total := mask.Rows() * mask.Cols()
	percent := float64(changed) / float64(total) * 100.0

	m.prevGray.Close()
	m.prevGray = gray

	return mask, percent, nil
}

// Reset clears the previous-frame slot so the next Detect starts cold.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// Close releases the retained frame.
func (m *MotionDetector) Close() {
	m.Reset()
}
