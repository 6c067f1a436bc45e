// Package vision provides the frame transforms for the inspection pipeline:
// edge detection, motion differencing, and region-of-interest windowing,
// implemented with GoCV (OpenCV) primitives.
package vision

import (
	"errors"

	"gocv.io/x/gocv"
)

// Canny thresholds, tuned for typical indoor lighting.
const (
	CannyLowThreshold  = 50
	CannyHighThreshold = 150
)

// ErrEmptyFrame is returned when a transform receives a nil or empty frame.
var ErrEmptyFrame = errors.New("frame is empty")

// DetectEdges produces a binary edge map of the frame using Canny edge
// detection. Multi-channel input is converted to grayscale first. The caller
// owns the returned Mat and must close it.
func DetectEdges(frame *gocv.Mat) (gocv.Mat, error) {
	if frame == nil || frame.Empty() {
		return gocv.Mat{}, ErrEmptyFrame
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, CannyLowThreshold, CannyHighThreshold)

	return edges, nil
}
