package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// MinFrameSize is the smallest frame dimension for which a region of
// interest can be extracted.
const MinFrameSize = 2

// ErrFrameTooSmall is returned when a frame is too small to carry a region
// of interest.
var ErrFrameTooSmall = errors.New("frame too small for region of interest")

// ExtractROI returns the centered region of interest covering 50% of the
// frame's width and height, plus the region's top-left offset within the
// frame so callers can composite processed output back in place.
//
// The returned Mat is a view into the source frame, valid only as long as
// the frame is; callers close it within the same tick. The window is
// recomputed from the live frame's dimensions on every call.
func ExtractROI(frame *gocv.Mat) (gocv.Mat, image.Point, error) {
	if frame == nil || frame.Empty() {
		return gocv.Mat{}, image.Point{}, ErrEmptyFrame
	}

	w := frame.Cols()
	h := frame.Rows()
	if w < MinFrameSize || h < MinFrameSize {
		return gocv.Mat{}, image.Point{}, ErrFrameTooSmall
	}

	rect := image.Rect(w/4, h/4, 3*w/4, 3*h/4)
	region := frame.Region(rect)

	return region, rect.Min, nil
}
