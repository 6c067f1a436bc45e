// Package capture provides camera frame acquisition using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture resolution, kept low for performance on small hardware.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Acquisition errors. Any frame-read error is fatal to the pipeline.
var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoCamera is returned when probing finds no usable device.
	ErrNoCamera = errors.New("no usable camera device found")
)

// Camera defines the interface for frame sources backed by a capture device.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// cameraImpl manages video capture from a device using GoCV.
type cameraImpl struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
}

// NewCamera creates a Camera for the given device ID. The device is not
// opened until Open is called.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{deviceID: deviceID}
}

// Open opens the device and sets the capture resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the device and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the device. The caller is responsible
// for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("read from camera %d failed", c.deviceID)
	}

	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %d returned an empty frame", c.deviceID)
	}

	return &mat, nil
}

// IsOpen returns true if the device is currently open.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Probe tries each device ID in order, accepting the first one that opens
// and delivers a test frame. With no IDs given it tries 0, 1 and 2. The
// returned camera is left open.
func Probe(ids ...int) (Camera, int, error) {
	if len(ids) == 0 {
		ids = []int{0, 1, 2}
	}

	for _, id := range ids {
		log.Printf("Trying camera %d...", id)

		cam := NewCamera(id)
		if err := cam.Open(); err != nil {
			log.Printf("Camera %d: %v", id, err)
			continue
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			log.Printf("Camera %d: %v", id, err)
			cam.Close()
			continue
		}
		frame.Close()

		log.Printf("Opened camera %d", id)
		return cam, id, nil
	}

	return nil, 0, ErrNoCamera
}
