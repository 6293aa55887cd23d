package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Webcam captures frames from a local V4L2 device via OpenCV.
type Webcam struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	device int
	width  int
	height int
	closed bool
}

// OpenWebcam opens the capture device and applies the requested
// resolution. The driver may pick the nearest mode it supports, so the
// actual dimensions are read back and carried on every Frame.
func OpenWebcam(device, width, height int) (*Webcam, error) {
	cap, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("camera %d is not available", device)
	}

	if width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	w := &Webcam{
		cap:    cap,
		device: device,
		width:  int(cap.Get(gocv.VideoCaptureFrameWidth)),
		height: int(cap.Get(gocv.VideoCaptureFrameHeight)),
	}
	return w, nil
}

// Resolution returns the dimensions the device actually delivers.
func (w *Webcam) Resolution() (int, int) {
	return w.width, w.height
}

// Capture grabs one frame and JPEG-encodes it. An empty read means the
// camera was unplugged or claimed by another process; that is an error,
// not a gap.
func (w *Webcam) Capture(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, fmt.Errorf("camera %d is closed", w.device)
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := w.cap.Read(&img); !ok || img.Empty() {
		return nil, fmt.Errorf("camera %d returned no frame", w.device)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())

	return &Frame{
		JPEG:   jpeg,
		Width:  img.Cols(),
		Height: img.Rows(),
		Taken:  time.Now(),
	}, nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.cap.Close()
}
