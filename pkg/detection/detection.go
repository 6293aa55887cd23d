// Package detection provides face detection for the tracking loop.
package detection

// Box is a detected face in pixel coordinates.
type Box struct {
	X, Y       int // top-left corner
	W, H       int // width and height
	Confidence float64
}

// Center returns the box center, rounding down the way the direction
// math expects.
func (b Box) Center() (x, y int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Area returns the box area in pixels.
func (b Box) Area() int {
	return b.W * b.H
}

// Detector is the interface for face detection backends.
type Detector interface {
	// Detect finds faces in the JPEG image, in the backend's own order.
	// Callers that track a single target take the first box.
	Detect(jpeg []byte) ([]Box, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration.
type Config struct {
	CascadePath  string  // path to the Haar cascade XML
	ScaleFactor  float64 // pyramid scale step (default 1.1)
	MinNeighbors int     // neighbor threshold (default 5)
}

// DefaultConfig returns the stock frontal-face cascade settings.
func DefaultConfig() Config {
	return Config{
		CascadePath:  "haarcascade_frontalface_default.xml",
		ScaleFactor:  1.1,
		MinNeighbors: 5,
	}
}

// First returns the first box in detector order, nil when none.
func First(boxes []Box) *Box {
	if len(boxes) == 0 {
		return nil
	}
	return &boxes[0]
}
