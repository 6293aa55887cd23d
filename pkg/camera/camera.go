// Package camera provides the frame source for the tracking loop.
package camera

import (
	"context"
	"time"
)

// Frame is one captured image, already JPEG-encoded, with the pixel
// dimensions the direction math needs.
type Frame struct {
	JPEG   []byte
	Width  int
	Height int
	Taken  time.Time
}

// Source produces frames. A Capture error means the device is gone;
// callers treat it as fatal rather than retrying into a dead camera.
type Source interface {
	Capture(ctx context.Context) (*Frame, error)

	// Close releases the device. Safe to call more than once.
	Close() error
}
