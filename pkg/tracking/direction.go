// Package tracking turns face detections into pan/tilt servo motion.
package tracking

import (
	"fmt"

	"github.com/perchbot/go-gimbal/pkg/detection"
)

// Signal is the per-axis movement decision for one frame. Each axis is
// -1, 0, or +1: X is +1 when the target sits right of center, Y is +1
// when the target sits above center (image rows grow downward).
type Signal struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Centered reports whether both axes are inside the dead zone.
func (s Signal) Centered() bool { return s.X == 0 && s.Y == 0 }

func (s Signal) String() string { return fmt.Sprintf("(%+d,%+d)", s.X, s.Y) }

// Estimate is the outcome of one frame's direction estimation.
type Estimate struct {
	Signal Signal `json:"signal"`

	// Found reports whether any face was detected. A frame with no
	// detections estimates as centered; it is a gap, not an error.
	Found bool `json:"found"`

	// Box is the detection being tracked (the first one the detector
	// reported), valid only when Found.
	Box detection.Box `json:"box,omitempty"`

	// Pixel offsets of the box center from the frame center, valid
	// only when Found.
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`
}

// EstimateDirection quantizes the first detection's offset from frame
// center into a Signal. Offsets with magnitude beyond tolerance move;
// magnitude equal to tolerance counts as centered.
func EstimateDirection(boxes []detection.Box, frameW, frameH, tolerance int) Estimate {
	box := detection.First(boxes)
	if box == nil {
		return Estimate{}
	}
	if tolerance < 0 {
		tolerance = 0
	}

	frameCX := frameW / 2
	frameCY := frameH / 2
	boxCX, boxCY := box.Center()

	offsetX := boxCX - frameCX
	offsetY := boxCY - frameCY

	var sig Signal
	switch {
	case offsetX > tolerance:
		sig.X = 1
	case offsetX < -tolerance:
		sig.X = -1
	}
	switch {
	case offsetY < -tolerance:
		sig.Y = 1 // above center
	case offsetY > tolerance:
		sig.Y = -1 // below center
	}

	return Estimate{
		Signal:  sig,
		Found:   true,
		Box:     *box,
		OffsetX: offsetX,
		OffsetY: offsetY,
	}
}
