package tracking

import (
	"testing"

	"github.com/perchbot/go-gimbal/pkg/detection"
)

func TestEstimateDirection(t *testing.T) {
	cases := []struct {
		name      string
		boxes     []detection.Box
		w, h, tol int
		want      Signal
		found     bool
	}{
		{
			name:  "target right and above",
			boxes: []detection.Box{{X: 380, Y: 190, W: 40, H: 40}},
			w:     640, h: 480, tol: 10,
			want: Signal{X: 1, Y: 1}, found: true,
		},
		{
			name:  "target left and below",
			boxes: []detection.Box{{X: 100, Y: 300, W: 40, H: 40}},
			w:     640, h: 480, tol: 10,
			want: Signal{X: -1, Y: -1}, found: true,
		},
		{
			name:  "target dead center",
			boxes: []detection.Box{{X: 300, Y: 220, W: 40, H: 40}},
			w:     640, h: 480, tol: 10,
			want: Signal{}, found: true,
		},
		{
			name:  "offset equal to tolerance stays centered",
			boxes: []detection.Box{{X: 310, Y: 220, W: 40, H: 40}}, // center x = 330
			w:     640, h: 480, tol: 10,
			want: Signal{}, found: true,
		},
		{
			name:  "offset one past tolerance moves",
			boxes: []detection.Box{{X: 311, Y: 220, W: 40, H: 40}}, // center x = 331
			w:     640, h: 480, tol: 10,
			want: Signal{X: 1}, found: true,
		},
		{
			name:  "no detections is a quiet gap",
			boxes: nil,
			w:     640, h: 480, tol: 10,
			want: Signal{}, found: false,
		},
		{
			name: "first box wins",
			boxes: []detection.Box{
				{X: 300, Y: 220, W: 40, H: 40}, // centered
				{X: 600, Y: 10, W: 30, H: 30},  // far corner, ignored
			},
			w: 640, h: 480, tol: 10,
			want: Signal{}, found: true,
		},
		{
			name:  "negative tolerance behaves as zero",
			boxes: []detection.Box{{X: 301, Y: 220, W: 40, H: 40}}, // offset x = +1
			w:     640, h: 480, tol: -5,
			want: Signal{X: 1}, found: true,
		},
		{
			name:  "odd dimensions use floor centers",
			boxes: []detection.Box{{X: 0, Y: 0, W: 641, H: 481}},
			w:     641, h: 481, tol: 0,
			want: Signal{}, found: true,
		},
	}

	for _, tc := range cases {
		got := EstimateDirection(tc.boxes, tc.w, tc.h, tc.tol)
		if got.Signal != tc.want {
			t.Errorf("%s: signal = %v, want %v", tc.name, got.Signal, tc.want)
		}
		if got.Found != tc.found {
			t.Errorf("%s: found = %v, want %v", tc.name, got.Found, tc.found)
		}
	}
}

func TestEstimateDirectionOffsets(t *testing.T) {
	est := EstimateDirection([]detection.Box{{X: 380, Y: 190, W: 40, H: 40}}, 640, 480, 10)

	if est.OffsetX != 80 || est.OffsetY != -30 {
		t.Errorf("offsets = (%d,%d), want (80,-30)", est.OffsetX, est.OffsetY)
	}
	if est.Box.X != 380 {
		t.Errorf("estimate should carry the tracked box, got %+v", est.Box)
	}
}

func TestSignalCentered(t *testing.T) {
	if !(Signal{}).Centered() {
		t.Error("zero signal should be centered")
	}
	if (Signal{X: 1}).Centered() || (Signal{Y: -1}).Centered() {
		t.Error("nonzero signal should not be centered")
	}
}
