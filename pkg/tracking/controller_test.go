package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/perchbot/go-gimbal/internal/timeutil"
	"github.com/perchbot/go-gimbal/pkg/camera"
	"github.com/perchbot/go-gimbal/pkg/detection"
	"github.com/perchbot/go-gimbal/pkg/maestro"
)

var (
	// 640x480 frame geometry used throughout.
	boxRight    = detection.Box{X: 380, Y: 220, W: 40, H: 40} // center (400,240): pan only
	boxAbove    = detection.Box{X: 300, Y: 100, W: 40, H: 40} // center (320,120): tilt only
	boxCentered = detection.Box{X: 300, Y: 220, W: 40, H: 40} // center (320,240)
)

func testFrame() *camera.Frame {
	return &camera.Frame{JPEG: []byte{0xFF, 0xD8}, Width: 640, Height: 480}
}

// recordingSink collects tracking events for assertions.
type recordingSink struct {
	mu      sync.Mutex
	updates []bool // actuated flag per cycle
	faults  []string
}

func (r *recordingSink) TrackingUpdate(_ Estimate, actuated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, actuated)
}

func (r *recordingSink) TrackingError(stage string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults = append(r.faults, stage)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Interval = 0    // no sleeping between cycles in tests
	cfg.MinInterval = 0 // rate gate open unless a test closes it
	return cfg
}

func newTestController(cfg Config, det detection.Detector, frames ...*camera.Frame) (*Controller, *maestro.MockBackend, *camera.MockSource, *timeutil.MockClock) {
	backend := maestro.NewMockBackend()
	driver := maestro.NewDriver(backend)
	src := camera.NewMockSource(frames...)
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	ctrl := NewController(driver, src, det, cfg, WithClock(clock))
	return ctrl, backend, src, clock
}

func TestCycleMovesTowardTarget(t *testing.T) {
	det := detection.NewStatic([]detection.Box{{X: 380, Y: 190, W: 40, H: 40}}) // right and above
	ctrl, backend, _, _ := newTestController(testConfig(), det, testFrame())

	if err := ctrl.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	calls := backend.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected pan and tilt commands, got %v", calls)
	}
	// Pan first, tilt second. Speed 0.35 on the standard profile is
	// 6000 + 2000*0.35 = 6700.
	if calls[0].Channel != 0 || calls[0].Target != 6700 {
		t.Errorf("pan command = %+v, want ch0 target 6700", calls[0])
	}
	if calls[1].Channel != 1 || calls[1].Target != 6700 {
		t.Errorf("tilt command = %+v, want ch1 target 6700", calls[1])
	}
}

func TestStopSentOnlyOnTransition(t *testing.T) {
	det := detection.NewStatic(
		[]detection.Box{boxRight},
		[]detection.Box{boxCentered},
		[]detection.Box{boxCentered},
	)
	ctrl, backend, _, _ := newTestController(testConfig(), det, testFrame())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := ctrl.runCycle(ctx); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}

	targets := backend.TargetsFor(0)
	if len(targets) != 2 || targets[0] != 6700 || targets[1] != 6000 {
		t.Errorf("pan targets = %v, want [6700 6000] (move, one stop, then silence)", targets)
	}
	if got := backend.TargetsFor(1); len(got) != 0 {
		t.Errorf("tilt was never off center, got commands %v", got)
	}
}

func TestDetectorGapStopsHeldAxes(t *testing.T) {
	det := detection.NewStatic(
		[]detection.Box{boxAbove},
		nil, // face lost
		nil,
	)
	ctrl, backend, _, _ := newTestController(testConfig(), det, testFrame())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := ctrl.runCycle(ctx); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}

	targets := backend.TargetsFor(1)
	if len(targets) != 2 || targets[0] != 6700 || targets[1] != 6000 {
		t.Errorf("tilt targets = %v, want [6700 6000]", targets)
	}
}

func TestDetectorErrorIsTreatedAsGap(t *testing.T) {
	det := detection.NewStatic([]detection.Box{boxRight}).FailWith(errors.New("model exploded"))
	ctrl, backend, _, _ := newTestController(testConfig(), det, testFrame())
	sink := &recordingSink{}
	ctrl.sinks = append(ctrl.sinks, sink)

	// First cycle consumes the scripted error.
	if err := ctrl.runCycle(context.Background()); err != nil {
		t.Fatalf("detector errors must not kill the loop: %v", err)
	}
	if backend.CallCount() != 0 {
		t.Errorf("gap from an idle state should send nothing, got %v", backend.Calls())
	}
	if len(sink.faults) != 1 || sink.faults[0] != "detect" {
		t.Errorf("faults = %v, want one detect fault", sink.faults)
	}

	// Next cycle sees the face and tracks normally.
	if err := ctrl.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if backend.CallCount() != 1 {
		t.Errorf("expected one pan move after recovery, got %v", backend.Calls())
	}
}

func TestRateGateSkipsWholeCycles(t *testing.T) {
	cfg := testConfig()
	cfg.MinInterval = 200 * time.Millisecond

	det := detection.NewStatic([]detection.Box{boxRight})
	ctrl, backend, _, clock := newTestController(cfg, det, testFrame())
	ctx := context.Background()

	if err := ctrl.runCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if backend.CallCount() != 1 {
		t.Fatalf("first cycle should actuate once, got %d calls", backend.CallCount())
	}

	// Second cycle lands inside the interval: no commands at all.
	if err := ctrl.runCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if backend.CallCount() != 1 {
		t.Errorf("rate-limited cycle must not touch the backend, got %d calls", backend.CallCount())
	}

	clock.Advance(200 * time.Millisecond)
	if err := ctrl.runCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if backend.CallCount() != 2 {
		t.Errorf("gate should reopen after the interval, got %d calls", backend.CallCount())
	}
}

func TestSinkSeesActuatedFlag(t *testing.T) {
	cfg := testConfig()
	cfg.MinInterval = time.Hour

	det := detection.NewStatic([]detection.Box{boxRight})
	ctrl, _, _, _ := newTestController(cfg, det, testFrame())
	sink := &recordingSink{}
	ctrl.sinks = append(ctrl.sinks, sink)
	ctx := context.Background()

	if err := ctrl.runCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.runCycle(ctx); err != nil {
		t.Fatal(err)
	}

	if len(sink.updates) != 2 || sink.updates[0] != true || sink.updates[1] != false {
		t.Errorf("actuated flags = %v, want [true false]", sink.updates)
	}
}

func TestRunStopsEverythingOnCameraDeath(t *testing.T) {
	cfg := testConfig()
	det := detection.NewStatic([]detection.Box{boxCentered})
	ctrl, backend, src, _ := newTestController(cfg, det, testFrame())
	src.ErrAfter() // one good frame, then the camera dies

	err := ctrl.Run(context.Background())
	if err == nil {
		t.Fatal("camera death must end Run with an error")
	}

	calls := backend.Calls()
	if len(calls) != cfg.StopAllChannels {
		t.Fatalf("expected a %d-channel stop sweep, got %d calls", cfg.StopAllChannels, len(calls))
	}
	for ch, call := range calls {
		if call.Channel != ch || call.Target != 6000 {
			t.Errorf("sweep call %d = %+v, want neutral on channel %d", ch, call, ch)
		}
	}
	if !src.Closed() {
		t.Error("frame source must be released on exit")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := testConfig()
	det := detection.NewStatic([]detection.Box{boxCentered})
	ctrl, backend, src, _ := newTestController(cfg, det, testFrame())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ctrl.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if backend.CallCount() != cfg.StopAllChannels {
		t.Errorf("shutdown sweep missing: %d calls", backend.CallCount())
	}
	if !src.Closed() {
		t.Error("frame source must be released on cancellation")
	}
}

func TestStatusSnapshot(t *testing.T) {
	det := detection.NewStatic([]detection.Box{boxRight})
	ctrl, _, _, _ := newTestController(testConfig(), det, testFrame())

	if err := ctrl.runCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	st := ctrl.Status()
	if st.Cycles != 1 || st.Actuations != 1 {
		t.Errorf("cycles=%d actuations=%d, want 1 and 1", st.Cycles, st.Actuations)
	}
	if !st.Last.Found || st.Last.Signal != (Signal{X: 1}) {
		t.Errorf("last estimate = %+v, want found signal (+1,+0)", st.Last)
	}
	if st.Pan.Holding != "forward" {
		t.Errorf("pan holding = %q, want forward", st.Pan.Holding)
	}
	if st.Tilt.Holding != "stop" {
		t.Errorf("tilt holding = %q, want stop", st.Tilt.Holding)
	}
}
