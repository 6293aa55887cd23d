package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/perchbot/go-gimbal/internal/timeutil"
	"github.com/perchbot/go-gimbal/pkg/camera"
	"github.com/perchbot/go-gimbal/pkg/debug"
	"github.com/perchbot/go-gimbal/pkg/detection"
	"github.com/perchbot/go-gimbal/pkg/maestro"
)

// StateSink receives tracking events, one call per cycle. Sinks run on
// the loop goroutine and must return quickly.
type StateSink interface {
	// TrackingUpdate reports the frame's estimate and whether servo
	// commands were issued this cycle.
	TrackingUpdate(e Estimate, actuated bool)

	// TrackingError reports a non-fatal fault ("detect", "servo").
	TrackingError(stage string, err error)
}

// FrameSink receives the frames the estimates were made from.
// The capture recorder implements this.
type FrameSink interface {
	ObserveFrame(e Estimate, f *camera.Frame)
}

// axis is the per-axis half of the controller state machine. An axis
// is either idle at neutral or holding a direction.
type axis struct {
	name    string
	channel int
	speed   float64
	holding maestro.Direction
}

// Controller runs the capture, detect, estimate, actuate cycle.
type Controller struct {
	driver   *maestro.Driver
	source   camera.Source
	detector detection.Detector
	cfg      Config
	clock    timeutil.Clock
	sinks    []StateSink
	frames   []FrameSink
	logger   *slog.Logger

	mu            sync.Mutex
	pan           axis
	tilt          axis
	lastActuation time.Time
	lastStateLog  time.Time
	startedAt     time.Time
	lastEstimate  Estimate
	cycles        uint64
	actuations    uint64
	faults        uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock substitutes the loop's clock.
func WithClock(c timeutil.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithStateSink registers a tracking event consumer.
func WithStateSink(s StateSink) Option {
	return func(ctrl *Controller) { ctrl.sinks = append(ctrl.sinks, s) }
}

// WithFrameSink registers a frame consumer.
func WithFrameSink(s FrameSink) Option {
	return func(ctrl *Controller) { ctrl.frames = append(ctrl.frames, s) }
}

// NewController wires the loop together. The configuration must have
// passed Validate.
func NewController(d *maestro.Driver, src camera.Source, det detection.Detector, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		driver:   d,
		source:   src,
		detector: det,
		cfg:      cfg,
		clock:    timeutil.RealClock{},
		logger:   slog.Default().With("component", "tracking"),
		pan:      axis{name: "pan", channel: cfg.PanChannel, speed: cfg.PanSpeed},
		tilt:     axis{name: "tilt", channel: cfg.TiltChannel, speed: cfg.TiltSpeed},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the loop until the context is canceled or the camera
// dies. Whatever the exit path, every servo is stopped and the frame
// source is released before Run returns.
func (c *Controller) Run(ctx context.Context) (err error) {
	fmt.Printf("🎯 Tracking started (pan=ch%d, tilt=ch%d, tolerance=%dpx)\n",
		c.cfg.PanChannel, c.cfg.TiltChannel, c.cfg.Tolerance)

	c.mu.Lock()
	c.startedAt = c.clock.Now()
	c.mu.Unlock()

	defer c.shutdown()

	for {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if cerr := c.runCycle(ctx); cerr != nil {
			return cerr
		}
		if c.cfg.Interval <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.cfg.Interval):
		}
	}
}

// runCycle performs one capture/detect/estimate/actuate pass. The only
// errors it returns are fatal ones: a dead camera or a canceled
// context. Everything else is logged and survived.
func (c *Controller) runCycle(ctx context.Context) error {
	frame, err := c.source.Capture(ctx)
	if err != nil {
		fmt.Printf("❌ Camera capture failed: %v\n", err)
		return fmt.Errorf("capture frame: %w", err)
	}

	boxes, err := c.detector.Detect(frame.JPEG)
	if err != nil {
		// A detector hiccup is treated like a frame with no faces.
		c.logger.Warn("detector failed, treating as gap", "err", err)
		c.fault("detect", err)
		boxes = nil
	}

	est := EstimateDirection(boxes, frame.Width, frame.Height, c.cfg.Tolerance)

	actuated, err := c.actuate(ctx, est.Signal)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.cycles++
	c.lastEstimate = est
	c.mu.Unlock()

	c.logState(est)

	for _, s := range c.sinks {
		s.TrackingUpdate(est, actuated)
	}
	for _, fs := range c.frames {
		fs.ObserveFrame(est, frame)
	}
	return nil
}

// actuate applies the signal to both axes, pan first, behind a single
// rate gate. Within MinInterval of the last burst nothing is sent and
// the timestamp is left alone, so the gate reopens on schedule.
func (c *Controller) actuate(ctx context.Context, sig Signal) (bool, error) {
	c.mu.Lock()
	gateOpen := c.lastActuation.IsZero() || c.clock.Since(c.lastActuation) >= c.cfg.MinInterval
	if gateOpen {
		c.lastActuation = c.clock.Now()
	}
	c.mu.Unlock()

	if !gateOpen {
		return false, nil
	}

	if err := c.applyAxis(ctx, &c.pan, sig.X); err != nil {
		return true, err
	}
	if err := c.applyAxis(ctx, &c.tilt, sig.Y); err != nil {
		return true, err
	}

	c.mu.Lock()
	c.actuations++
	c.mu.Unlock()
	return true, nil
}

// applyAxis runs one axis of the state machine. A nonzero signal
// (re)issues the move and holds it; a zero signal stops the servo only
// on the holding-to-centered transition. The returned error is nil
// unless the context died mid-command.
func (c *Controller) applyAxis(ctx context.Context, ax *axis, sig int) error {
	dir := maestro.Direction(sig)

	if dir == maestro.Stop {
		if c.holdingOf(ax) == maestro.Stop {
			return nil // already idle, stay quiet
		}
		res, err := c.driver.Stop(ctx, ax.channel)
		if err != nil {
			return fmt.Errorf("%s stop: %w", ax.name, err)
		}
		if !res.OK() {
			c.logger.Warn("servo stop failed",
				"axis", ax.name, "channel", ax.channel, "status", res.Status)
			c.fault("servo", res.Err())
		}
		c.setHolding(ax, maestro.Stop)
		debug.TrackLog("🎯 %s ch%d stop\n", ax.name, ax.channel)
		return nil
	}

	res, err := c.driver.Move(ctx, ax.channel, dir, ax.speed)
	if err != nil {
		return fmt.Errorf("%s move: %w", ax.name, err)
	}
	if !res.OK() {
		c.logger.Warn("servo move failed",
			"axis", ax.name, "channel", ax.channel, "status", res.Status)
		c.fault("servo", res.Err())
	}
	c.setHolding(ax, dir)
	debug.TrackLog("🎯 %s ch%d %s\n", ax.name, ax.channel, dir)
	return nil
}

func (c *Controller) holdingOf(ax *axis) maestro.Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ax.holding
}

func (c *Controller) setHolding(ax *axis, d maestro.Direction) {
	c.mu.Lock()
	ax.holding = d
	c.mu.Unlock()
}

// shutdown parks every servo and releases the camera. Runs on a fresh
// context so a canceled loop context cannot skip it.
func (c *Controller) shutdown() {
	fmt.Printf("🛑 Stopping all servos...\n")

	failed := 0
	for _, res := range c.driver.StopAll(context.Background(), c.cfg.StopAllChannels) {
		if !res.OK() {
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("⚠️  %d of %d stop commands failed\n", failed, c.cfg.StopAllChannels)
	}

	if err := c.source.Close(); err != nil {
		fmt.Printf("⚠️  Camera release failed: %v\n", err)
	}
}

// logState prints the throttled console direction line.
func (c *Controller) logState(est Estimate) {
	c.mu.Lock()
	due := c.lastStateLog.IsZero() || c.clock.Since(c.lastStateLog) >= c.cfg.StateLogInterval
	if due {
		c.lastStateLog = c.clock.Now()
	}
	c.mu.Unlock()

	if !due || !est.Found {
		return
	}
	fmt.Printf("👁️  Target %s offset=(%d,%d)\n", est.Signal, est.OffsetX, est.OffsetY)
}

func (c *Controller) fault(stage string, err error) {
	c.mu.Lock()
	c.faults++
	c.mu.Unlock()
	for _, s := range c.sinks {
		s.TrackingError(stage, err)
	}
}

// AxisStatus is one axis of a Status snapshot.
type AxisStatus struct {
	Channel int    `json:"channel"`
	Holding string `json:"holding"`
}

// Status is a point-in-time snapshot of the loop for the dashboard.
type Status struct {
	StartedAt  time.Time  `json:"started_at"`
	Cycles     uint64     `json:"cycles"`
	Actuations uint64     `json:"actuations"`
	Faults     uint64     `json:"faults"`
	Last       Estimate   `json:"last"`
	Pan        AxisStatus `json:"pan"`
	Tilt       AxisStatus `json:"tilt"`
}

// Status returns a snapshot of the loop state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		StartedAt:  c.startedAt,
		Cycles:     c.cycles,
		Actuations: c.actuations,
		Faults:     c.faults,
		Last:       c.lastEstimate,
		Pan:        AxisStatus{Channel: c.pan.channel, Holding: c.pan.holding.String()},
		Tilt:       AxisStatus{Channel: c.tilt.channel, Holding: c.tilt.holding.String()},
	}
}
