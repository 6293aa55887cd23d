package tracking

import (
	"fmt"
	"time"
)

// Config holds all tunable parameters for the tracking loop
type Config struct {
	// Servo channels
	PanChannel  int // horizontal axis
	TiltChannel int // vertical axis

	// Direction estimation
	Tolerance int // pixel dead zone around frame center

	// Movement speeds (normalized 0-1)
	PanSpeed  float64
	TiltSpeed float64

	// Timing
	Interval    time.Duration // delay between cycles
	MinInterval time.Duration // minimum time between servo command bursts

	// Shutdown
	StopAllChannels int // sweep width for the shutdown stop

	// Logging
	StateLogInterval time.Duration // throttle for the console direction line
}

// DefaultConfig returns the recommended configuration for a pan/tilt
// rig on Maestro channels 0 and 1
func DefaultConfig() Config {
	return Config{
		PanChannel:  0,
		TiltChannel: 1,

		Tolerance: 10, // ~3% of a 640px frame

		PanSpeed:  0.35,
		TiltSpeed: 0.35,

		Interval:    50 * time.Millisecond,  // 20 cycles per second
		MinInterval: 200 * time.Millisecond, // at most 5 command bursts per second

		StopAllChannels: 24, // Mini Maestro 24

		StateLogInterval: 2 * time.Second,
	}
}

// SlowConfig returns a configuration for gentler, quieter tracking
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.PanSpeed = 0.20
	cfg.TiltSpeed = 0.20
	cfg.Tolerance = 25 // wider dead zone, fewer corrections
	cfg.MinInterval = 400 * time.Millisecond
	return cfg
}

// AggressiveConfig returns a configuration for fast reacquisition
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.PanSpeed = 0.60
	cfg.TiltSpeed = 0.60
	cfg.Tolerance = 5
	cfg.Interval = 30 * time.Millisecond
	cfg.MinInterval = 100 * time.Millisecond
	return cfg
}

// Validate rejects configurations the loop cannot run with.
func (c Config) Validate() error {
	if c.PanChannel < 0 || c.TiltChannel < 0 {
		return fmt.Errorf("servo channels must be >= 0, got pan=%d tilt=%d", c.PanChannel, c.TiltChannel)
	}
	if c.PanChannel == c.TiltChannel {
		return fmt.Errorf("pan and tilt cannot share channel %d", c.PanChannel)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %d", c.Tolerance)
	}
	if c.PanSpeed <= 0 || c.PanSpeed > 1 {
		return fmt.Errorf("pan speed must be in (0, 1], got %v", c.PanSpeed)
	}
	if c.TiltSpeed <= 0 || c.TiltSpeed > 1 {
		return fmt.Errorf("tilt speed must be in (0, 1], got %v", c.TiltSpeed)
	}
	if c.StopAllChannels <= 0 {
		return fmt.Errorf("stop-all sweep width must be > 0, got %d", c.StopAllChannels)
	}
	return nil
}
