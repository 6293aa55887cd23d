// Package config loads gimbal configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DeviceConfig selects and tunes the Maestro transport.
type DeviceConfig struct {
	Transport string `yaml:"transport"`  // "usccmd" (spawn UscCmd per command) or "serial" (persistent port)
	Serial    string `yaml:"serial"`     // UscCmd --device serial number, when several Maestros are attached
	Port      string `yaml:"port"`       // serial port path, e.g. /dev/ttyACM0
	BaudRate  int    `yaml:"baud_rate"`  // serial transport only
	TimeoutMs int    `yaml:"timeout_ms"` // per-command timeout
	Profile   string `yaml:"profile"`    // "standard" or "fs90r"
}

// CameraConfig describes the capture device.
type CameraConfig struct {
	Device int `yaml:"device"` // V4L2 index
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DetectionConfig tunes the Haar cascade detector.
type DetectionConfig struct {
	Cascade      string  `yaml:"cascade"` // path to the cascade XML
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
}

// TrackingConfig tunes the motion control loop.
type TrackingConfig struct {
	PanChannel      int     `yaml:"pan_channel"`
	TiltChannel     int     `yaml:"tilt_channel"`
	Tolerance       int     `yaml:"tolerance"` // centered dead zone in pixels
	PanSpeed        float64 `yaml:"pan_speed"` // normalized 0..1
	TiltSpeed       float64 `yaml:"tilt_speed"`
	IntervalMs      int     `yaml:"interval_ms"`     // delay between cycles
	MinIntervalMs   int     `yaml:"min_interval_ms"` // minimum time between servo command bursts
	StopAllChannels int     `yaml:"stop_all_channels"`
}

// CaptureConfig controls the centered-frame recorder.
type CaptureConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dir         string `yaml:"dir"`
	Prefix      string `yaml:"prefix"`
	IntervalSec int    `yaml:"interval_sec"` // minimum seconds between saves
	DB          string `yaml:"db"`           // sqlite index path, empty disables the index
}

// WebConfig controls the dashboard server.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config aggregates all daemon configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Camera    CameraConfig    `yaml:"camera"`
	Detection DetectionConfig `yaml:"detection"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Capture   CaptureConfig   `yaml:"capture"`
	Web       WebConfig       `yaml:"web"`
}

// Default returns the compiled-in configuration: UscCmd transport,
// camera 0 at 640x480, pan on channel 0 and tilt on channel 1.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Transport: "usccmd",
			BaudRate:  9600,
			TimeoutMs: 3000,
			Profile:   "standard",
		},
		Camera: CameraConfig{Device: 0, Width: 640, Height: 480},
		Detection: DetectionConfig{
			Cascade:      "haarcascade_frontalface_default.xml",
			ScaleFactor:  1.1,
			MinNeighbors: 5,
		},
		Tracking: TrackingConfig{
			PanChannel:      0,
			TiltChannel:     1,
			Tolerance:       10,
			PanSpeed:        0.35,
			TiltSpeed:       0.35,
			IntervalMs:      50,
			MinIntervalMs:   200,
			StopAllChannels: 24,
		},
		Capture: CaptureConfig{
			Enabled:     true,
			Dir:         "captures",
			Prefix:      "frame",
			IntervalSec: 300,
		},
		Web: WebConfig{Enabled: true, Addr: ":8080"},
	}
}

// Load reads a YAML file and returns the configuration with defaults
// backfilled. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Device.Transport {
	case "usccmd", "serial":
	default:
		return fmt.Errorf("device.transport must be usccmd or serial, got %q", c.Device.Transport)
	}
	if c.Device.Transport == "serial" && c.Device.Port == "" {
		return fmt.Errorf("device.port is required for the serial transport")
	}
	switch c.Device.Profile {
	case "standard", "fs90r":
	default:
		return fmt.Errorf("device.profile must be standard or fs90r, got %q", c.Device.Profile)
	}
	if c.Device.TimeoutMs <= 0 {
		c.Device.TimeoutMs = 3000
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera.width and camera.height must be > 0, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Detection.ScaleFactor <= 1.0 {
		return fmt.Errorf("detection.scale_factor must be > 1.0, got %.2f", c.Detection.ScaleFactor)
	}
	if c.Detection.MinNeighbors <= 0 {
		c.Detection.MinNeighbors = 5
	}
	if c.Tracking.PanChannel < 0 || c.Tracking.TiltChannel < 0 {
		return fmt.Errorf("tracking channels must be >= 0, got pan=%d tilt=%d", c.Tracking.PanChannel, c.Tracking.TiltChannel)
	}
	if c.Tracking.PanChannel == c.Tracking.TiltChannel {
		return fmt.Errorf("tracking.pan_channel and tilt_channel must differ, both are %d", c.Tracking.PanChannel)
	}
	if c.Tracking.Tolerance < 0 {
		return fmt.Errorf("tracking.tolerance must be >= 0, got %d", c.Tracking.Tolerance)
	}
	if c.Tracking.PanSpeed <= 0 || c.Tracking.PanSpeed > 1 {
		return fmt.Errorf("tracking.pan_speed must be in (0, 1], got %.2f", c.Tracking.PanSpeed)
	}
	if c.Tracking.TiltSpeed <= 0 || c.Tracking.TiltSpeed > 1 {
		return fmt.Errorf("tracking.tilt_speed must be in (0, 1], got %.2f", c.Tracking.TiltSpeed)
	}
	if c.Tracking.StopAllChannels <= 0 {
		c.Tracking.StopAllChannels = 24
	}
	if c.Capture.Enabled && c.Capture.Dir == "" {
		return fmt.Errorf("capture.dir is required when capture is enabled")
	}
	if c.Capture.Prefix == "" {
		c.Capture.Prefix = "frame"
	}
	if c.Capture.IntervalSec <= 0 {
		c.Capture.IntervalSec = 300
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	return nil
}

// Timeout returns the per-command device timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Device.TimeoutMs) * time.Millisecond
}

// Interval returns the cycle delay as a duration.
func (t TrackingConfig) Interval() time.Duration {
	return time.Duration(t.IntervalMs) * time.Millisecond
}

// MinInterval returns the actuation rate limit as a duration.
func (t TrackingConfig) MinInterval() time.Duration {
	return time.Duration(t.MinIntervalMs) * time.Millisecond
}

// CaptureInterval returns the minimum time between saves.
func (c CaptureConfig) CaptureInterval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}
