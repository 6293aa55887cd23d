// Gimbal - closed-loop pan/tilt face tracking on a Pololu Maestro
//
// Watches the webcam, finds a face and nudges two continuous-rotation
// servos until the face sits in the center of the frame.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/perchbot/go-gimbal/internal/config"
	applog "github.com/perchbot/go-gimbal/internal/log"
	"github.com/perchbot/go-gimbal/pkg/camera"
	"github.com/perchbot/go-gimbal/pkg/gimbal"
	"github.com/perchbot/go-gimbal/pkg/tracking"
)

func main() {
	cfg, opts := parseFlags()

	app, err := gimbal.New(cfg, opts)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns the configuration.
func parseFlags() (*config.Config, gimbal.Options) {
	cfgPath := flag.String("config", "", "Path to YAML config file")
	device := flag.String("device", "", "UscCmd device serial number (when several Maestros are attached)")
	port := flag.String("port", "", "Maestro serial port, e.g. /dev/ttyACM0 (switches to the serial transport)")
	cameraIdx := flag.Int("camera", -1, "Camera device index (overrides config)")
	resolution := flag.String("resolution", "", "Camera resolution preset: qvga, vga, 720p, 1080p")
	cascade := flag.String("cascade", "", "Haar cascade XML path (overrides config)")
	addr := flag.String("addr", "", "Dashboard listen address (overrides config)")
	preset := flag.String("preset", "", "Tracking preset: slow, aggressive")
	env := flag.String("env", "development", "Environment: development or production")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log every tracking decision")
	dryRun := flag.Bool("dry-run", false, "Mock the servo backend, nothing moves")
	noWeb := flag.Bool("no-web", false, "Disable the web dashboard")

	flag.Parse()

	applog.Init(*env, *logLevel)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if *device != "" {
		cfg.Device.Serial = *device
	}
	if *port != "" {
		cfg.Device.Transport = "serial"
		cfg.Device.Port = *port
	}
	if *cameraIdx >= 0 {
		cfg.Camera.Device = *cameraIdx
	}
	if *resolution != "" {
		w, h, ok := camera.Resolution(*resolution)
		if !ok {
			log.Fatalf("❌ Unknown resolution %q (want one of %v)", *resolution, camera.PresetNames())
		}
		cfg.Camera.Width, cfg.Camera.Height = w, h
	}
	if *cascade != "" {
		cfg.Detection.Cascade = *cascade
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	switch *preset {
	case "":
	case "slow":
		applyPreset(cfg, tracking.SlowConfig())
	case "aggressive":
		applyPreset(cfg, tracking.AggressiveConfig())
	default:
		log.Fatalf("❌ Unknown preset %q (want slow or aggressive)", *preset)
	}

	return cfg, gimbal.Options{
		Debug:         *debugFlag,
		DebugTracking: *debugTracking,
		DryRun:        *dryRun,
		NoWeb:         *noWeb,
	}
}

// applyPreset copies a tracking preset over the loaded configuration.
func applyPreset(cfg *config.Config, p tracking.Config) {
	cfg.Tracking.Tolerance = p.Tolerance
	cfg.Tracking.PanSpeed = p.PanSpeed
	cfg.Tracking.TiltSpeed = p.TiltSpeed
	cfg.Tracking.IntervalMs = int(p.Interval / time.Millisecond)
	cfg.Tracking.MinIntervalMs = int(p.MinInterval / time.Millisecond)
}
