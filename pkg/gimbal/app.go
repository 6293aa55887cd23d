// Package gimbal wires the tracking daemon together: Maestro driver,
// camera, face detector, frame recorder and dashboard.
package gimbal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perchbot/go-gimbal/internal/config"
	"github.com/perchbot/go-gimbal/pkg/camera"
	"github.com/perchbot/go-gimbal/pkg/debug"
	"github.com/perchbot/go-gimbal/pkg/detection"
	"github.com/perchbot/go-gimbal/pkg/maestro"
	"github.com/perchbot/go-gimbal/pkg/recorder"
	"github.com/perchbot/go-gimbal/pkg/tracking"
	"github.com/perchbot/go-gimbal/pkg/web"
)

// Options are runtime switches that don't belong in the config file.
type Options struct {
	Debug         bool // verbose debug logging
	DebugTracking bool // per-frame tracking logs
	DryRun        bool // mock servo backend, nothing moves
	NoWeb         bool // skip the dashboard server
}

// App is the daemon orchestrator.
// It owns every component and their lifecycle.
type App struct {
	config *config.Config
	opts   Options

	driver     *maestro.Driver
	source     camera.Source
	detector   detection.Detector
	store      *recorder.Store
	recorder   *recorder.Recorder
	controller *tracking.Controller
	webServer  *web.Server
}

// New creates the daemon from a loaded configuration.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	debug.Enabled = opts.Debug
	debug.Tracking = opts.DebugTracking || opts.DryRun

	return &App{config: cfg, opts: opts}, nil
}

// Init initializes all components.
// Call this after New() and before Run().
func (a *App) Init() error {
	fmt.Println("🎯 Gimbal - Pan/Tilt Face Tracking")
	fmt.Println("==================================")
	if a.opts.DryRun {
		fmt.Println("🧪 Dry run - servo commands are logged, not sent")
	}
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	fmt.Print("🔧 Servo driver... ")
	if err := a.initDriver(); err != nil {
		return fmt.Errorf("driver init: %w", err)
	}
	fmt.Println("✅")

	fmt.Print("📷 Camera... ")
	if err := a.initCamera(); err != nil {
		return fmt.Errorf("camera init: %w", err)
	}
	fmt.Println("✅")

	fmt.Print("👁️  Face detector... ")
	if err := a.initDetector(); err != nil {
		return fmt.Errorf("detector init: %w", err)
	}
	fmt.Println("✅")

	// Capture is best-effort: a broken recorder must not stop tracking
	if a.config.Capture.Enabled {
		fmt.Print("📸 Frame recorder... ")
		if err := a.initRecorder(); err != nil {
			fmt.Printf("⚠️  %v\n", err)
		} else {
			fmt.Println("✅")
		}
	}

	a.initWeb()
	a.initController()
	return nil
}

// Run starts the dashboard and blocks in the tracking loop until the
// context is cancelled or the camera dies.
func (a *App) Run(ctx context.Context) error {
	fmt.Println("\n🎯 Tracking! Stand in front of the camera...")
	fmt.Println("   (Ctrl+C to exit)")

	if a.webServer != nil {
		go func() {
			if err := a.webServer.Start(ctx); err != nil {
				fmt.Printf("⚠️  Web server error: %v\n", err)
			}
		}()
	}

	err := a.controller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		// Ctrl+C is a clean exit
		return nil
	}
	return err
}

// Shutdown gracefully shuts down all components. The tracking loop has
// already parked the servos and closed the camera by the time this runs.
func (a *App) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	if a.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.webServer.Shutdown(ctx); err != nil {
			fmt.Printf("⚠️  Web shutdown: %v\n", err)
		}
		cancel()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.driver != nil {
		a.driver.Close()
	}
}

// Status implements web.StatusSource by delegating to the controller.
func (a *App) Status() tracking.Status {
	if a.controller == nil {
		return tracking.Status{}
	}
	return a.controller.Status()
}

// StopAll parks every servo. Used by the dashboard kill switch.
func (a *App) StopAll() error {
	results := a.driver.StopAll(context.Background(), a.config.Tracking.StopAllChannels)
	for _, res := range results {
		if !res.OK() {
			return fmt.Errorf("stop incomplete: %s", res.String())
		}
	}
	return nil
}

func (a *App) initDriver() error {
	profile, err := maestro.ProfileByName(a.config.Device.Profile)
	if err != nil {
		return err
	}

	var backend maestro.Backend
	switch {
	case a.opts.DryRun:
		backend = maestro.NewMockBackend()
	case a.config.Device.Transport == "serial":
		backend, err = maestro.OpenSerial(a.config.Device.Port, a.config.Device.BaudRate)
		if err != nil {
			return err
		}
	default:
		uscOpts := []maestro.UscCmdOption{maestro.WithTimeout(a.config.Timeout())}
		if a.config.Device.Serial != "" {
			uscOpts = append(uscOpts, maestro.WithDevice(a.config.Device.Serial))
		}
		backend = maestro.NewUscCmd(uscOpts...)
	}

	a.driver = maestro.NewDriver(backend, maestro.WithProfile(profile))
	return nil
}

func (a *App) initCamera() error {
	cam := a.config.Camera
	source, err := camera.OpenWebcam(cam.Device, cam.Width, cam.Height)
	if err != nil {
		return err
	}
	a.source = source
	return nil
}

func (a *App) initDetector() error {
	det := a.config.Detection
	haar, err := detection.NewHaar(detection.Config{
		CascadePath:  det.Cascade,
		ScaleFactor:  det.ScaleFactor,
		MinNeighbors: det.MinNeighbors,
	})
	if err != nil {
		return err
	}
	a.detector = haar
	return nil
}

func (a *App) initRecorder() error {
	capCfg := a.config.Capture

	var recOpts []recorder.Option
	if capCfg.DB != "" {
		store, err := recorder.OpenStore(capCfg.DB)
		if err != nil {
			return err
		}
		a.store = store
		recOpts = append(recOpts, recorder.WithStore(store))
	}

	a.recorder = recorder.New(capCfg.Dir, capCfg.Prefix, capCfg.CaptureInterval(), recOpts...)
	return nil
}

func (a *App) initWeb() {
	if a.opts.NoWeb || !a.config.Web.Enabled {
		return
	}

	// The store may be absent; a typed nil must not leak into the interface
	var captures web.CaptureIndex
	if a.store != nil {
		captures = a.store
	}

	a.webServer = web.New(a.config.Web.Addr, a.config.Capture.Dir, a, captures)
	a.webServer.OnStop = a.StopAll
}

func (a *App) initController() {
	trk := a.config.Tracking

	cfg := tracking.DefaultConfig()
	cfg.PanChannel = trk.PanChannel
	cfg.TiltChannel = trk.TiltChannel
	cfg.Tolerance = trk.Tolerance
	cfg.PanSpeed = trk.PanSpeed
	cfg.TiltSpeed = trk.TiltSpeed
	cfg.Interval = trk.Interval()
	cfg.MinInterval = trk.MinInterval()
	cfg.StopAllChannels = trk.StopAllChannels

	var opts []tracking.Option
	if a.webServer != nil {
		opts = append(opts, tracking.WithStateSink(a.webServer))
	}
	if a.recorder != nil {
		opts = append(opts, tracking.WithFrameSink(a.recorder))
	}

	a.controller = tracking.NewController(a.driver, a.source, a.detector, cfg, opts...)
}
