// Package recorder saves frames where the target sat centered.
package recorder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/perchbot/go-gimbal/internal/timeutil"
	"github.com/perchbot/go-gimbal/pkg/camera"
	"github.com/perchbot/go-gimbal/pkg/tracking"
)

// Recorder writes a JPEG to disk whenever a detected face is centered
// and the save interval has elapsed. A frame with no detection never
// saves, even though its signal reads centered.
type Recorder struct {
	dir      string
	prefix   string
	interval time.Duration
	clock    timeutil.Clock
	store    *Store
	logger   *slog.Logger

	mu       sync.Mutex
	lastSave time.Time
	saves    int
	lastPath string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock substitutes the throttle clock.
func WithClock(c timeutil.Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// WithStore attaches a SQLite index. Without one the recorder is
// filesystem-only.
func WithStore(s *Store) Option {
	return func(r *Recorder) { r.store = s }
}

// New builds a recorder. The directory is created on first save.
func New(dir, prefix string, interval time.Duration, opts ...Option) *Recorder {
	r := &Recorder{
		dir:      dir,
		prefix:   prefix,
		interval: interval,
		clock:    timeutil.RealClock{},
		logger:   slog.Default().With("component", "recorder"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observe considers one frame. It returns the saved path when a save
// happened, "" when the frame was skipped. The throttle timestamp
// advances only on successful writes, so a failed save retries on the
// next centered frame.
func (r *Recorder) Observe(e tracking.Estimate, f *camera.Frame) (string, error) {
	if !e.Found || !e.Signal.Centered() {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if !r.lastSave.IsZero() && now.Sub(r.lastSave) < r.interval {
		return "", nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.jpg", r.prefix, now.Format("20060102_150405"))
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, f.JPEG, 0o644); err != nil {
		return "", fmt.Errorf("save capture: %w", err)
	}

	r.lastSave = now
	r.saves++
	r.lastPath = path
	fmt.Printf("📸 Saved %s\n", path)

	if r.store != nil {
		_, err := r.store.Add(Capture{
			Path:    path,
			TakenAt: now,
			BoxX:    e.Box.X,
			BoxY:    e.Box.Y,
			BoxW:    e.Box.W,
			BoxH:    e.Box.H,
			FrameW:  f.Width,
			FrameH:  f.Height,
		})
		if err != nil {
			// The file is on disk; a broken index must not undo that.
			r.logger.Warn("capture index failed", "path", path, "err", err)
		}
	}

	return path, nil
}

// ObserveFrame adapts the recorder to the tracking loop's frame sink.
func (r *Recorder) ObserveFrame(e tracking.Estimate, f *camera.Frame) {
	if _, err := r.Observe(e, f); err != nil {
		r.logger.Warn("capture save failed", "err", err)
	}
}

// Saves returns how many frames were written.
func (r *Recorder) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// LastPath returns the most recently written file, "" before the first.
func (r *Recorder) LastPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPath
}
