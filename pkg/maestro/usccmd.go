package maestro

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single UscCmd invocation.
const DefaultTimeout = 3 * time.Second

// UscCmd is a Backend that spawns the Pololu UscCmd binary once per
// command: `UscCmd --servo <channel>,<target> [--device <serial>]`.
// The constructor never probes the binary; a missing tool shows up as
// StatusNotFound on the first Send, the same way the shell would
// report it.
type UscCmd struct {
	bin     string
	device  string
	timeout time.Duration
	logger  *slog.Logger
}

// UscCmdOption configures a UscCmd backend.
type UscCmdOption func(*UscCmd)

// WithBinary overrides the executable name or path (default "UscCmd").
func WithBinary(path string) UscCmdOption {
	return func(u *UscCmd) { u.bin = path }
}

// WithDevice selects a specific Maestro by serial number when several
// are attached.
func WithDevice(serial string) UscCmdOption {
	return func(u *UscCmd) { u.device = serial }
}

// WithTimeout overrides the per-command deadline.
func WithTimeout(d time.Duration) UscCmdOption {
	return func(u *UscCmd) {
		if d > 0 {
			u.timeout = d
		}
	}
}

// NewUscCmd builds the process-spawning backend.
func NewUscCmd(opts ...UscCmdOption) *UscCmd {
	u := &UscCmd{
		bin:     "UscCmd",
		timeout: DefaultTimeout,
		logger:  slog.Default().With("component", "maestro.usccmd"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Send spawns one UscCmd invocation and classifies its exit.
func (u *UscCmd) Send(ctx context.Context, channel, target int) (CommandResult, error) {
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	args := []string{"--servo", fmt.Sprintf("%d,%d", channel, target)}
	if u.device != "" {
		args = append(args, "--device", u.device)
	}

	out, err := exec.CommandContext(cctx, u.bin, args...).CombinedOutput()
	res := CommandResult{
		Status:   StatusOK,
		Output:   string(out),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case cctx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
			res.Status = StatusTimeout
		case errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist):
			res.Status = StatusNotFound
			res.Output = err.Error()
		case errors.As(err, &exitErr):
			res.Status = exitErr.ExitCode()
		default:
			res.Status = 1
			res.Output = err.Error()
		}
	}

	u.logger.Debug("usccmd send",
		"channel", channel, "target", target,
		"status", res.Status, "duration_ms", res.Duration.Milliseconds())

	// The caller going away is the only condition reported as an error.
	if cerr := ctx.Err(); cerr != nil {
		return res, cerr
	}
	return res, nil
}

// Close is a no-op; each Send owns its own process.
func (u *UscCmd) Close() error { return nil }
