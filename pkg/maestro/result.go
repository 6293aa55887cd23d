// Package maestro drives Pololu Maestro servo controllers.
//
// A Backend delivers one set-target command to the device, either by
// spawning the Pololu UscCmd tool per command or over a persistent
// serial port speaking the compact protocol. The Driver layers channel
// and pulse validation, range clamping, and motion helpers on top.
//
// Targets are in quarter-microseconds throughout, the unit the Maestro
// protocol itself uses (6000 = 1.5 ms = neutral).
package maestro

import (
	"fmt"
	"strings"
	"time"
)

// Status codes carried in CommandResult. UscCmd is a normal UNIX
// process, so the shell conventions apply.
const (
	StatusOK       = 0
	StatusTimeout  = 124 // command exceeded its deadline
	StatusNotFound = 127 // UscCmd binary not found
)

// CommandResult reports the outcome of a single device command.
// Device-side trouble (nonzero exit, timeout, missing tool, failed
// write) lives here as a value; it is not a Go error.
type CommandResult struct {
	Status   int
	Output   string
	Duration time.Duration
}

// OK reports whether the command succeeded.
func (r CommandResult) OK() bool { return r.Status == StatusOK }

// Err converts a failed result into a descriptive error, nil when OK.
// Strict-mode drivers use this to surface device failures to callers.
func (r CommandResult) Err() error {
	switch {
	case r.OK():
		return nil
	case r.Status == StatusTimeout:
		return fmt.Errorf("command timed out after %s", r.Duration.Round(time.Millisecond))
	case r.Status == StatusNotFound:
		return fmt.Errorf("UscCmd not found: %s", strings.TrimSpace(r.Output))
	default:
		return fmt.Errorf("device command failed with status %d: %s", r.Status, strings.TrimSpace(r.Output))
	}
}

func (r CommandResult) String() string {
	if r.OK() {
		return fmt.Sprintf("ok (%s)", r.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("status %d (%s): %s", r.Status, r.Duration.Round(time.Millisecond), strings.TrimSpace(r.Output))
}
