package maestro

import (
	"context"
	"log/slog"
	"time"

	"github.com/perchbot/go-gimbal/internal/timeutil"
)

// Direction of travel for continuous-rotation moves.
type Direction int

const (
	Reverse Direction = -1
	Stop    Direction = 0
	Forward Direction = 1
)

// Valid reports whether d is one of Reverse, Stop, Forward.
func (d Direction) Valid() bool {
	switch d {
	case Reverse, Stop, Forward:
		return true
	}
	return false
}

func (d Direction) String() string {
	switch d {
	case Reverse:
		return "reverse"
	case Forward:
		return "forward"
	case Stop:
		return "stop"
	}
	return "invalid"
}

// DefaultChannels is the sweep width StopAll uses when none is given
// (Mini Maestro 24, the largest board in the family).
const DefaultChannels = 24

// Driver layers validation, range clamping, and motion helpers over a
// Backend. Channel and pulse arguments are checked before any device
// I/O; a rejected argument never reaches the transport.
type Driver struct {
	backend  Backend
	profile  Profile
	profiles map[int]Profile
	strict   bool
	clock    timeutil.Clock
	logger   *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithProfile sets the default servo profile (Standard if unset).
func WithProfile(p Profile) DriverOption {
	return func(d *Driver) { d.profile = p }
}

// WithChannelProfile overrides the profile for a single channel, for
// rigs mixing positional and continuous-rotation servos.
func WithChannelProfile(channel int, p Profile) DriverOption {
	return func(d *Driver) { d.profiles[channel] = p }
}

// WithStrict makes every non-OK CommandResult come back as an error.
func WithStrict(strict bool) DriverOption {
	return func(d *Driver) { d.strict = strict }
}

// WithClock substitutes the clock used by MoveFor waits.
func WithClock(c timeutil.Clock) DriverOption {
	return func(d *Driver) { d.clock = c }
}

// NewDriver builds a Driver over the given backend.
func NewDriver(b Backend, opts ...DriverOption) *Driver {
	d := &Driver{
		backend:  b,
		profile:  Standard,
		profiles: make(map[int]Profile),
		clock:    timeutil.RealClock{},
		logger:   slog.Default().With("component", "maestro.driver"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ProfileFor returns the profile governing a channel.
func (d *Driver) ProfileFor(channel int) Profile {
	if p, ok := d.profiles[channel]; ok {
		return p
	}
	return d.profile
}

// SetTarget validates, clamps to the channel's profile range, and
// sends. Invalid channels and negative targets are rejected without a
// single backend call.
func (d *Driver) SetTarget(ctx context.Context, channel, target int) (CommandResult, error) {
	if channel < 0 {
		return CommandResult{}, errInvalid("channel", channel, "must be >= 0")
	}
	if target < 0 {
		return CommandResult{}, errInvalid("target", target, "must be >= 0")
	}

	p := d.ProfileFor(channel)
	clamped := p.Clamp(target)
	if clamped != target {
		d.logger.Debug("target clamped to profile range",
			"channel", channel, "target", target, "clamped", clamped)
	}

	res, err := d.backend.Send(ctx, channel, clamped)
	if err != nil {
		return res, err
	}
	if d.strict {
		if rerr := res.Err(); rerr != nil {
			return res, rerr
		}
	}
	return res, nil
}

// Move runs a channel in a direction at a normalized speed. Speed is
// clamped to [0, 1]; directions outside {-1, 0, 1} are rejected.
func (d *Driver) Move(ctx context.Context, channel int, dir Direction, speed float64) (CommandResult, error) {
	if !dir.Valid() {
		return CommandResult{}, errInvalid("direction", int(dir), "must be -1, 0, or 1")
	}
	if channel < 0 {
		return CommandResult{}, errInvalid("channel", channel, "must be >= 0")
	}
	return d.SetTarget(ctx, channel, d.ProfileFor(channel).Target(dir, speed))
}

// Stop returns a channel to its neutral pulse.
func (d *Driver) Stop(ctx context.Context, channel int) (CommandResult, error) {
	if channel < 0 {
		return CommandResult{}, errInvalid("channel", channel, "must be >= 0")
	}
	return d.SetTarget(ctx, channel, d.ProfileFor(channel).Neutral)
}

// StopAll sends a stop to channels 0..channels-1 in ascending order,
// continuing past failures so one bad channel cannot leave the rest
// running. channels <= 0 sweeps DefaultChannels. One result per
// channel, always.
func (d *Driver) StopAll(ctx context.Context, channels int) []CommandResult {
	if channels <= 0 {
		channels = DefaultChannels
	}

	results := make([]CommandResult, 0, channels)
	for ch := 0; ch < channels; ch++ {
		res, err := d.backend.Send(ctx, ch, d.ProfileFor(ch).Neutral)
		if err != nil {
			d.logger.Warn("stop all interrupted, continuing sweep", "channel", ch, "err", err)
		} else if !res.OK() {
			d.logger.Warn("stop failed", "channel", ch, "status", res.Status)
		}
		results = append(results, res)
	}
	return results
}

// MoveFor runs a channel for a duration and then stops it. The stop is
// issued no matter how the move or the wait ended, on a fresh context,
// so cancellation cannot leave the servo spinning.
func (d *Driver) MoveFor(ctx context.Context, channel int, dir Direction, speed float64, duration time.Duration) (err error) {
	if channel < 0 {
		return errInvalid("channel", channel, "must be >= 0")
	}
	if !dir.Valid() {
		return errInvalid("direction", int(dir), "must be -1, 0, or 1")
	}

	defer func() {
		if _, serr := d.Stop(context.Background(), channel); serr != nil && err == nil {
			err = serr
		}
	}()

	if _, err := d.Move(ctx, channel, dir, speed); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.clock.After(duration):
		return nil
	}
}

// Close releases the backend transport.
func (d *Driver) Close() error {
	return d.backend.Close()
}
