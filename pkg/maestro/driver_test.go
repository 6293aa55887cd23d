package maestro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTargetRejectsBeforeTransport(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend)

	_, err := d.SetTarget(context.Background(), -1, 6000)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "channel", verr.Field)

	_, err = d.SetTarget(context.Background(), 0, -50)
	require.Error(t, err)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "target", verr.Field)

	assert.Equal(t, 0, backend.CallCount(), "validation failures must not reach the backend")
}

func TestSetTargetClampsToProfile(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend)
	ctx := context.Background()

	_, err := d.SetTarget(ctx, 0, 20000)
	require.NoError(t, err)
	_, err = d.SetTarget(ctx, 0, 100)
	require.NoError(t, err)
	_, err = d.SetTarget(ctx, 0, 6500)
	require.NoError(t, err)

	assert.Equal(t, []int{8000, 4000, 6500}, backend.TargetsFor(0))
}

func TestMoveTargets(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend)
	ctx := context.Background()

	_, err := d.Move(ctx, 0, Forward, 1.0)
	require.NoError(t, err)
	_, err = d.Move(ctx, 0, Forward, 1.5)
	require.NoError(t, err)
	_, err = d.Move(ctx, 0, Reverse, 0.5)
	require.NoError(t, err)
	_, err = d.Move(ctx, 0, Stop, 0.9)
	require.NoError(t, err)

	// Overdriven speed lands on the same pulse as full speed.
	assert.Equal(t, []int{8000, 8000, 5000, 6000}, backend.TargetsFor(0))
}

func TestMoveRejectsUnknownDirection(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend)

	_, err := d.Move(context.Background(), 0, Direction(2), 0.5)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "direction", verr.Field)
	assert.Equal(t, 0, backend.CallCount())
}

func TestStopAllSweepsEveryChannel(t *testing.T) {
	backend := NewMockBackend()
	backend.FailChannel(5, 1, "servo fault")
	d := NewDriver(backend)

	results := d.StopAll(context.Background(), 24)

	require.Len(t, results, 24)
	assert.False(t, results[5].OK())
	for ch, res := range results {
		if ch == 5 {
			continue
		}
		assert.True(t, res.OK(), "channel %d", ch)
	}

	calls := backend.Calls()
	require.Len(t, calls, 24, "one stop per channel despite the failure")
	for ch, call := range calls {
		assert.Equal(t, ch, call.Channel, "sweep must be in ascending order")
		assert.Equal(t, Standard.Neutral, call.Target)
	}
}

func TestStopAllDefaultWidth(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend)

	results := d.StopAll(context.Background(), 0)
	assert.Len(t, results, DefaultChannels)
	assert.Equal(t, DefaultChannels, backend.CallCount())
}

func TestMoveForStopsAfterDuration(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend)

	err := d.MoveFor(context.Background(), 3, Forward, 1.0, time.Millisecond)
	require.NoError(t, err)

	calls := backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, MockCall{Channel: 3, Target: 8000}, calls[0])
	assert.Equal(t, MockCall{Channel: 3, Target: 6000}, calls[1])
}

func TestMoveForStopsOnCancellation(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.MoveFor(ctx, 3, Forward, 1.0, time.Hour)
	require.ErrorIs(t, err, context.Canceled)

	calls := backend.Calls()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, MockCall{Channel: 3, Target: 6000}, last, "cancellation must still stop the servo")
}

func TestMoveForRejectsBadArguments(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend)

	var verr *ValidationError
	err := d.MoveFor(context.Background(), -2, Forward, 1.0, time.Millisecond)
	require.True(t, errors.As(err, &verr))

	err = d.MoveFor(context.Background(), 0, Direction(7), 1.0, time.Millisecond)
	require.True(t, errors.As(err, &verr))

	assert.Equal(t, 0, backend.CallCount(), "rejected arguments must not move or stop anything")
}

func TestStrictModeConvertsFailures(t *testing.T) {
	backend := NewMockBackend()
	backend.FailChannel(2, 9, "rejected by device")

	relaxed := NewDriver(backend)
	res, err := relaxed.SetTarget(context.Background(), 2, 6000)
	require.NoError(t, err)
	assert.Equal(t, 9, res.Status)

	strict := NewDriver(backend, WithStrict(true))
	res, err = strict.SetTarget(context.Background(), 2, 6000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 9")
	assert.Equal(t, 9, res.Status, "result still reports the raw outcome")
}

func TestChannelProfileOverride(t *testing.T) {
	backend := NewMockBackend()
	d := NewDriver(backend, WithChannelProfile(1, FS90R))
	ctx := context.Background()

	_, err := d.Move(ctx, 0, Forward, 1.0)
	require.NoError(t, err)
	_, err = d.Move(ctx, 1, Forward, 1.0)
	require.NoError(t, err)

	assert.Equal(t, []int{8000}, backend.TargetsFor(0))
	assert.Equal(t, []int{9200}, backend.TargetsFor(1))
}
