package main

import (
	"context"
	"testing"

	"github.com/perchbot/go-gimbal/pkg/maestro"
)

func consoleState() (*cliState, *maestro.MockBackend) {
	mock := maestro.NewMockBackend()
	return &cliState{driver: maestro.NewDriver(mock)}, mock
}

func TestDispatchQuit(t *testing.T) {
	st, _ := consoleState()
	ctx := context.Background()

	for _, line := range []string{"quit", "exit"} {
		if !dispatch(ctx, st, line) {
			t.Errorf("dispatch(%q) = false, want quit", line)
		}
	}
	for _, line := range []string{"", "   ", "help", "bogus"} {
		if dispatch(ctx, st, line) {
			t.Errorf("dispatch(%q) = true, want session to continue", line)
		}
	}
}

func TestDispatchRotate(t *testing.T) {
	st, mock := consoleState()
	ctx := context.Background()

	// Standard profile: neutral 6000, full forward 8000, full reverse 4000
	cases := []struct {
		line string
		want int
	}{
		{"rotate 2 0.5", 7000},
		{"rotate 2 -0.5", 5000},
		{"rotate 2 0", 6000},
		{"rotate 2 1.5", 8000}, // clamped to full speed
	}
	for _, tc := range cases {
		mock.Reset()
		dispatch(ctx, st, tc.line)
		targets := mock.TargetsFor(2)
		if len(targets) != 1 || targets[0] != tc.want {
			t.Errorf("dispatch(%q) sent %v, want [%d]", tc.line, targets, tc.want)
		}
	}
}

func TestDispatchMalformedInputSendsNothing(t *testing.T) {
	st, mock := consoleState()
	ctx := context.Background()

	lines := []string{
		"rotate",
		"rotate 1",
		"rotate x 0.5",
		"rotate 1 fast",
		"stop",
		"stop one",
		"test",
		"stop_all many",
		"launch 1",
	}
	for _, line := range lines {
		if dispatch(ctx, st, line) {
			t.Errorf("dispatch(%q) quit the session", line)
		}
	}
	if n := mock.CallCount(); n != 0 {
		t.Fatalf("malformed input reached the backend: %d calls", n)
	}
}

func TestDispatchStopAll(t *testing.T) {
	st, mock := consoleState()
	ctx := context.Background()

	dispatch(ctx, st, "stop_all")
	if n := mock.CallCount(); n != 24 {
		t.Fatalf("stop_all sent %d commands, want 24", n)
	}
	for _, call := range mock.Calls() {
		if call.Target != 6000 {
			t.Fatalf("stop_all sent target %d to channel %d, want 6000", call.Target, call.Channel)
		}
	}

	mock.Reset()
	dispatch(ctx, st, "stop_all 6")
	if n := mock.CallCount(); n != 6 {
		t.Fatalf("stop_all 6 sent %d commands, want 6", n)
	}
}

func TestDispatchStatusNeedsSerial(t *testing.T) {
	st, mock := consoleState()

	if dispatch(context.Background(), st, "status 0") {
		t.Fatal("status error quit the session")
	}
	if n := mock.CallCount(); n != 0 {
		t.Fatalf("status without serial reached the backend: %d calls", n)
	}
}

func TestDispatchTestSweepStopsOnCancellation(t *testing.T) {
	st, mock := consoleState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if dispatch(ctx, st, "test 3") {
		t.Fatal("cancelled sweep quit the session")
	}

	// First move goes out, the hold sees the dead context, and the
	// deferred park still lands.
	targets := mock.TargetsFor(3)
	if len(targets) != 2 || targets[0] != 7000 || targets[1] != 6000 {
		t.Fatalf("sweep sent %v, want [7000 6000]", targets)
	}
}
