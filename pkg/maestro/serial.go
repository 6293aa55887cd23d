package maestro

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Compact protocol command bytes (Pololu Maestro controller guide §5.e).
const (
	cmdSetTarget      = 0x84
	cmdGetPosition    = 0x90
	cmdGetMovingState = 0x93
)

// serialPort is the slice of go.bug.st/serial.Port the backend needs,
// kept narrow so tests can substitute an in-memory pipe.
type serialPort interface {
	io.ReadWriter
	io.Closer
}

// Serial is a Backend over a persistent serial connection speaking the
// Maestro compact protocol. Unlike UscCmd there is no process per
// command; a write either lands on the port or fails, and failures are
// reported as status-1 results.
type Serial struct {
	mu     sync.Mutex
	port   serialPort
	name   string
	closed bool
	logger *slog.Logger
}

// OpenSerial opens the Maestro's command port (the first of the two
// ttyACM devices it exposes). A port that cannot be opened is a
// construction-time error; nothing is retried later.
func OpenSerial(portName string, baud int) (*Serial, error) {
	if baud <= 0 {
		baud = 9600
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open maestro port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("configure maestro port %s: %w", portName, err)
	}
	return newSerial(port, portName), nil
}

func newSerial(port serialPort, name string) *Serial {
	return &Serial{
		port:   port,
		name:   name,
		logger: slog.Default().With("component", "maestro.serial", "port", name),
	}
}

// Send writes the 4-byte compact-protocol set-target frame.
func (s *Serial) Send(ctx context.Context, channel, target int) (CommandResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return CommandResult{Status: 1, Output: "canceled", Duration: time.Since(start)}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := CommandResult{Status: StatusOK}
	if s.closed {
		res.Status = 1
		res.Output = "port closed"
		res.Duration = time.Since(start)
		return res, nil
	}

	frame := []byte{cmdSetTarget, byte(channel), byte(target & 0x7F), byte((target >> 7) & 0x7F)}
	n, err := s.port.Write(frame)
	switch {
	case err != nil:
		res.Status = 1
		res.Output = err.Error()
	case n != len(frame):
		res.Status = 1
		res.Output = fmt.Sprintf("short write: %d of %d bytes", n, len(frame))
	}
	res.Duration = time.Since(start)

	s.logger.Debug("serial send",
		"channel", channel, "target", target, "status", res.Status)
	return res, nil
}

// GetPosition reads back a channel's current target in quarter-microseconds.
func (s *Serial) GetPosition(ctx context.Context, channel int) (int, error) {
	if channel < 0 {
		return 0, errInvalid("channel", channel, "must be >= 0")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("maestro port %s: %w", s.name, ErrClosed)
	}

	if _, err := s.port.Write([]byte{cmdGetPosition, byte(channel)}); err != nil {
		return 0, fmt.Errorf("get position on channel %d: %w", channel, err)
	}
	buf := make([]byte, 2)
	if _, err := io.ReadFull(s.port, buf); err != nil {
		return 0, fmt.Errorf("get position reply on channel %d: %w", channel, err)
	}
	return int(buf[0]) | int(buf[1])<<8, nil
}

// IsMoving reports whether any servo is still traveling toward its
// target. Mini Maestro firmware only; Micros answer nothing and the
// read times out.
func (s *Serial) IsMoving(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, fmt.Errorf("maestro port %s: %w", s.name, ErrClosed)
	}

	if _, err := s.port.Write([]byte{cmdGetMovingState}); err != nil {
		return false, fmt.Errorf("get moving state: %w", err)
	}
	buf := make([]byte, 1)
	if _, err := io.ReadFull(s.port, buf); err != nil {
		return false, fmt.Errorf("get moving state reply: %w", err)
	}
	return buf[0] != 0, nil
}

// Close releases the port. Subsequent sends report status-1 results.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
