package camera

import (
	"context"
	"io"
	"sync"
)

// MockSource replays scripted frames for tests. Once the script is
// exhausted it keeps returning the final entry, or io.EOF when the
// script ends with ErrAfter.
type MockSource struct {
	mu       sync.Mutex
	frames   []*Frame
	errAfter bool
	pos      int
	captures int
	closeCnt int
}

// NewMockSource builds a source that replays the given frames in order.
func NewMockSource(frames ...*Frame) *MockSource {
	return &MockSource{frames: frames}
}

// ErrAfter makes Capture fail with io.EOF after the script runs out,
// instead of repeating the last frame.
func (m *MockSource) ErrAfter() *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errAfter = true
	return m
}

// Capture returns the next scripted frame.
func (m *MockSource) Capture(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures++

	if len(m.frames) == 0 {
		return nil, io.EOF
	}
	if m.pos >= len(m.frames) {
		if m.errAfter {
			return nil, io.EOF
		}
		return m.frames[len(m.frames)-1], nil
	}
	f := m.frames[m.pos]
	m.pos++
	return f, nil
}

// Captures returns how many times Capture was called.
func (m *MockSource) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// Close records the call.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCnt++
	return nil
}

// Closed reports whether Close was called at least once.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCnt > 0
}
