package maestro

import (
	"context"
	"sync"
)

// MockCall records one Send invocation.
type MockCall struct {
	Channel int
	Target  int
}

// MockBackend is an in-memory Backend for tests and dry runs. It
// records every call and can script per-channel results.
type MockBackend struct {
	mu      sync.Mutex
	calls   []MockCall
	results map[int]CommandResult
	errs    map[int]error
	closed  bool
}

// NewMockBackend builds a backend where every command succeeds.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		results: make(map[int]CommandResult),
		errs:    make(map[int]error),
	}
}

// FailChannel scripts a failure result for one channel.
func (m *MockBackend) FailChannel(channel, status int, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[channel] = CommandResult{Status: status, Output: output}
}

// ErrChannel scripts a Go error (cancellation-style) for one channel.
func (m *MockBackend) ErrChannel(channel int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[channel] = err
}

// Send records the call and returns the scripted result, default OK.
func (m *MockBackend) Send(_ context.Context, channel, target int) (CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Channel: channel, Target: target})
	if err, ok := m.errs[channel]; ok {
		return CommandResult{Status: 1, Output: err.Error()}, err
	}
	if res, ok := m.results[channel]; ok {
		return res, nil
	}
	return CommandResult{Status: StatusOK}, nil
}

// Close marks the backend closed.
func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockBackend) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Calls returns a copy of every recorded call in order.
func (m *MockBackend) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Send invocations.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// TargetsFor returns the target sequence sent to one channel.
func (m *MockBackend) TargetsFor(channel int) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, c := range m.calls {
		if c.Channel == channel {
			out = append(out, c.Target)
		}
	}
	return out
}

// Reset clears recorded calls but keeps scripted results.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
