package detection

import "sync"

// Static replays scripted detection results for tests. Each call to
// Detect consumes one entry; after the script runs out it returns the
// last entry forever.
type Static struct {
	mu      sync.Mutex
	script  [][]Box
	errs    []error
	pos     int
	detects int
	closed  bool
}

// NewStatic builds a detector that replays the given box slices.
func NewStatic(script ...[]Box) *Static {
	return &Static{script: script}
}

// FailWith makes the detector return errors, one per call, before any
// scripted boxes.
func (s *Static) FailWith(errs ...error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, errs...)
	return s
}

// Detect returns the next scripted result.
func (s *Static) Detect(_ []byte) ([]Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detects++

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.script) == 0 {
		return nil, nil
	}
	if s.pos >= len(s.script) {
		return s.script[len(s.script)-1], nil
	}
	boxes := s.script[s.pos]
	s.pos++
	return boxes, nil
}

// Detects returns how many times Detect was called.
func (s *Static) Detects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detects
}

// Close records the call.
func (s *Static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
