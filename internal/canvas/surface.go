// Package canvas provides the text drawing surface animators paint into and
// the UI reads from.
package canvas

import (
	"context"
	"sync"
)

type Surface struct {
	mu     sync.Mutex
	frame  string
	frames uint64
	dirty  func()
	first  chan struct{}
}

func NewSurface() *Surface {
	return &Surface{first: make(chan struct{})}
}

// SetDirty updates the callback run after every new frame.
func (s *Surface) SetDirty(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = fn
}

// Set replaces the current frame.
func (s *Surface) Set(frame string) {
	s.mu.Lock()
	s.frame = frame
	s.frames++
	if s.frames == 1 {
		close(s.first)
	}
	dirty := s.dirty
	s.mu.Unlock()
	if dirty != nil {
		dirty()
	}
}

// Render returns the latest frame, or "" before anything was drawn.
func (s *Surface) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Surface) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// WaitFrame blocks until the first frame is drawn or ctx ends.
func (s *Surface) WaitFrame(ctx context.Context) bool {
	select {
	case <-s.first:
		return true
	case <-ctx.Done():
		return false
	}
}
