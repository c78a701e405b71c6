package term

import "sync"

const defaultLogMax = 10000

// Log is the in-memory Output the UI displays. Oldest lines are dropped past
// the configured bound.
type Log struct {
	mu      sync.Mutex
	lines   []Line
	max     int
	version uint64
	dirty   func()
}

func NewLog(max int) *Log {
	if max <= 0 {
		max = defaultLogMax
	}
	return &Log{max: max}
}

// SetDirty updates the callback run after every change.
func (l *Log) SetDirty(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirty = fn
}

func (l *Log) Append(line Line) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	if over := len(l.lines) - l.max; over > 0 {
		l.lines = append(l.lines[:0:0], l.lines[over:]...)
	}
	l.version++
	dirty := l.dirty
	l.mu.Unlock()
	if dirty != nil {
		dirty()
	}
}

func (l *Log) Clear() {
	l.mu.Lock()
	l.lines = nil
	l.version++
	dirty := l.dirty
	l.mu.Unlock()
	if dirty != nil {
		dirty()
	}
}

// Lines returns a copy of the current lines.
func (l *Log) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Line(nil), l.lines...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// Version increases on every Append or Clear.
func (l *Log) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}
