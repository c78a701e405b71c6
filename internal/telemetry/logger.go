// Package telemetry builds the structured logger shared by every component.
package telemetry

import (
	"io"
	"os"
	"sync"

	clog "github.com/charmbracelet/log"
)

const prefix = "lovevirus"

// Logger writes JSON lines to a file. Without a path everything is discarded.
type Logger struct {
	*clog.Logger
	w io.WriteCloser
}

func New(path string, debug bool) (*Logger, error) {
	var w io.WriteCloser = nopCloser{Writer: io.Discard}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = &syncWriter{w: f}
	}
	level := clog.InfoLevel
	if debug {
		level = clog.DebugLevel
	}
	l := clog.NewWithOptions(w, clog.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: true,
		Formatter:       clog.JSONFormatter,
	})
	return &Logger{Logger: l, w: w}, nil
}

// Discard is a logger that drops every entry.
func Discard() *Logger {
	l, _ := New("", false)
	return l
}

func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// syncWriter serialises writes from the UI, animator and headless goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
