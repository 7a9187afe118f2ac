// Package forward delivers captions to the local consumer. Every
// Forwarder is one-way: Send never blocks on the network, returns nothing
// and never retries.
package forward

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Forwarder is a one-way caption sink.
type Forwarder interface {
	Send(text string)
}

// Func adapts an in-process function to a Forwarder. The function runs on
// the caller's goroutine and must not block.
type Func func(text string)

func (f Func) Send(text string) { f(text) }

// Multi fans out to every forwarder in order.
type Multi []Forwarder

func (m Multi) Send(text string) {
	for _, f := range m {
		f.Send(text)
	}
}

// Stdout writes each caption as one line to an io.Writer (default os.Stdout).
type Stdout struct {
	mu     sync.Mutex
	w      io.Writer
	logger *slog.Logger
}

// NewStdout creates a Stdout forwarder. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer, logger *slog.Logger) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stdout{w: w, logger: logger}
}

func (s *Stdout) Send(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.w, text); err != nil {
		s.logger.Debug("forward: stdout write failed", "error", err)
	}
}
