package captionwatch

import (
	"io"
	"log/slog"

	"github.com/hazyhaar/captionbridge/captionwatch/internal/forward"
)

// Forwarder is a one-way caption sink.
type Forwarder = forward.Forwarder

// ForwardFunc adapts an in-process function to a Forwarder.
type ForwardFunc = forward.Func

// NewStdoutForwarder writes one caption per line to w (os.Stdout if nil).
func NewStdoutForwarder(w io.Writer, logger *slog.Logger) Forwarder {
	return forward.NewStdout(w, logger)
}
