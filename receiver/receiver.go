// Package receiver is a stand-in for the local caption consumer. It accepts
// the bridge's plain-text POSTs so the bridge can be exercised end to end
// without the real consumer running.
package receiver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// DefaultAddr is the consumer's loopback address.
const DefaultAddr = "127.0.0.1:8765"

// maxBody caps a single caption body. Larger bodies get 413.
const maxBody = 64 << 10

// New returns a handler serving POST /caption. Non-empty bodies, decoded
// as UTF-8 with invalid bytes dropped and trimmed, are passed to onText.
// Every accepted request gets 204, whether or not it carried text.
func New(onText func(text string), logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Post("/caption", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			logger.Debug("receiver: read body", "error", err)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		text := strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
		if text != "" {
			onText(text)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return r
}
