package forward

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultEndpoint is where the local consumer listens.
const DefaultEndpoint = "http://127.0.0.1:8765/caption"

// ContentType is the header sent with every caption body.
const ContentType = "text/plain"

// DefaultQueueSize bounds the captions waiting for the sender.
const DefaultQueueSize = 64

// HTTP POSTs each caption as a plain-text body. A single sender goroutine
// drains a FIFO queue, so requests leave in Send order. The outcome is
// logged at debug level and otherwise ignored.
type HTTP struct {
	url    string
	client *http.Client
	logger *slog.Logger
	queue  chan string
	size   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// HTTPOption configures an HTTP forwarder.
type HTTPOption func(*HTTP)

// WithClient replaces the default http.Client (10s timeout).
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.client = &http.Client{Timeout: d}
		}
	}
}

// WithQueueSize sets how many captions may wait behind a slow consumer.
func WithQueueSize(n int) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.size = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTP) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHTTP creates an HTTP forwarder targeting url. An empty url means
// DefaultEndpoint.
func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	if url == "" {
		url = DefaultEndpoint
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &HTTP{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.Default(),
		size:   DefaultQueueSize,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, o := range opts {
		o(h)
	}
	h.queue = make(chan string, h.size)

	h.wg.Add(1)
	go h.run()
	return h
}

// URL returns the endpoint captions are posted to.
func (h *HTTP) URL() string { return h.url }

// Send queues one POST and returns immediately. When the queue is full
// the oldest waiting caption is dropped.
func (h *HTTP) Send(text string) {
	if h.ctx.Err() != nil {
		return
	}
	h.enqueue(text)
}

func (h *HTTP) enqueue(text string) {
	select {
	case h.queue <- text:
		return
	default:
	}
	select {
	case old := <-h.queue:
		h.logger.Debug("forward: queue full, dropping caption", "text", old)
	default:
	}
	select {
	case h.queue <- text:
	default:
		h.logger.Debug("forward: caption dropped", "text", text)
	}
}

// Close abandons the in-flight request, discards queued captions and
// waits for the sender to exit.
func (h *HTTP) Close() error {
	h.cancel()
	h.wg.Wait()
	for {
		select {
		case <-h.queue:
		default:
			return nil
		}
	}
}

func (h *HTTP) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case text := <-h.queue:
			if h.ctx.Err() != nil {
				return
			}
			h.post(text)
		}
	}
}

func (h *HTTP) post(text string) {
	req, err := http.NewRequestWithContext(h.ctx, http.MethodPost, h.url, strings.NewReader(text))
	if err != nil {
		h.logger.Debug("forward: new request", "error", err)
		return
	}
	req.Header.Set("Content-Type", ContentType)

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Debug("forward: request failed", "url", h.url, "error", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.logger.Debug("forward: bad status", "url", h.url, "status", resp.StatusCode)
	}
}
