package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hazyhaar/captionbridge/captionwatch/caption"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/observer"
)

// fakeHost is an in-memory page with at most one caption container.
type fakeHost struct {
	mu         sync.Mutex
	current    *fakeContainer
	subs       map[string]*fakeSub
	notes      chan observer.Notification
	findErr    error
	observeErr error
	nextKey    int
	handles    int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		subs:  make(map[string]*fakeSub),
		notes: make(chan observer.Notification, 64),
	}
}

type fakeContainer struct {
	key  string
	mu   sync.Mutex
	html string
}

func (c *fakeContainer) Key() string { return c.key }

func (c *fakeContainer) HTML(context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return []byte(c.html), nil
}

// fakeHandle is one lookup's reference to a container, like a CDP remote
// object: every FindContainer hands out a new one.
type fakeHandle struct {
	*fakeContainer
	host     *fakeHost
	released bool
}

func (hd *fakeHandle) Release(context.Context) error {
	hd.host.mu.Lock()
	defer hd.host.mu.Unlock()
	if !hd.released {
		hd.released = true
		hd.host.handles--
	}
	return nil
}

type fakeSub struct {
	host      *fakeHost
	token     string
	container *fakeContainer
	live      bool
}

func (s *fakeSub) Token() string { return s.token }

func (s *fakeSub) Disconnect(context.Context) error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	s.live = false
	return nil
}

func (h *fakeHost) FindContainer(_ context.Context, sel caption.Selector) (observer.Container, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.findErr != nil {
		return nil, h.findErr
	}
	if h.current == nil {
		return nil, nil
	}
	h.handles++
	return &fakeHandle{fakeContainer: h.current, host: h}, nil
}

func (h *fakeHost) Observe(_ context.Context, c observer.Container, token string) (observer.Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.observeErr != nil {
		return nil, h.observeErr
	}
	hd, ok := c.(*fakeHandle)
	if !ok {
		return nil, errors.New("foreign container")
	}
	fc := hd.fakeContainer
	s := &fakeSub{host: h, token: token, container: fc, live: true}
	h.subs[token] = s
	return s, nil
}

func (h *fakeHost) Notifications() <-chan observer.Notification { return h.notes }

// insert replaces the page's container with a brand-new element.
func (h *fakeHost) insert(html string) *fakeContainer {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextKey++
	h.current = &fakeContainer{key: fmt.Sprintf("node-%d", h.nextKey), html: html}
	return h.current
}

func (h *fakeHost) remove() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = nil
}

// mutate changes c's markup and, like a MutationObserver, notifies every
// live subscription on it. It returns the notifications it produced.
func (h *fakeHost) mutate(c *fakeContainer, html string) []observer.Notification {
	c.mu.Lock()
	c.html = html
	c.mu.Unlock()
	return h.touch(c)
}

// touch notifies without changing text, as an attribute mutation would.
func (h *fakeHost) touch(c *fakeContainer) []observer.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.mu.Lock()
	html := c.html
	c.mu.Unlock()

	var out []observer.Notification
	for _, s := range h.subs {
		if s.live && s.container == c {
			n := observer.Notification{Token: s.token, HTML: []byte(html)}
			out = append(out, n)
			h.notes <- n
		}
	}
	return out
}

// openHandles counts container handles not yet released.
func (h *fakeHost) openHandles() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handles
}

func (h *fakeHost) liveSubs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, s := range h.subs {
		if s.live {
			n++
		}
	}
	return n
}

// recorder is a Forwarder that remembers every send.
type recorder struct {
	mu   sync.Mutex
	sent []string
	ch   chan string
}

func newRecorder() *recorder { return &recorder{ch: make(chan string, 64)} }

func (r *recorder) Send(text string) {
	r.mu.Lock()
	r.sent = append(r.sent, text)
	r.mu.Unlock()
	r.ch <- text
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func segments(texts ...string) string {
	s := `<div class="ytp-caption-window-container"><div class="caption-window">`
	for _, t := range texts {
		s += `<span class="ytp-caption-segment">` + t + `</span>`
	}
	return s + `</div></div>`
}
