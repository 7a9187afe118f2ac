package observer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/captionbridge/captionwatch/caption"
)

//go:embed observe.js
var observeJS string

const disconnectJS = `(token) => {
	const reg = window.__captionbridge_observers;
	if (reg && reg[token]) {
		reg[token].disconnect();
		delete reg[token];
	}
}`

// BindingName is the Runtime binding the injected observers call.
const BindingName = "__captionbridge"

// RodHost drives a single rod page.
type RodHost struct {
	page   *rod.Page
	logger *slog.Logger
	notes  chan Notification

	ctx    context.Context
	cancel context.CancelFunc
	start  sync.Once
	err    error
}

// NewRodHost wraps page. Call Start before use.
func NewRodHost(page *rod.Page, logger *slog.Logger) *RodHost {
	if logger == nil {
		logger = slog.Default()
	}
	return &RodHost{
		page:   page,
		logger: logger,
		notes:  make(chan Notification, 256),
	}
}

// Start registers the Runtime binding and begins listening for calls.
// The binding survives navigations, so Start runs once per page.
func (h *RodHost) Start(ctx context.Context) error {
	h.start.Do(func() {
		h.ctx, h.cancel = context.WithCancel(ctx)

		if err := (proto.RuntimeEnable{}).Call(h.page); err != nil {
			h.err = fmt.Errorf("observer: runtime enable: %w", err)
			return
		}
		if err := (proto.RuntimeAddBinding{Name: BindingName}).Call(h.page); err != nil {
			h.logger.Warn("observer: addBinding failed (may already exist)", "error", err)
		}

		go h.listenBinding()
	})
	return h.err
}

// Close stops listening. Observers left in the page keep calling the
// binding, but nothing is delivered any more.
func (h *RodHost) Close() {
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *RodHost) Notifications() <-chan Notification { return h.notes }

func (h *RodHost) FindContainer(ctx context.Context, sel caption.Selector) (Container, error) {
	els, err := h.page.Context(ctx).Elements(sel.String())
	if err != nil {
		return nil, fmt.Errorf("observer: query %q: %w", sel, err)
	}
	if len(els) == 0 {
		return nil, nil
	}

	el := els[0]
	for _, extra := range els[1:] {
		if err := extra.Release(); err != nil {
			h.logger.Debug("observer: release extra match", "error", err)
		}
	}

	node, err := el.Describe(0, false)
	if err != nil {
		_ = el.Release()
		return nil, fmt.Errorf("observer: describe container: %w", err)
	}
	return &rodContainer{
		el:  el,
		key: strconv.Itoa(int(node.BackendNodeID)),
	}, nil
}

func (h *RodHost) Observe(ctx context.Context, c Container, token string) (Subscription, error) {
	rc, ok := c.(*rodContainer)
	if !ok {
		return nil, fmt.Errorf("observer: container %T not from this host", c)
	}
	if _, err := rc.el.Context(ctx).Eval(observeJS, BindingName, token); err != nil {
		return nil, fmt.Errorf("observer: install mutation observer: %w", err)
	}
	h.logger.Debug("observer: attached", "container", rc.key, "token", token)
	return &rodSubscription{page: h.page, token: token}, nil
}

// listenBinding receives calls from the injected observers via
// Runtime.bindingCalled and queues them as notifications.
func (h *RodHost) listenBinding() {
	h.page.Context(h.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != BindingName {
			return
		}

		var payload struct {
			Token string `json:"token"`
			HTML  string `json:"html"`
		}
		if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
			h.logger.Warn("observer: parse binding payload", "error", err)
			return
		}

		h.push(Notification{Token: payload.Token, HTML: []byte(payload.HTML)})
	})()
}

// push never blocks. When the queue is full the oldest notification is
// dropped: only the latest container state matters.
func (h *RodHost) push(n Notification) {
	select {
	case h.notes <- n:
		return
	default:
	}
	select {
	case <-h.notes:
	default:
	}
	select {
	case h.notes <- n:
	default:
		h.logger.Debug("observer: notification dropped", "token", n.Token)
	}
}

type rodContainer struct {
	el  *rod.Element
	key string
}

func (c *rodContainer) Key() string { return c.key }

func (c *rodContainer) HTML(ctx context.Context) ([]byte, error) {
	s, err := c.el.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("observer: container html: %w", err)
	}
	return []byte(s), nil
}

func (c *rodContainer) Release(ctx context.Context) error {
	if err := c.el.Context(ctx).Release(); err != nil {
		return fmt.Errorf("observer: release container %s: %w", c.key, err)
	}
	return nil
}

type rodSubscription struct {
	page  *rod.Page
	token string
}

func (s *rodSubscription) Token() string { return s.token }

func (s *rodSubscription) Disconnect(ctx context.Context) error {
	if _, err := s.page.Context(ctx).Eval(disconnectJS, s.token); err != nil {
		return fmt.Errorf("observer: disconnect %s: %w", s.token, err)
	}
	return nil
}
