// Package pipeline runs the caption bridge: a single goroutine that keeps
// exactly one MutationObserver bound to the current caption container and
// turns its notifications into forwarded captions.
//
// Two triggers drive the loop: mutation notifications from the host and a
// fixed watchdog tick. Both are handled on the loop goroutine, which owns
// the deduplicator and the binding, so neither needs a lock.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/captionbridge/captionwatch/caption"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/forward"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/observer"
)

// DefaultInterval is the watchdog period.
const DefaultInterval = time.Second

// State is the watchdog state.
type State int32

const (
	Unattached State = iota
	Attached
)

func (s State) String() string {
	switch s {
	case Attached:
		return "attached"
	default:
		return "unattached"
	}
}

// Config for creating a Pipeline.
type Config struct {
	Host      observer.Host
	Forwarder forward.Forwarder

	// Container locates the caption surface. Default: caption.DefaultContainerSelector.
	Container caption.Selector
	// Segment matches the text-bearing nodes inside it. Default: caption.DefaultSegmentSelector.
	Segment caption.Selector
	// Interval is the watchdog period. Default: 1s.
	Interval time.Duration
	// OpTimeout bounds each host call made by the watchdog. Default: 5s.
	OpTimeout time.Duration

	// MutationOnly skips the read at bind time: only mutations observed
	// after binding are extracted.
	MutationOnly bool

	// NewToken names subscriptions. Default: uuid.NewString.
	NewToken func() string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Container.IsZero() {
		c.Container = caption.MustParseSelector(caption.DefaultContainerSelector)
	}
	if c.Segment.IsZero() {
		c.Segment = caption.MustParseSelector(caption.DefaultSegmentSelector)
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = 5 * time.Second
	}
	if c.NewToken == nil {
		c.NewToken = uuid.NewString
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// binding is the live attachment: one container, one subscription.
type binding struct {
	container observer.Container
	sub       observer.Subscription
}

// Stats are counters safe to read from any goroutine.
type Stats struct {
	Forwarded     uint64
	Suppressed    uint64
	Stale         uint64
	Binds         uint64
	Detaches      uint64
	State         State
	LastForwarded string
}

// Pipeline is one monitoring session. Construct one per page and discard
// it when the page goes away.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	dedup caption.Deduplicator
	bound *binding

	forwarded  atomic.Uint64
	suppressed atomic.Uint64
	stale      atomic.Uint64
	binds      atomic.Uint64
	detaches   atomic.Uint64
	state      atomic.Int32
	last       atomic.Value // string
}

// New creates a Pipeline. Host and Forwarder are required.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg, logger: cfg.Logger}
}

// Run drives the pipeline until ctx is cancelled, then tears down the
// binding. The first watchdog pass runs immediately. Run always returns
// ctx.Err().
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), p.cfg.OpTimeout)
		defer cancel()
		p.detach(dctx, "shutdown")
	}()

	p.reconcile(ctx)

	notes := p.cfg.Host.Notifications()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			p.handle(n)

		case <-ticker.C:
			p.reconcile(ctx)
		}
	}
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	last, _ := p.last.Load().(string)
	return Stats{
		Forwarded:     p.forwarded.Load(),
		Suppressed:    p.suppressed.Load(),
		Stale:         p.stale.Load(),
		Binds:         p.binds.Load(),
		Detaches:      p.detaches.Load(),
		State:         State(p.state.Load()),
		LastForwarded: last,
	}
}

// handle processes one mutation notification. Notifications from any
// subscription other than the live one are dropped.
func (p *Pipeline) handle(n observer.Notification) {
	if p.bound == nil || n.Token != p.bound.sub.Token() {
		p.stale.Add(1)
		return
	}
	p.offer(caption.Extract(n.HTML, p.cfg.Segment))
}

// offer runs the dedup gate and forwards on success.
func (p *Pipeline) offer(text string) {
	if !p.dedup.ShouldForward(text) {
		if text != "" {
			p.suppressed.Add(1)
		}
		return
	}
	p.last.Store(text)
	p.forwarded.Add(1)
	p.logger.Debug("pipeline: forward", "text", text)
	p.cfg.Forwarder.Send(text)
}
