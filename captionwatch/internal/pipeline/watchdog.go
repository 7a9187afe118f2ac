package pipeline

import (
	"context"
	"time"

	"github.com/hazyhaar/captionbridge/captionwatch/caption"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/observer"
)

// reconcile is one watchdog pass: compare the container currently on the
// page with the bound one and re-converge.
func (p *Pipeline) reconcile(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, p.cfg.OpTimeout)
	defer cancel()

	found, err := p.cfg.Host.FindContainer(opCtx, p.cfg.Container)
	if err != nil {
		p.logger.Warn("pipeline: locate container", "error", err)
		found = nil
	}

	if found == nil {
		p.detach(opCtx, "container gone")
		return
	}

	if p.bound != nil && p.bound.container.Key() == found.Key() {
		p.release(opCtx, found)
		return
	}

	reason := "container found"
	if p.bound != nil {
		reason = "container replaced"
	}
	p.detach(opCtx, reason)

	token := p.cfg.NewToken()
	sub, err := p.cfg.Host.Observe(opCtx, found, token)
	if err != nil {
		p.logger.Warn("pipeline: observe container", "container", found.Key(), "error", err)
		p.release(opCtx, found)
		return
	}

	p.bound = &binding{container: found, sub: sub}
	p.state.Store(int32(Attached))
	p.binds.Add(1)
	p.logger.Info("pipeline: attached", "container", found.Key(), "reason", reason)

	if p.cfg.MutationOnly {
		return
	}

	// Captions already on screen at bind time never produce a mutation.
	html, err := found.HTML(opCtx)
	if err != nil {
		p.logger.Debug("pipeline: initial read", "error", err)
		return
	}
	p.offer(caption.Extract(html, p.cfg.Segment))
}

// detach tears down the live binding, if any. The binding is dropped even
// when the in-page disconnect fails: a dead page takes its observers with it.
func (p *Pipeline) detach(ctx context.Context, reason string) {
	if p.bound == nil {
		return
	}
	b := p.bound
	p.bound = nil
	p.state.Store(int32(Unattached))
	p.detaches.Add(1)

	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := b.sub.Disconnect(ctx); err != nil {
		p.logger.Debug("pipeline: disconnect", "token", b.sub.Token(), "error", err)
	}
	p.release(ctx, b.container)
	p.logger.Info("pipeline: detached", "container", b.container.Key(), "reason", reason)
}

func (p *Pipeline) release(ctx context.Context, c observer.Container) {
	if err := c.Release(ctx); err != nil {
		p.logger.Debug("pipeline: release container", "container", c.Key(), "error", err)
	}
}
