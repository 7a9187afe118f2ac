// Package captionwatch bridges live video captions from a browser page to a
// local consumer. It drives Chrome as a disposable component, keeps one
// MutationObserver bound to the player's caption container, and forwards
// every distinct utterance as a plain-text POST.
//
// captionwatch observes and forwards; it does not interpret. Translation,
// buffering and display belong to the consumer.
package captionwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/gofrs/flock"

	"github.com/hazyhaar/captionbridge/captionwatch/caption"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/browser"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/config"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/forward"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/observer"
	"github.com/hazyhaar/captionbridge/captionwatch/internal/pipeline"
)

// ErrLocked is returned by Run when another bridge holds the lock file.
var ErrLocked = errors.New("captionwatch: another bridge is already running")

// Watcher is the top-level orchestrator: browser, page, observer host,
// pipeline and forwarders. Create one per bridge session.
type Watcher struct {
	cfg    *config.Config
	logger *slog.Logger
	extra  []forward.Forwarder

	pipe atomic.Pointer[pipeline.Pipeline]
}

// New creates a Watcher from configuration. Extra forwarders receive every
// caption alongside the HTTP endpoint.
func New(cfg *config.Config, logger *slog.Logger, extra ...forward.Forwarder) *Watcher {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, logger: logger, extra: extra}
}

// Run bridges captions until ctx is cancelled. It returns nil on a clean
// shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	containerSel, err := caption.ParseSelector(w.cfg.Caption.Container)
	if err != nil {
		return fmt.Errorf("captionwatch: container selector: %w", err)
	}
	segmentSel, err := caption.ParseSelector(w.cfg.Caption.Segment)
	if err != nil {
		return fmt.Errorf("captionwatch: segment selector: %w", err)
	}

	unlock, err := w.lock()
	if err != nil {
		return err
	}
	defer unlock()

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        w.cfg.Browser.Remote,
		Headless:         w.cfg.Browser.Headless,
		Bin:              w.cfg.Browser.Bin,
		UserDataDir:      w.cfg.Browser.UserDataDir,
		XvfbDisplay:      w.cfg.Browser.XvfbDisplay,
		ResourceBlocking: w.cfg.Browser.ResourceBlocking,
		Logger:           w.logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("captionwatch: start browser: %w", err)
	}
	defer mgr.Close()

	page, err := w.page(ctx, mgr)
	if err != nil {
		return err
	}

	host := observer.NewRodHost(page, w.logger)
	if err := host.Start(ctx); err != nil {
		return fmt.Errorf("captionwatch: start observer host: %w", err)
	}
	defer host.Close()

	httpFwd := forward.NewHTTP(w.cfg.Endpoint.URL,
		forward.WithTimeout(w.cfg.Endpoint.Timeout),
		forward.WithLogger(w.logger))
	defer httpFwd.Close()

	sinks := forward.Multi{httpFwd}
	sinks = append(sinks, w.extra...)
	if w.cfg.Endpoint.Stdout {
		sinks = append(sinks, forward.NewStdout(nil, w.logger))
	}

	pipe := pipeline.New(pipeline.Config{
		Host:      host,
		Forwarder: sinks,
		Container: containerSel,
		Segment:   segmentSel,
		Interval:  w.cfg.Watchdog.Interval,
		OpTimeout: w.cfg.Watchdog.OpTimeout,
		Logger:    w.logger,

		MutationOnly: w.cfg.Watchdog.MutationOnly,
	})

	w.logger.Info("captionwatch: bridging captions",
		"endpoint", httpFwd.URL(),
		"container", containerSel.String(),
		"interval", w.cfg.Watchdog.Interval)

	w.pipe.Store(pipe)

	err = pipe.Run(ctx)
	st := pipe.Stats()
	w.logger.Info("captionwatch: stopped",
		"forwarded", st.Forwarded, "suppressed", st.Suppressed,
		"binds", st.Binds, "detaches", st.Detaches)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stats returns the pipeline counters, or zero before Run has started.
func (w *Watcher) Stats() pipeline.Stats {
	pipe := w.pipe.Load()
	if pipe == nil {
		return pipeline.Stats{}
	}
	return pipe.Stats()
}

func (w *Watcher) page(ctx context.Context, mgr *browser.Manager) (*rod.Page, error) {
	if w.cfg.Page.URL != "" {
		p, err := mgr.OpenPage(ctx, w.cfg.Page.URL)
		if err != nil {
			return nil, fmt.Errorf("captionwatch: open page: %w", err)
		}
		return p, nil
	}

	pattern, err := browser.CompilePattern(w.cfg.Page.Match)
	if err != nil {
		return nil, fmt.Errorf("captionwatch: %w", err)
	}
	findCtx, cancel := context.WithTimeout(ctx, w.cfg.Page.WaitTimeout)
	defer cancel()

	p, err := mgr.FindPage(findCtx, pattern)
	if err != nil {
		return nil, fmt.Errorf("captionwatch: find page: %w", err)
	}
	return p, nil
}

// lock takes the single-instance lock when one is configured.
func (w *Watcher) lock() (func(), error) {
	if w.cfg.LockFile == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(w.cfg.LockFile), 0o755); err != nil {
		return nil, fmt.Errorf("captionwatch: lock dir: %w", err)
	}

	fl := flock.New(w.cfg.LockFile)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("captionwatch: acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			w.logger.Warn("captionwatch: release lock", "error", err)
		}
	}, nil
}
