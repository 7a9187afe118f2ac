package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// Pattern is a URL match pattern where * stands for any run of characters,
// e.g. "https://www.youtube.com/*".
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// CompilePattern compiles a match pattern.
func CompilePattern(p string) (Pattern, error) {
	if p == "" {
		return Pattern{}, fmt.Errorf("browser: empty match pattern")
	}
	parts := strings.Split(p, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return Pattern{}, fmt.Errorf("browser: compile pattern %q: %w", p, err)
	}
	return Pattern{raw: p, re: re}, nil
}

// Match reports whether url matches the pattern.
func (p Pattern) Match(url string) bool {
	return p.re != nil && p.re.MatchString(url)
}

func (p Pattern) String() string { return p.raw }

// FindPage returns the first open page whose URL matches, polling every
// second until ctx is done.
func (m *Manager) FindPage(ctx context.Context, pattern Pattern) (*rod.Page, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	logged := false
	for {
		pages, err := b.Pages()
		if err != nil {
			return nil, fmt.Errorf("browser: list pages: %w", err)
		}
		for _, p := range pages {
			info, err := p.Info()
			if err != nil {
				continue
			}
			if pattern.Match(info.URL) {
				m.cfg.Logger.Info("browser: attached to page", "url", info.URL, "title", info.Title)
				return p, nil
			}
		}
		if !logged {
			m.cfg.Logger.Info("browser: waiting for a matching page", "pattern", pattern.String())
			logged = true
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("browser: no page matching %s: %w", pattern, ctx.Err())
		case <-ticker.C:
		}
	}
}

// OpenPage creates a new stealth tab, applies resource blocking and
// navigates to pageURL.
func (m *Manager) OpenPage(ctx context.Context, pageURL string) (*rod.Page, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(m.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, m.cfg.ResourceBlocking); err != nil {
			m.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	m.cfg.Logger.Info("browser: opened page", "url", pageURL)
	return page, nil
}
