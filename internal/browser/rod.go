package browser

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodContext backs Context with a real (optionally headless) Chrome or
// Chromium instance via go-rod/rod, following the teacher's
// BrowserFetcher (internal/fetcher/browser.go), generalized from a
// one-shot per-request page into a long-lived, reusable tab pool.
type RodContext struct {
	browser *rod.Browser
}

// Launch starts a fresh browser instance. headless controls whether the
// browser window is visible; production crawls run headless.
func Launch(headless bool) (*RodContext, error) {
	u, err := launcher.New().
		Headless(headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	return &RodContext{browser: b}, nil
}

func (c *RodContext) NewTab(ctx context.Context) (Tab, error) {
	page, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("browser: new tab: %w", err)
	}
	return &RodTab{page: page}, nil
}

func (c *RodContext) Close() error {
	if c.browser == nil {
		return nil
	}
	return c.browser.Close()
}

// RodTab backs Tab with a single *rod.Page, reused across navigations.
type RodTab struct {
	page   *rod.Page
	closed bool
}

func (t *RodTab) SetCookies(cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	nc := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		nc = append(nc, &proto.NetworkCookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return t.page.SetCookies(nc)
}

func (t *RodTab) SetNonDiscardable() error {
	// rod has no first-class "discardable" flag. This enables Page-domain
	// lifecycle events for the tab; it does not by itself exempt the tab
	// from the browser's memory-pressure tab discarding.
	return proto.PageSetLifecycleEventsEnabled{Enabled: true}.Call(t.page)
}

func (t *RodTab) Navigate(ctx context.Context, url string) error {
	if err := t.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (t *RodTab) WaitLoad(ctx context.Context) error {
	if err := t.page.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load: %w", err)
	}
	return nil
}

func (t *RodTab) Eval(ctx context.Context, script string, args []any, out any) error {
	res, err := t.page.Context(ctx).Eval(script, args...)
	if err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := res.Value.Unmarshal(out); err != nil {
		return fmt.Errorf("browser: decode eval result: %w", err)
	}
	return nil
}

func (t *RodTab) Closed() bool {
	if t.closed {
		return true
	}
	if _, err := t.page.Info(); err != nil {
		t.closed = true
	}
	return t.closed
}

func (t *RodTab) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.page.Close()
}
