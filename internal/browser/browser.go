// Package browser defines the five wire primitives the crawl engine needs
// from a browser automation backend, and an implementation backed by
// github.com/go-rod/rod.
//
// The interface is kept deliberately narrow (§6 of the spec): create and
// destroy tabs within an isolated browser instance, mark a tab
// non-discardable, observe load-complete, and inject/evaluate a script
// against a tab's DOM. Nothing upstream of this package depends on rod
// directly, so a chromedp- or WebDriver-backed Context could stand in
// without touching internal/workerpool or above.
package browser

import (
	"context"
	"net/http"
	"strings"
)

// Context is an isolated browser instance capable of opening independent
// tabs. One Context backs the entire worker pool for the lifetime of a
// crawl; it is torn down and rebuilt wholesale by the restart supervisor.
type Context interface {
	// NewTab opens a fresh, blank tab.
	NewTab(ctx context.Context) (Tab, error)
	// Close tears down the browser instance and every tab it owns.
	// Idempotent.
	Close() error
}

// Tab is a single long-lived browser tab reused across many navigations.
type Tab interface {
	// SetCookies installs the session's authenticated cookies before
	// any navigation. Opaque passthrough: the engine never inspects
	// cookie values.
	SetCookies(cookies []*http.Cookie) error
	// SetNonDiscardable marks the tab so the host does not reclaim it
	// under memory pressure mid-crawl.
	SetNonDiscardable() error
	// Navigate dispatches a navigation to url and returns once it has
	// been dispatched; it does not itself wait for load-complete.
	Navigate(ctx context.Context, url string) error
	// WaitLoad blocks until the tab reports load-complete.
	WaitLoad(ctx context.Context) error
	// Eval injects script (a JS expression evaluating to a function of
	// zero or more arguments) and runs it against the tab's current
	// document, decoding the JSON-serializable return value into out.
	// out should be a pointer, as with encoding/json.Unmarshal.
	Eval(ctx context.Context, script string, args []any, out any) error
	// Closed reports whether the host has torn down this tab (e.g. via
	// its own tab manager) since it was created.
	Closed() bool
	// Close releases the tab.
	Close() error
}

// IsFrameRemoved reports whether err is the class of transient DOM-access
// error produced when a page is navigated away while a script is still
// running against it (its frame is torn down mid-eval). These are
// resolved to an empty result, never to a restart.
func IsFrameRemoved(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, sub := range []string{"frame", "Frame", "removed", "detached"} {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
