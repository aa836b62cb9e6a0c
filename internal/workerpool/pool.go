// Package workerpool provides a fixed-size pool of long-lived browser
// tabs ("workers") that courses acquire, navigate, and run extraction
// scripts against.
//
// Grounded on the teacher's goroutine/semaphore dispatch loop
// (ramkansal-gofang internal/crawler/crawler.go, Crawler.Run), generalized
// from a disposable per-request fetch into an acquire/release worker
// checkout with a FIFO waiter queue.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ramkansal/canvascrawl/internal/browser"
)

// RunTimeout is the hard wall-clock budget for a single Run call, from
// navigate start to script return.
const RunTimeout = 60 * time.Second

// settleDelay is the pause after load-complete before a script runs,
// giving client-side rendering (module lists, PDF viewers) a chance to
// paint.
const settleDelay = 700 * time.Millisecond

// ErrCancelled is returned by Acquire when DestroyAll wakes a caller
// blocked waiting for a worker. A caller whose own ctx is cancelled while
// waiting gets ctx.Err() instead.
var ErrCancelled = errors.New("workerpool: cancelled")

// status is a worker's lifecycle state.
type status int

const (
	statusIdle status = iota
	statusBusyNavigating
	statusBusyRunning
	statusDead
)

// Worker is one long-lived browser tab. Acquired callers own it
// exclusively until Release; it is never observed by any other
// goroutine in between.
type Worker struct {
	ID              int
	tab             browser.Tab
	status          status
	currentCourseID string
	lastURL         string
}

// Pool is a fixed-size set of Workers backed by a single browser.Context.
type Pool struct {
	ctxBrowser browser.Context
	cookies    []*http.Cookie

	mu        sync.Mutex
	workers   []*Worker
	available []*Worker
	waiters   []chan *Worker
}

// New creates a pool of size workers, each a fresh tab opened against
// bctx. If cookies is non-empty, every tab has it installed before
// being marked available, per the wire contract's requirement that
// authenticated cookies reach a tab before its first navigation.
func New(ctx context.Context, bctx browser.Context, size int, cookies []*http.Cookie) (*Pool, error) {
	if size <= 0 {
		size = 6
	}
	p := &Pool{ctxBrowser: bctx, cookies: cookies}
	for i := 0; i < size; i++ {
		tab, err := bctx.NewTab(ctx)
		if err != nil {
			p.DestroyAll()
			return nil, fmt.Errorf("workerpool: open tab %d: %w", i, err)
		}
		if len(cookies) > 0 {
			if err := tab.SetCookies(cookies); err != nil {
				p.DestroyAll()
				return nil, fmt.Errorf("workerpool: seed cookies on tab %d: %w", i, err)
			}
		}
		w := &Worker{ID: i, tab: tab, status: statusIdle}
		p.workers = append(p.workers, w)
		p.available = append(p.available, w)
	}
	return p, nil
}

// Acquire blocks FIFO until a worker is idle, or until ctx is cancelled.
func (p *Pool) Acquire(ctx context.Context) (*Worker, error) {
	p.mu.Lock()
	if len(p.available) > 0 {
		w := p.available[0]
		p.available = p.available[1:]
		w.status = statusBusyNavigating
		p.mu.Unlock()
		return w, nil
	}

	ch := make(chan *Worker, 1)
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	select {
	case w, ok := <-ch:
		if !ok || w == nil {
			return nil, ErrCancelled
		}
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns w to the pool, waking the oldest waiter if any. A
// worker found Closed() is replaced with a fresh tab before being
// handed to the next waiter or marked available.
func (p *Pool) Release(ctx context.Context, w *Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w.tab.Closed() {
		w.status = statusDead
		if fresh, err := p.ctxBrowser.NewTab(ctx); err == nil {
			if len(p.cookies) > 0 {
				_ = fresh.SetCookies(p.cookies)
			}
			w.tab = fresh
			w.status = statusIdle
		}
	} else {
		w.status = statusIdle
	}
	w.currentCourseID = ""

	if len(p.waiters) > 0 {
		next := p.waiters[0]
		p.waiters = p.waiters[1:]
		w.status = statusBusyNavigating
		next <- w
		close(next)
		return
	}
	p.available = append(p.available, w)
}

// Navigate directs w's tab to url, sets it non-discardable, and returns
// once navigation has been dispatched (not once load-complete fires).
func (p *Pool) Navigate(ctx context.Context, w *Worker, url, courseID string) error {
	w.currentCourseID = courseID
	w.lastURL = url
	if err := w.tab.SetNonDiscardable(); err != nil {
		// Non-fatal: proceed even if the host doesn't expose this knob.
		_ = err
	}
	return w.tab.Navigate(ctx, url)
}

// RunFunc is a page-side extraction script plus its arguments.
type RunFunc struct {
	Script string
	Args   []any
}

// RunOutcome classifies the result of Run.
type RunOutcome int

const (
	RunOK RunOutcome = iota
	RunTimedOut
	RunScriptError
	RunEmpty // frame-removed / transient DOM-access error: treated as no result
)

// Run waits for load-complete, settles, then evaluates fn against w's
// current page, decoding the result into out. The whole operation is
// bounded by RunTimeout measured from when Run is called (which, per the
// worker pool contract, is immediately after Navigate).
func (p *Pool) Run(ctx context.Context, w *Worker, fn RunFunc, out any) RunOutcome {
	w.status = statusBusyRunning
	runCtx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	done := make(chan RunOutcome, 1)
	go func() {
		if err := w.tab.WaitLoad(runCtx); err != nil {
			if runCtx.Err() != nil {
				done <- RunTimedOut
				return
			}
			if browser.IsFrameRemoved(err) {
				done <- RunEmpty
				return
			}
			done <- RunScriptError
			return
		}

		select {
		case <-time.After(settleDelay):
		case <-runCtx.Done():
			done <- RunTimedOut
			return
		}

		if err := w.tab.Eval(runCtx, fn.Script, fn.Args, out); err != nil {
			if runCtx.Err() != nil {
				done <- RunTimedOut
				return
			}
			if browser.IsFrameRemoved(err) {
				done <- RunEmpty
				return
			}
			done <- RunScriptError
			return
		}
		done <- RunOK
	}()

	select {
	case outcome := <-done:
		return outcome
	case <-runCtx.Done():
		return RunTimedOut
	}
}

// DestroyAll closes every worker's tab and the underlying browser
// context, and wakes every blocked waiter with cancellation. Idempotent.
func (p *Pool) DestroyAll() {
	p.mu.Lock()
	waiters := p.waiters
	p.waiters = nil
	p.available = nil
	workers := p.workers
	p.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
	for _, w := range workers {
		w.status = statusDead
		_ = w.tab.Close()
	}
	if p.ctxBrowser != nil {
		_ = p.ctxBrowser.Close()
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}
