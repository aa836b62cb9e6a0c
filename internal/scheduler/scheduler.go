// Package scheduler drives one course's BFS crawl to completion,
// pulling URLs from its queue, dispatching extraction via the worker
// pool, storing results, and re-feeding discovered links (§4.5).
//
// Grounded on the teacher's Crawler.Run goroutine-dispatch loop
// (internal/crawler/crawler.go), generalized from "N URLs of one site"
// to "one course's queue, driven to completion, with file extraction
// interleaved".
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/ramkansal/canvascrawl/internal/course"
	"github.com/ramkansal/canvascrawl/internal/extract"
	"github.com/ramkansal/canvascrawl/internal/normalize"
	"github.com/ramkansal/canvascrawl/internal/supervisor"
	"github.com/ramkansal/canvascrawl/internal/workerpool"
)

// politeSleep is the inter-page pause for politeness / host memory
// relief.
const politeSleep = 250 * time.Millisecond

// ProgressEvent is the structured shape behind Options.OnProgress,
// modeled on the teacher's plugin.CrawlEvent/EventType enum
// (pkg/plugin/plugin.go), generalized from a single-site crawl event to
// a per-course crawl event.
type ProgressEvent struct {
	CourseID        string
	Message         string
	DiscoveredCount int
	ScrapedCount    int
	Done            bool
}

// ErrorEntry is the structured shape behind Options.OnError.
type ErrorEntry struct {
	Kind      string
	CourseID  string
	URL       string
	Message   string
	Timestamp time.Time
}

// Options configures one course's RunCourse invocation. All fields
// except BaseURL are optional.
type Options struct {
	BaseURL            string
	MinTextLen         int
	MaxLinksPerCourse  int
	MaxPageChars       int
	MaxFileChars       int
	GlobalRestartAbort bool
	OnProgress         func(ProgressEvent)
	OnError            func(ErrorEntry)
	Logger             *slog.Logger
}

func (o Options) minTextLen() int {
	if o.MinTextLen > 0 {
		return o.MinTextLen
	}
	return extract.MinTextLenToRecord
}

func (o Options) maxLinksPerCourse() int {
	if o.MaxLinksPerCourse > 0 {
		return o.MaxLinksPerCourse
	}
	return course.MaxLinksPerCourse
}

func (o Options) maxPageChars() int {
	if o.MaxPageChars > 0 {
		return o.MaxPageChars
	}
	return extract.MaxPageChars
}

func (o Options) maxFileChars() int {
	if o.MaxFileChars > 0 {
		return o.MaxFileChars
	}
	return extract.MaxFileChars
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) progress(e ProgressEvent) {
	if o.OnProgress != nil {
		o.OnProgress(e)
	}
}

func (o Options) reportError(kind, url, message string) {
	if o.OnError != nil {
		o.OnError(ErrorEntry{Kind: kind, URL: url, Message: message, Timestamp: time.Now()})
	}
}

// RunCourse drives state's BFS loop to completion or until ctx is
// cancelled or a restart is requested (for this course or, under
// GlobalRestartAbort, for any course). Returns supervisor.ErrRestartRequired
// when the course must unwind for a restart.
func RunCourse(ctx context.Context, pool *workerpool.Pool, norm *normalize.Normalizer, state *course.State, sup *supervisor.State, opts Options) error {
	opts.OnError = wrapErrorCourseID(state.ID, opts.OnError)
	log := opts.logger().With("courseId", state.ID)

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return fmt.Errorf("scheduler: invalid base URL %q: %w", opts.BaseURL, err)
	}

	if err := prefetchFiles(ctx, pool, norm, base, state, sup, opts, log); err != nil {
		return err
	}

	for _, seed := range course.Seeds(opts.BaseURL) {
		state.EnqueuePage(seed, "")
	}

	for state.QueueLen() > 0 && state.VisitedPageCount() < opts.maxLinksPerCourse() {
		if courseID, inFlight := sup.InFlight(); inFlight {
			if courseID == state.ID || opts.GlobalRestartAbort {
				return supervisor.ErrRestartRequired
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		u, ok := state.PopFront()
		if !ok {
			break
		}

		// Almost every URL popped here is a page: files are normally
		// scraped immediately on discovery and never queued. The one
		// exception is a restart-resumed file URL, re-queued by
		// handleTimeout via EnqueuePageFront onto this same queue — so
		// every pop is re-classified rather than assumed to be a page.
		if normalize.Classify(u) == normalize.File {
			if state.IsFileVisited(u) {
				continue
			}
			if err := scrapeFile(ctx, pool, state, sup, opts, log, u); err != nil {
				return err
			}
		} else {
			if state.IsPageVisited(u) {
				continue
			}
			state.VisitPage(u)

			if err := visitPage(ctx, pool, norm, base, state, sup, opts, log, u); err != nil {
				return err
			}
		}

		select {
		case <-time.After(politeSleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	state.Completed = true
	opts.progress(ProgressEvent{CourseID: state.ID, Message: "course complete", Done: true, ScrapedCount: len(state.Pages) + len(state.Files)})
	return nil
}

func visitPage(ctx context.Context, pool *workerpool.Pool, norm *normalize.Normalizer, base *url.URL, state *course.State, sup *supervisor.State, opts Options, log *slog.Logger, u string) error {
	w, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(ctx, w)

	if err := pool.Navigate(ctx, w, u, state.ID); err != nil {
		opts.reportError("navigate", u, err.Error())
		return nil
	}

	result, outcome := extract.Page(ctx, pool, w, opts.maxPageChars())
	switch outcome {
	case workerpool.RunTimedOut:
		return handleTimeout(sup, state, opts, log, u, false)
	case workerpool.RunScriptError:
		opts.reportError("extract", u, "page script error")
		return nil
	case workerpool.RunEmpty:
		return nil
	}

	if page, ok := extract.BuildPage(state.ID, result, opts.minTextLen(), opts.maxPageChars(), time.Now()); ok {
		state.AddPage(page)
		opts.progress(ProgressEvent{CourseID: state.ID, Message: "scraped " + page.Title, ScrapedCount: len(state.Pages) + len(state.Files), DiscoveredCount: state.VisitedPageCount()})
	}

	for _, link := range result.Links {
		n, err := norm.Normalize(link.URL, base, state.ID)
		if err != nil {
			continue
		}
		switch normalize.Classify(n) {
		case normalize.File:
			if state.IsFileVisited(n) {
				continue
			}
			if err := scrapeFile(ctx, pool, state, sup, opts, log, n); err != nil {
				return err
			}
		case normalize.Page:
			state.EnqueuePage(n, link.AnchorText)
		}
	}
	return nil
}

func scrapeFile(ctx context.Context, pool *workerpool.Pool, state *course.State, sup *supervisor.State, opts Options, log *slog.Logger, u string) error {
	state.VisitFile(u)

	w, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(ctx, w)

	if err := pool.Navigate(ctx, w, u, state.ID); err != nil {
		opts.reportError("navigate", u, err.Error())
		return nil
	}

	result, outcome := extract.FileViewer(ctx, pool, w, u, opts.maxFileChars())
	switch outcome {
	case workerpool.RunTimedOut:
		return handleTimeout(sup, state, opts, log, u, true)
	case workerpool.RunScriptError:
		opts.reportError("extract", u, "file script error")
		return nil
	case workerpool.RunEmpty:
		return nil
	}

	if file, ok := extract.BuildFile(state.ID, u, result, opts.minTextLen(), opts.maxFileChars(), time.Now()); ok {
		state.AddFile(file)
		opts.progress(ProgressEvent{CourseID: state.ID, Message: "scraped file " + file.Filename, ScrapedCount: len(state.Pages) + len(state.Files)})
	}
	return nil
}

// handleTimeout applies §4.6: a timeout on a file URL, or a page URL
// whose path contains "/download", is restart-inducing; all other
// timeouts are logged and the single URL dropped.
func handleTimeout(sup *supervisor.State, state *course.State, opts Options, log *slog.Logger, u string, isFile bool) error {
	parsed, _ := url.Parse(u)
	path := ""
	if parsed != nil {
		path = parsed.Path
	}

	if !supervisor.IsRestartInducing(isFile, path) {
		opts.reportError("timeout", u, "non-restart-inducing timeout, dropped")
		return nil
	}

	if state.IncrementRetry(u) {
		log.Warn("url exceeded restart cap, abandoning", "url", u)
		if isFile {
			state.VisitFile(u)
		} else {
			state.VisitPage(u)
		}
		opts.reportError("timeout-abandoned", u, "exceeded restart cap")
		return nil
	}

	reason := supervisor.ReasonFileTimeout
	if !isFile {
		reason = supervisor.ReasonDownloadTimeout
	}
	if isFile {
		state.UnvisitFile(u)
	} else {
		state.UnvisitPage(u)
	}
	state.EnqueuePageFront(u)
	sup.RequestRestart(state.ID, u, reason)
	opts.reportError("restart", u, fmt.Sprintf("restart requested: %s", reason))
	log.Warn("restart requested", "url", u, "reason", reason)
	return supervisor.ErrRestartRequired
}

func prefetchFiles(ctx context.Context, pool *workerpool.Pool, norm *normalize.Normalizer, base *url.URL, state *course.State, sup *supervisor.State, opts Options, log *slog.Logger) error {
	w, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}

	modulesURL := fmt.Sprintf("%s/modules", trimTrailingSlash(base.String()))
	if err := pool.Navigate(ctx, w, modulesURL, state.ID); err != nil {
		pool.Release(ctx, w)
		opts.reportError("navigate", modulesURL, err.Error())
		return nil
	}

	result, outcome := extract.ModulePrefetch(ctx, pool, w)
	pool.Release(ctx, w)
	if outcome != workerpool.RunOK {
		return nil
	}

	for _, raw := range result.FileURLs {
		n, err := norm.Normalize(raw, base, state.ID)
		if err != nil || normalize.Classify(n) != normalize.File {
			continue
		}
		if state.IsFileVisited(n) {
			continue
		}
		if err := scrapeFile(ctx, pool, state, sup, opts, log, n); err != nil {
			return err
		}
	}
	return nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func wrapErrorCourseID(courseID string, fn func(ErrorEntry)) func(ErrorEntry) {
	if fn == nil {
		return nil
	}
	return func(e ErrorEntry) {
		e.CourseID = courseID
		fn(e)
	}
}
