package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ramkansal/canvascrawl/internal/browser"
	"github.com/ramkansal/canvascrawl/internal/course"
	"github.com/ramkansal/canvascrawl/internal/normalize"
	"github.com/ramkansal/canvascrawl/internal/scheduler"
	"github.com/ramkansal/canvascrawl/internal/supervisor"
	"github.com/ramkansal/canvascrawl/internal/workerpool"
)

// NewBrowserContext opens a fresh browser instance; it is what StartCrawl
// rebuilds on every restart. cfg.SessionCookies are installed by the
// worker pool on every tab it opens, not by this function. Exposed so
// cmd/canvascrawl and tests can substitute a fake.
type NewBrowserContext func(ctx context.Context) (browser.Context, error)

// StartCrawl discovers every configured course's crawl state, drives
// them as sibling goroutines sharing one worker pool, and transparently
// rebuilds that pool across restart-on-hang events (§4.6) until every
// non-excluded course completes, ctx is cancelled, or the restart budget
// is exhausted.
func StartCrawl(ctx context.Context, cfg Config, newBrowser NewBrowserContext) (CrawlResult, error) {
	norm := buildNormalizer(cfg)

	states := make(map[string]*course.State)
	var errs []ErrorEntry
	var errsMu sync.Mutex
	reportError := func(e ErrorEntry) {
		errsMu.Lock()
		errs = append(errs, e)
		errsMu.Unlock()
		if cfg.OnError != nil {
			cfg.OnError(e)
		}
	}

	for _, seed := range cfg.Courses {
		if cfg.excluded(seed.ID) {
			continue
		}
		states[seed.ID] = course.New(seed.ID, seed.DisplayName, cfg.SyllabusOnly)
	}

	restarts := 0
	for {
		pending := pendingCourses(cfg, states)
		if len(pending) == 0 {
			break
		}

		bctx, err := newBrowser(ctx)
		if err != nil {
			return CrawlResult{}, fmt.Errorf("crawl: open browser: %w", err)
		}

		pool, err := workerpool.New(ctx, bctx, cfg.poolSize(), cfg.SessionCookies)
		if err != nil {
			return CrawlResult{}, fmt.Errorf("crawl: build worker pool: %w", err)
		}

		sup := supervisor.New()
		restartRequested := driveCourses(ctx, pool, norm, states, pending, sup, cfg, reportError)
		pool.DestroyAll()

		if ctx.Err() != nil {
			return assembleResult(states, errs), ctx.Err()
		}
		if !restartRequested {
			break
		}

		restarts++
		if restarts > cfg.maxRestarts() {
			return assembleResult(states, errs), fmt.Errorf("crawl: exceeded max restarts (%d)", cfg.maxRestarts())
		}
		sup.Reset()

		select {
		case <-time.After(cfg.restartTeardownDelay()):
		case <-ctx.Done():
			return assembleResult(states, errs), ctx.Err()
		}
	}

	return assembleResult(states, errs), nil
}

// driveCourses runs every pending course as a sibling goroutine against
// pool, until they all finish, ctx is cancelled, or one of them requests
// a restart. Reports whether a restart was requested.
func driveCourses(ctx context.Context, pool *workerpool.Pool, norm *normalize.Normalizer, states map[string]*course.State, pending []*course.State, sup *supervisor.State, cfg Config, reportError func(ErrorEntry)) bool {
	var wg sync.WaitGroup
	var mu sync.Mutex
	restartRequested := false

	for _, st := range pending {
		wg.Add(1)
		go func(st *course.State) {
			defer wg.Done()
			opts := scheduler.Options{
				BaseURL:            baseURLFor(cfg, st.ID),
				MinTextLen:         cfg.minTextLen(),
				MaxLinksPerCourse:  cfg.maxLinksPerCourse(),
				MaxPageChars:       cfg.maxPageChars(),
				MaxFileChars:       cfg.maxFileChars(),
				GlobalRestartAbort: cfg.GlobalRestartAbort,
				OnProgress:         cfg.OnProgress,
				OnError:            reportError,
				Logger:             cfg.logger(),
			}
			err := scheduler.RunCourse(ctx, pool, norm, st, sup, opts)
			if err == supervisor.ErrRestartRequired {
				mu.Lock()
				restartRequested = true
				mu.Unlock()
				return
			}
			if err != nil && ctx.Err() == nil {
				reportError(ErrorEntry{Kind: "course-failed", CourseID: st.ID, Message: err.Error(), Timestamp: time.Now()})
			}
		}(st)
	}

	wg.Wait()
	return restartRequested
}

func pendingCourses(cfg Config, states map[string]*course.State) []*course.State {
	var pending []*course.State
	for _, seed := range cfg.Courses {
		st, ok := states[seed.ID]
		if !ok || st.Completed {
			continue
		}
		pending = append(pending, st)
	}
	return pending
}

func baseURLFor(cfg Config, courseID string) string {
	for _, seed := range cfg.Courses {
		if seed.ID == courseID {
			return seed.BaseURL
		}
	}
	return ""
}

func buildNormalizer(cfg Config) *normalize.Normalizer {
	seen := make(map[string]struct{})
	var hosts []string
	for _, seed := range cfg.Courses {
		u, err := url.Parse(seed.BaseURL)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.ToLower(u.Host)
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		hosts = append(hosts, host)
	}
	return normalize.New(hosts...)
}

func assembleResult(states map[string]*course.State, errs []ErrorEntry) CrawlResult {
	result := CrawlResult{Courses: make(map[string]CourseResult, len(states)), Errors: errs}
	for id, st := range states {
		result.Courses[id] = CourseResult{
			DisplayName: st.DisplayName,
			Pages:       st.Pages,
			Files:       st.Files,
		}
	}
	return result
}
