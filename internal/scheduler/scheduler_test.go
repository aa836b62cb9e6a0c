package scheduler

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/ramkansal/canvascrawl/internal/browser"
	"github.com/ramkansal/canvascrawl/internal/course"
	"github.com/ramkansal/canvascrawl/internal/extract"
	"github.com/ramkansal/canvascrawl/internal/normalize"
	"github.com/ramkansal/canvascrawl/internal/supervisor"
	"github.com/ramkansal/canvascrawl/internal/workerpool"
)

// fakeSite is a tiny in-memory DOM/link graph keyed by exact normalized
// URL, standing in for a real browser for BFS-shape tests.
type fakeSite struct {
	mu             sync.Mutex
	pages          map[string]extract.PageResult
	files          map[string]extract.FileResult
	moduleFileURLs []string
	fileVisits     map[string]int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:      make(map[string]extract.PageResult),
		files:      make(map[string]extract.FileResult),
		fileVisits: make(map[string]int),
	}
}

type fakeContext struct{ site *fakeSite }

func (c *fakeContext) NewTab(ctx context.Context) (browser.Tab, error) {
	return &fakeTab{site: c.site}, nil
}
func (c *fakeContext) Close() error { return nil }

type fakeTab struct {
	site    *fakeSite
	current string
}

func (t *fakeTab) SetCookies([]*http.Cookie) error { return nil }
func (t *fakeTab) SetNonDiscardable() error        { return nil }
func (t *fakeTab) WaitLoad(context.Context) error  { return nil }
func (t *fakeTab) Closed() bool                    { return false }
func (t *fakeTab) Close() error                    { return nil }

func (t *fakeTab) Navigate(_ context.Context, url string) error {
	t.current = url
	return nil
}

func (t *fakeTab) Eval(_ context.Context, _ string, _ []any, out any) error {
	t.site.mu.Lock()
	defer t.site.mu.Unlock()
	switch o := out.(type) {
	case *extract.PageResult:
		*o = t.site.pages[t.current]
		o.URL = t.current
	case *extract.FileResult:
		*o = t.site.files[t.current]
		t.site.fileVisits[t.current]++
	case *extract.PrefetchResult:
		o.FileURLs = t.site.moduleFileURLs
	}
	return nil
}

const testBase = "https://canvas.example.edu/courses/100"

func newTestScheduler(t *testing.T, site *fakeSite) (*workerpool.Pool, *normalize.Normalizer) {
	t.Helper()
	pool, err := workerpool.New(context.Background(), &fakeContext{site: site}, 1, nil)
	if err != nil {
		t.Fatalf("workerpool.New: %v", err)
	}
	norm := normalize.New("canvas.example.edu")
	return pool, norm
}

func longText(label string) string {
	s := label
	for len(s) < 100 {
		s += " filler"
	}
	return s
}

func TestRunCourseBasicBFS(t *testing.T) {
	site := newFakeSite()
	site.pages[testBase] = extract.PageResult{
		Text:  longText("course home"),
		Title: "Course Home",
		Links: []extract.Link{
			{URL: testBase + "/pages/week1", AnchorText: "Week 1"},
			{URL: testBase + "/files/55?preview=1", AnchorText: "Slides", IsFile: true},
		},
	}
	site.pages[testBase+"/pages/week1"] = extract.PageResult{
		Text:  longText("week one content"),
		Title: "Week 1",
	}
	site.files[testBase+"/files/55?preview=1"] = extract.FileResult{
		Text:     longText("slide deck transcript"),
		Filename: "slides.pdf",
	}

	pool, norm := newTestScheduler(t, site)
	defer pool.DestroyAll()

	state := course.New("100", "Intro", false)
	sup := supervisor.New()

	err := RunCourse(context.Background(), pool, norm, state, sup, Options{BaseURL: testBase})
	if err != nil {
		t.Fatalf("RunCourse: %v", err)
	}

	if !state.Completed {
		t.Fatalf("expected course to be marked completed")
	}
	if len(state.Pages) != 2 {
		t.Fatalf("len(Pages) = %d, want 2 (home + week1)", len(state.Pages))
	}
	if len(state.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1 (slides)", len(state.Files))
	}
	if state.Files[0].Filename != "slides.pdf" {
		t.Fatalf("Files[0].Filename = %q, want slides.pdf", state.Files[0].Filename)
	}
}

func TestRunCoursePrefetchedFileNotRescraped(t *testing.T) {
	site := newFakeSite()
	fileURL := testBase + "/files/55?preview=1"
	site.moduleFileURLs = []string{testBase + "/files/55"}
	site.pages[testBase] = extract.PageResult{
		Text: longText("course home"),
		Links: []extract.Link{
			{URL: fileURL, AnchorText: "Slides", IsFile: true},
		},
	}
	site.files[fileURL] = extract.FileResult{Text: longText("slide deck transcript"), Filename: "slides.pdf"}

	pool, norm := newTestScheduler(t, site)
	defer pool.DestroyAll()

	state := course.New("100", "Intro", false)
	sup := supervisor.New()

	if err := RunCourse(context.Background(), pool, norm, state, sup, Options{BaseURL: testBase}); err != nil {
		t.Fatalf("RunCourse: %v", err)
	}

	if got := site.fileVisits[fileURL]; got != 1 {
		t.Fatalf("file scraped %d times, want exactly 1 (prefetch dedups against later page-link discovery)", got)
	}
	if len(state.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(state.Files))
	}
}

func TestRunCourseResumesRequeuedFileThroughFileExtractor(t *testing.T) {
	// Simulates §4.6/§9 resumption: a file URL that hung was re-queued
	// via EnqueuePageFront onto the course's single queue by a prior
	// handleTimeout call, then the pool/supervisor were rebuilt and
	// RunCourse started fresh against the same state. The queued file
	// URL must still come back as a file, not get swept into Pages by
	// the BFS loop's page dispatch.
	site := newFakeSite()
	fileURL := testBase + "/files/55?preview=1"
	site.pages[testBase] = extract.PageResult{Text: longText("course home")}
	site.files[fileURL] = extract.FileResult{Text: longText("slide deck transcript"), Filename: "slides.pdf"}

	pool, norm := newTestScheduler(t, site)
	defer pool.DestroyAll()

	state := course.New("100", "Intro", false)
	state.EnqueuePageFront(fileURL)
	sup := supervisor.New()

	if err := RunCourse(context.Background(), pool, norm, state, sup, Options{BaseURL: testBase}); err != nil {
		t.Fatalf("RunCourse: %v", err)
	}

	if len(state.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1 (resumed file URL)", len(state.Files))
	}
	if state.Files[0].Filename != "slides.pdf" {
		t.Fatalf("Files[0].Filename = %q, want slides.pdf", state.Files[0].Filename)
	}
	for _, p := range state.Pages {
		if p.URL == fileURL {
			t.Fatalf("file URL %q was stored as a page, not a file", fileURL)
		}
	}
	if state.IsPageVisited(fileURL) {
		t.Fatalf("file URL %q was marked page-visited, polluting the page budget", fileURL)
	}
}

func TestHandleTimeoutReportsRestartAsError(t *testing.T) {
	state := course.New("100", "Intro", false)
	sup := supervisor.New()
	fileURL := testBase + "/files/55?preview=1"
	state.VisitFile(fileURL)

	var errs []ErrorEntry
	opts := Options{OnError: func(e ErrorEntry) { errs = append(errs, e) }}

	err := handleTimeout(sup, state, opts, opts.logger(), fileURL, true)
	if err != supervisor.ErrRestartRequired {
		t.Fatalf("err = %v, want ErrRestartRequired", err)
	}

	var sawRestart bool
	for _, e := range errs {
		if e.Kind == "restart" && e.URL == fileURL {
			sawRestart = true
		}
	}
	if !sawRestart {
		t.Fatalf("errs = %+v, want a %q entry for %q", errs, "restart", fileURL)
	}
	if state.IsFileVisited(fileURL) {
		t.Fatalf("file URL should have been un-visited so it can be resumed")
	}
}

func TestRunCourseSyllabusOnlyGatesNonSeedLinks(t *testing.T) {
	site := newFakeSite()
	site.pages[testBase] = extract.PageResult{
		Text: longText("course home"),
		Links: []extract.Link{
			{URL: testBase + "/pages/week1", AnchorText: "Week 1"},
		},
	}
	site.pages[testBase+"/pages/week1"] = extract.PageResult{Text: longText("week one content")}

	pool, norm := newTestScheduler(t, site)
	defer pool.DestroyAll()

	state := course.New("100", "Intro", true)
	sup := supervisor.New()

	if err := RunCourse(context.Background(), pool, norm, state, sup, Options{BaseURL: testBase}); err != nil {
		t.Fatalf("RunCourse: %v", err)
	}

	for _, p := range state.Pages {
		if p.URL == testBase+"/pages/week1" {
			t.Fatalf("week1 page should have been gated out in syllabus-only mode")
		}
	}
}
