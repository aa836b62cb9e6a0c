// Package crawl is the thin driver that wires configuration, discovers
// the initial set of per-course crawl states, drives the scheduler
// (with the restart supervisor wrapped around it), and hands the
// finished corpus back to the caller.
//
// Grounded on the teacher's Crawler.Init/Run/Close lifecycle
// (internal/crawler/crawler.go), generalized from a single-site crawl
// to a fan-out over many independent per-course crawls sharing one
// worker pool.
package crawl

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ramkansal/canvascrawl/internal/extract"
	"github.com/ramkansal/canvascrawl/internal/scheduler"
)

// ProgressEvent and ErrorEntry are the scheduler's event shapes,
// re-exported here as the package callers actually configure against.
type ProgressEvent = scheduler.ProgressEvent
type ErrorEntry = scheduler.ErrorEntry

// CourseSeed identifies one course to crawl: its canvas ID, its base
// course URL, and a display name (pre-sanitization — course.State
// sanitizes it). Course discovery itself (walking the canvas dashboard
// to enumerate enrolled courses) is the host's responsibility, the same
// way session acquisition is (§1 Non-goals); the driver's job is to
// turn an already-known course list into running per-course crawls.
type CourseSeed struct {
	ID          string
	DisplayName string
	BaseURL     string
}

// Config is StartCrawl's single configuration argument (§6).
type Config struct {
	Courses        []CourseSeed
	SessionCookies []*http.Cookie

	SyllabusOnly       bool
	PoolSize           int
	MaxLinksPerCourse  int
	MinTextLen         int
	MaxPageChars       int
	MaxFileChars       int
	ExcludedCourseIDs  []string
	GlobalRestartAbort bool

	OnProgress func(ProgressEvent)
	OnError    func(ErrorEntry)
	Logger     *slog.Logger

	// RestartTeardownDelay is the pause between destroying the old
	// worker pool/window and rebuilding a fresh one (§4.6 step 3).
	// Defaults to 1500ms.
	RestartTeardownDelay time.Duration

	// MaxRestarts bounds how many times the driver will rebuild the
	// pool for a single StartCrawl call before giving up and returning
	// an error; guards against a pathological host that never recovers.
	MaxRestarts int
}

func (c Config) poolSize() int {
	if c.PoolSize > 0 {
		return c.PoolSize
	}
	return 6
}

func (c Config) maxLinksPerCourse() int {
	if c.MaxLinksPerCourse > 0 {
		return c.MaxLinksPerCourse
	}
	return 250
}

func (c Config) minTextLen() int {
	if c.MinTextLen > 0 {
		return c.MinTextLen
	}
	return extract.MinTextLenToRecord
}

func (c Config) maxPageChars() int {
	if c.MaxPageChars > 0 {
		return c.MaxPageChars
	}
	return extract.MaxPageChars
}

func (c Config) maxFileChars() int {
	if c.MaxFileChars > 0 {
		return c.MaxFileChars
	}
	return extract.MaxFileChars
}

func (c Config) restartTeardownDelay() time.Duration {
	if c.RestartTeardownDelay > 0 {
		return c.RestartTeardownDelay
	}
	return 1500 * time.Millisecond
}

func (c Config) maxRestarts() int {
	if c.MaxRestarts > 0 {
		return c.MaxRestarts
	}
	return 20
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) excluded(courseID string) bool {
	for _, id := range c.ExcludedCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// CourseResult is one course's finished corpus.
type CourseResult struct {
	DisplayName string
	Pages       []extract.ExtractedPage
	Files       []extract.ExtractedFile
}

// CrawlResult is StartCrawl's return value: every course's corpus, plus
// the accumulated structured error log.
type CrawlResult struct {
	Courses map[string]CourseResult
	Errors  []ErrorEntry
}

// RestructurerInput is the opaque batch-summarize request handed to the
// external LLM post-processor, one per course.
type RestructurerInput struct {
	CourseID    string
	DisplayName string
	Pages       []extract.ExtractedPage
	Files       []extract.ExtractedFile
}

// RestructurerOutput is the opaque batch-summarize response.
type RestructurerOutput struct {
	CourseID string
	Summary  string
}

// Restructurer is the narrow contract to the external LLM "restructure"
// step (§1 Non-goals, §3.1). The core never implements summarization;
// it only defines this interface so a driver can wire one in and the
// whole pipeline compiles end to end.
type Restructurer interface {
	Restructure(input RestructurerInput) (RestructurerOutput, error)
}

// BlobStore is the opaque contract to the external key/value
// persistence sink (§3.1). The core never touches storage directly.
type BlobStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
}
