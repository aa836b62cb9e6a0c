// Package course holds the per-course crawl state: a single course's
// URL frontier, visited sets, retry counters, and accumulated extracted
// documents. Exactly one scheduler goroutine owns a CourseState at a
// time, so no internal locking is needed — mirrors the teacher's
// single-writer visited/queue pair (internal/crawler/crawler.go) split
// one-per-course instead of one-per-process.
package course

import (
	"regexp"
	"strings"

	"github.com/ramkansal/canvascrawl/internal/extract"
)

// MaxRetriesPerURL is the hard cap on restart-inducing timeouts a single
// URL may accumulate before it is abandoned.
const MaxRetriesPerURL = 4

// MaxLinksPerCourse bounds |visitedPages| per course.
const MaxLinksPerCourse = 250

var displayNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9 _-]`)

// SanitizeDisplayName strips everything but letters, digits, spaces,
// underscores and hyphens from name, falling back to "Course <id>" if
// the result is empty.
func SanitizeDisplayName(id, name string) string {
	cleaned := strings.TrimSpace(displayNameSanitizer.ReplaceAllString(name, ""))
	if cleaned == "" {
		return "Course " + id
	}
	return cleaned
}

// Seeds returns the fixed set of URL paths (relative to a course's base)
// visited before BFS discovery begins.
func Seeds(base string) []string {
	base = strings.TrimRight(base, "/")
	return []string{
		base,
		base + "/assignments",
		base + "/modules",
		base + "/assignments/syllabus",
		base + "/grades",
		base + "/announcements",
	}
}

// State is the sole mutable object associated with one course.
type State struct {
	ID          string
	DisplayName string
	SyllabusOnly bool

	queue        []string
	queuedSet    map[string]bool
	visitedPages map[string]bool
	visitedFiles map[string]bool
	retryCounts  map[string]int

	Pages []extract.ExtractedPage
	Files []extract.ExtractedFile

	Completed bool
}

// New builds an empty CourseState for id/name. name is sanitized via
// SanitizeDisplayName.
func New(id, name string, syllabusOnly bool) *State {
	return &State{
		ID:           id,
		DisplayName:  SanitizeDisplayName(id, name),
		SyllabusOnly: syllabusOnly,
		queuedSet:    make(map[string]bool),
		visitedPages: make(map[string]bool),
		visitedFiles: make(map[string]bool),
		retryCounts:  make(map[string]int),
	}
}

// EnqueuePage pushes url to the tail of the queue if it is not already
// visited or queued, and (in syllabus-only mode) its relevance text
// contains "syllabus".
func (s *State) EnqueuePage(url, anchorText string) {
	if s.visitedPages[url] || s.queuedSet[url] {
		return
	}
	if s.SyllabusOnly && !isSyllabusRelevant(url, anchorText) {
		return
	}
	s.queue = append(s.queue, url)
	s.queuedSet[url] = true
}

// EnqueuePageFront pushes url to the front of the queue, used only by
// the restart supervisor to resume exactly where a course left off.
func (s *State) EnqueuePageFront(url string) {
	if s.queuedSet[url] {
		return
	}
	s.queue = append([]string{url}, s.queue...)
	s.queuedSet[url] = true
}

// PopFront removes and returns the head of the queue. ok is false if the
// queue is empty.
func (s *State) PopFront() (url string, ok bool) {
	if len(s.queue) == 0 {
		return "", false
	}
	url = s.queue[0]
	s.queue = s.queue[1:]
	delete(s.queuedSet, url)
	return url, true
}

// QueueLen reports how many URLs remain unvisited in the queue.
func (s *State) QueueLen() int {
	return len(s.queue)
}

// VisitPage marks url visited, strictly before extraction is attempted
// for it.
func (s *State) VisitPage(url string) {
	s.visitedPages[url] = true
}

// UnvisitPage de-asserts url from visitedPages, used by the restart
// supervisor to allow a URL to be re-attempted.
func (s *State) UnvisitPage(url string) {
	delete(s.visitedPages, url)
}

// IsPageVisited reports whether url has already been visited.
func (s *State) IsPageVisited(url string) bool {
	return s.visitedPages[url]
}

// VisitedPageCount reports |visitedPages|, compared against
// MaxLinksPerCourse by the scheduler.
func (s *State) VisitedPageCount() int {
	return len(s.visitedPages)
}

// VisitFile marks url visited in the file set, without queueing (files
// are scraped immediately on discovery, never queued).
func (s *State) VisitFile(url string) {
	s.visitedFiles[url] = true
}

// UnvisitFile de-asserts url from visitedFiles.
func (s *State) UnvisitFile(url string) {
	delete(s.visitedFiles, url)
}

// IsFileVisited reports whether url has already been scraped (or
// permanently abandoned) as a file.
func (s *State) IsFileVisited(url string) bool {
	return s.visitedFiles[url]
}

// RetryCount returns the current restart-retry count for url.
func (s *State) RetryCount(url string) int {
	return s.retryCounts[url]
}

// IncrementRetry bumps url's retry count and reports whether it has now
// exceeded MaxRetriesPerURL.
func (s *State) IncrementRetry(url string) (exceeded bool) {
	s.retryCounts[url]++
	return s.retryCounts[url] > MaxRetriesPerURL
}

// AddPage appends an extracted page to the course's accumulated corpus.
func (s *State) AddPage(p extract.ExtractedPage) {
	s.Pages = append(s.Pages, p)
}

// AddFile appends an extracted file to the course's accumulated corpus.
func (s *State) AddFile(f extract.ExtractedFile) {
	s.Files = append(s.Files, f)
}

func isSyllabusRelevant(url, anchorText string) bool {
	const needle = "syllabus"
	return strings.Contains(strings.ToLower(url), needle) || strings.Contains(strings.ToLower(anchorText), needle)
}
