// Package supervisor holds the shared state of the restart-on-hang
// recovery protocol (§4.6): which timeouts are restart-inducing, and the
// restart request every course goroutine observes. Tearing down and
// rebuilding the browser window and its workers is done by
// internal/crawl's StartCrawl.
//
// Grounded on the teacher's stop/signal plumbing (cmd/gofang/main.go's
// signal.Notify + Crawler.Stop()), generalized from a one-shot external
// stop request into a resumable internal restart request that other
// goroutines must observe and cooperate with.
package supervisor

import (
	"errors"
	"strings"
	"sync"
)

// ErrRestartRequired is returned by a course's scheduling loop to unwind
// it cooperatively once a restart has been requested, by the course
// itself or a sibling.
var ErrRestartRequired = errors.New("supervisor: restart required")

// RestartReason classifies why a restart was requested.
type RestartReason int

const (
	ReasonFileTimeout RestartReason = iota
	ReasonDownloadTimeout
)

func (r RestartReason) String() string {
	switch r {
	case ReasonFileTimeout:
		return "file-timeout"
	case ReasonDownloadTimeout:
		return "download-timeout"
	default:
		return "unknown"
	}
}

// State is the shared, mutex-guarded restart flag observed by every
// course goroutine at its next scheduling point. It is not a bare
// sync/atomic.Bool because restartCourseID/Reason/URL must travel
// atomically with the flag (see SPEC_FULL.md §4.6).
type State struct {
	mu              sync.Mutex
	restartInFlight bool
	restartCourseID string
	restartReason   RestartReason
	restartURL      string
}

// New returns an idle supervisor state.
func New() *State {
	return &State{}
}

// RequestRestart sets the shared flag. Only the first caller between
// resets wins; subsequent calls before the restart completes are no-ops
// so a flurry of sibling timeouts doesn't stack multiple rebuilds.
func (s *State) RequestRestart(courseID, url string, reason RestartReason) (accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restartInFlight {
		return false
	}
	s.restartInFlight = true
	s.restartCourseID = courseID
	s.restartURL = url
	s.restartReason = reason
	return true
}

// InFlight reports whether a restart is currently requested or underway,
// and if so, which course requested it.
func (s *State) InFlight() (courseID string, inFlight bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restartCourseID, s.restartInFlight
}

// Details returns the full restart request, for logging.
func (s *State) Details() (courseID, url string, reason RestartReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restartCourseID, s.restartURL, s.restartReason
}

// Reset clears the restart flag once teardown/rebuild has completed,
// allowing the next hang to request a fresh restart.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartInFlight = false
	s.restartCourseID = ""
	s.restartURL = ""
}

// IsRestartInducing reports whether a Run timeout on the given
// classification/path should trigger a restart rather than a simple
// drop-and-log. Per §4.6: file URLs, or any URL whose path contains
// "/download".
func IsRestartInducing(isFile bool, path string) bool {
	if isFile {
		return true
	}
	return strings.Contains(path, "/download")
}
