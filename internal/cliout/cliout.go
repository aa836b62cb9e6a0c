// Package cliout prints crawl progress and the final summary to the
// terminal in the teacher's colorized, dimmed-ANSI style.
//
// Grounded on the teacher's clr/fmtDur/handleEvent helpers
// (cmd/gofang/main.go) and its plain-text mirror (internal/output/text.go),
// adapted from a single-site crawl.Events() channel to the canvas
// crawler's per-course ProgressEvent/ErrorEntry callbacks.
package cliout

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ramkansal/canvascrawl/internal/crawl"
)

// Printer renders ProgressEvent/ErrorEntry callbacks to an io.Writer,
// serializing output from however many course goroutines call it
// concurrently.
type Printer struct {
	w       io.Writer
	noColor bool
	mu      sync.Mutex
}

// New returns a Printer writing to w. When noColor is true, ANSI escape
// codes are omitted (e.g. when stdout isn't a terminal).
func New(w io.Writer, noColor bool) *Printer {
	return &Printer{w: w, noColor: noColor}
}

// OnProgress is a crawl.Config.OnProgress callback.
func (p *Printer) OnProgress(e crawl.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mark := p.clr("green", "#")
	if e.Done {
		mark = p.clr("cyan", "v")
	}
	fmt.Fprintf(p.w, "  %s [%s] %s %s\n",
		mark, e.CourseID, e.Message,
		p.clr("dim", fmt.Sprintf("(%d scraped)", e.ScrapedCount)),
	)
}

// OnError is a crawl.Config.OnError callback.
func (p *Printer) OnError(e crawl.ErrorEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "  %s [%s] %s: %s\n",
		p.clr("red", "x"), e.CourseID, e.Kind, e.Message,
	)
}

// Banner prints the startup banner with the resolved run configuration.
func (p *Printer) Banner(courseCount, poolSize int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\n  %s\n", p.clr("cyan", "canvascrawl"))
	fmt.Fprintf(p.w, "  %s %d   %s %d\n\n",
		p.clr("dim", "Courses:"), courseCount,
		p.clr("dim", "Pool:"), poolSize,
	)
}

// Summary prints the final result counts.
func (p *Printer) Summary(result crawl.CrawlResult, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pages, files := 0, 0
	for _, c := range result.Courses {
		pages += len(c.Pages)
		files += len(c.Files)
	}

	fmt.Fprintf(p.w, "\n  %s\n", strings.Repeat("-", 50))
	fmt.Fprintf(p.w, "  %s Crawl complete in %s\n", p.clr("green", "done"), fmtDur(elapsed))
	fmt.Fprintf(p.w, "    Courses: %d    Pages: %d    Files: %d    Errors: %d\n",
		len(result.Courses), pages, files, len(result.Errors))
}

func (p *Printer) clr(color, text string) string {
	if p.noColor {
		return text
	}
	codes := map[string]string{
		"red":   "\033[31m",
		"green": "\033[32m",
		"cyan":  "\033[36m",
		"dim":   "\033[2m",
	}
	c, ok := codes[color]
	if !ok {
		return text
	}
	return c + text + "\033[0m"
}

func fmtDur(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
