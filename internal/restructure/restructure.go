// Package restructure provides a no-op crawl.Restructurer for standalone
// runs that have no external LLM post-processor configured: it passes
// the raw extracted corpus through untouched rather than summarizing it.
//
// The real restructuring step is an external collaborator (§1 Non-goals,
// §3.1); this package exists only so cmd/canvascrawl has a concrete
// value to wire when the operator hasn't pointed it at one.
package restructure

import (
	"strings"

	"github.com/ramkansal/canvascrawl/internal/crawl"
)

// Passthrough implements crawl.Restructurer by concatenating every
// page's and file's text into Summary verbatim, performing no
// summarization.
type Passthrough struct{}

func (Passthrough) Restructure(input crawl.RestructurerInput) (crawl.RestructurerOutput, error) {
	var b strings.Builder
	for _, p := range input.Pages {
		b.WriteString(p.Title)
		b.WriteString("\n")
		b.WriteString(p.Text)
		b.WriteString("\n\n")
	}
	for _, f := range input.Files {
		b.WriteString(f.Filename)
		b.WriteString("\n")
		b.WriteString(f.Text)
		b.WriteString("\n\n")
	}
	return crawl.RestructurerOutput{CourseID: input.CourseID, Summary: b.String()}, nil
}
