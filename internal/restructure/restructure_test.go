package restructure

import (
	"strings"
	"testing"

	"github.com/ramkansal/canvascrawl/internal/crawl"
	"github.com/ramkansal/canvascrawl/internal/extract"
)

func TestPassthroughConcatenatesPagesAndFiles(t *testing.T) {
	input := crawl.RestructurerInput{
		CourseID: "100",
		Pages:    []extract.ExtractedPage{{Title: "Home", Text: "welcome"}},
		Files:    []extract.ExtractedFile{{Filename: "slides.pdf", Text: "slide content"}},
	}

	out, err := Passthrough{}.Restructure(input)
	if err != nil {
		t.Fatalf("Restructure: %v", err)
	}
	if out.CourseID != "100" {
		t.Fatalf("CourseID = %q, want 100", out.CourseID)
	}
	if !strings.Contains(out.Summary, "welcome") || !strings.Contains(out.Summary, "slide content") {
		t.Fatalf("Summary = %q, want both page and file text present", out.Summary)
	}
}
