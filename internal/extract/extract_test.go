package extract

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseHTMLTitleAndLinks(t *testing.T) {
	html := `<html><head><title>  Week 3 Overview  </title></head><body>
		<a href="/courses/100/pages/syllabus">Syllabus</a>
		<a href="/courses/100/files/55/download?verifier=abc">Slides</a>
		<a href="#top">Back to top</a>
		<a href="mailto:prof@example.edu">Email</a>
		<a href="/courses/100/pages/syllabus">Syllabus dup</a>
	</body></html>`

	base, _ := url.Parse("https://canvas.example.edu/courses/100/modules")
	parsed, err := ParseHTML(html, base)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}

	if parsed.Title != "Week 3 Overview" {
		t.Fatalf("title = %q, want trimmed title", parsed.Title)
	}
	if len(parsed.Links) != 2 {
		t.Fatalf("links = %d, want 2 (dedup + anchor/mailto excluded), got %+v", len(parsed.Links), parsed.Links)
	}
	if parsed.Links[0].IsFile {
		t.Fatalf("first link should not be classified as file: %+v", parsed.Links[0])
	}
	if !parsed.Links[1].IsFile {
		t.Fatalf("second link should be classified as file: %+v", parsed.Links[1])
	}
}

func TestParseHTMLSkipsEmptyAndJavascriptHrefs(t *testing.T) {
	html := `<html><body>
		<a href="">Empty</a>
		<a href="javascript:void(0)">JS</a>
		<a href="tel:5551234567">Tel</a>
	</body></html>`

	parsed, err := ParseHTML(html, nil)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if len(parsed.Links) != 0 {
		t.Fatalf("links = %+v, want none", parsed.Links)
	}
}

func TestBuildPageDropsShortText(t *testing.T) {
	_, ok := BuildPage("100", PageResult{Text: "too short"}, MinTextLenToRecord, MaxPageChars, time.Now())
	if ok {
		t.Fatalf("expected short page to be dropped")
	}
}

func TestBuildPageTruncatesToMax(t *testing.T) {
	long := strings.Repeat("a", MaxPageChars+500)
	page, ok := BuildPage("100", PageResult{Text: long, Title: "T", URL: "https://x/1"}, MinTextLenToRecord, MaxPageChars, time.Now())
	if !ok {
		t.Fatalf("expected page to be recorded")
	}
	if len(page.Text) != MaxPageChars {
		t.Fatalf("len(text) = %d, want %d", len(page.Text), MaxPageChars)
	}
}

func TestBuildFileDerivesFilenameFromURL(t *testing.T) {
	text := strings.Repeat("b", MinTextLenToRecord)
	file, ok := BuildFile("100", "https://canvas.example.edu/courses/100/files/9?preview=1", FileResult{Text: text}, MinTextLenToRecord, MaxFileChars, time.Now())
	if !ok {
		t.Fatalf("expected file to be recorded")
	}
	if file.Filename != "9" {
		t.Fatalf("filename = %q, want derived from path", file.Filename)
	}
}

func TestBuildFilePrefersScriptFilename(t *testing.T) {
	text := strings.Repeat("b", MinTextLenToRecord)
	file, ok := BuildFile("100", "https://canvas.example.edu/courses/100/files/9?preview=1", FileResult{Text: text, Filename: "Lecture Notes.pdf"}, MinTextLenToRecord, MaxFileChars, time.Now())
	if !ok {
		t.Fatalf("expected file to be recorded")
	}
	if file.Filename != "Lecture Notes.pdf" {
		t.Fatalf("filename = %q, want script-derived name", file.Filename)
	}
}

func TestBuildFileTruncatesToMax(t *testing.T) {
	long := strings.Repeat("c", MaxFileChars+1000)
	file, ok := BuildFile("100", "https://x/files/1", FileResult{Text: long}, MinTextLenToRecord, MaxFileChars, time.Now())
	if !ok {
		t.Fatalf("expected file to be recorded")
	}
	if len(file.Text) != MaxFileChars {
		t.Fatalf("len(text) = %d, want %d", len(file.Text), MaxFileChars)
	}
}
