package extract

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ramkansal/canvascrawl/internal/workerpool"
)

// Page runs the page extractor (§4.3) against w's current tab.
func Page(ctx context.Context, pool *workerpool.Pool, w *workerpool.Worker, maxChars int) (PageResult, workerpool.RunOutcome) {
	var result PageResult
	outcome := pool.Run(ctx, w, workerpool.RunFunc{Script: pageExtractorScript, Args: []any{maxChars}}, &result)
	return result, outcome
}

// FileViewer runs the file-viewer extractor (§4.3) against w's current
// tab, navigated to pageURL. pageURL backstops filename derivation when
// the in-page heading-based derivation in the script comes back empty.
func FileViewer(ctx context.Context, pool *workerpool.Pool, w *workerpool.Worker, pageURL string, maxChars int) (FileResult, workerpool.RunOutcome) {
	var result FileResult
	outcome := pool.Run(ctx, w, workerpool.RunFunc{Script: fileViewerExtractorScript, Args: []any{maxChars}}, &result)
	if result.Filename == "" {
		if u, err := url.Parse(pageURL); err == nil {
			result.Filename = filenameFromPath(u)
		} else {
			result.Filename = "file"
		}
	}
	return result, outcome
}

// ModulePrefetch runs the module-prefetch extractor (§4.3) against w's
// current tab, which must already be navigated to the course's /modules
// view.
func ModulePrefetch(ctx context.Context, pool *workerpool.Pool, w *workerpool.Worker) (PrefetchResult, workerpool.RunOutcome) {
	var result PrefetchResult
	outcome := pool.Run(ctx, w, workerpool.RunFunc{Script: modulePrefetchScript}, &result)
	return result, outcome
}

// ParsedPage is the result of ParseHTML, the Go-side goquery parser for
// a page's rendered HTML (rather than a live DOM). The crawl itself does
// not call it: pages are harvested by the in-page script. Its callers are
// the package tests, which run it against static fixture HTML.
type ParsedPage struct {
	Title string
	Links []Link
}

// ParseHTML extracts a page's <title> and outbound links from raw HTML,
// resolved against baseURL. Grounded on the teacher's LinksExtractor
// (internal/extractor/links.go) and MetadataExtractor
// (internal/extractor/metadata.go, narrowed here to just the title —
// the corpus only needs a page title as a label, not full SEO metadata).
func ParseHTML(html string, baseURL *url.URL) (ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ParsedPage{}, fmt.Errorf("extract: parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	seen := make(map[string]bool)
	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		trimmed := strings.TrimSpace(href)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "javascript:") ||
			strings.HasPrefix(trimmed, "mailto:") ||
			strings.HasPrefix(trimmed, "tel:") {
			return
		}

		resolved := resolveURL(baseURL, trimmed)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true

		lower := strings.ToLower(resolved)
		isFile := strings.Contains(lower, "/files/") || strings.Contains(lower, "/download")

		links = append(links, Link{
			URL:        resolved,
			AnchorText: strings.TrimSpace(s.Text()),
			IsFile:     isFile,
		})
	})

	return ParsedPage{Title: title, Links: links}, nil
}

func resolveURL(base *url.URL, raw string) string {
	if base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// filenameFromPath derives a display filename from a URL's final path
// segment, the same fallback the file-viewer script uses when no
// <h1>/<h2> heading is present.
func filenameFromPath(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "file"
	}
	return base
}

// BuildPage validates and truncates a PageResult into an ExtractedPage.
// ok is false if the page's text falls short of minTextLen, in which
// case the page must be dropped (but its links are still returned for
// the caller to enqueue). Pass MinTextLenToRecord/MaxPageChars for the
// default thresholds.
func BuildPage(courseID string, r PageResult, minTextLen, maxChars int, extractedAt time.Time) (page ExtractedPage, ok bool) {
	if len(r.Text) < minTextLen {
		return ExtractedPage{}, false
	}
	text := r.Text
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	return ExtractedPage{
		CourseID:    courseID,
		URL:         r.URL,
		Title:       r.Title,
		Text:        text,
		Links:       r.Links,
		ExtractedAt: extractedAt,
	}, true
}

// BuildFile validates and truncates a FileResult into an ExtractedFile.
// ok is false if the file's text falls short of minTextLen.
func BuildFile(courseID, pageURL string, r FileResult, minTextLen, maxChars int, extractedAt time.Time) (file ExtractedFile, ok bool) {
	if len(r.Text) < minTextLen {
		return ExtractedFile{}, false
	}
	text := r.Text
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	filename := r.Filename
	if filename == "" {
		if u, err := url.Parse(pageURL); err == nil {
			filename = filenameFromPath(u)
		} else {
			filename = "file"
		}
	}
	return ExtractedFile{
		CourseID:    courseID,
		URL:         pageURL,
		Filename:    filename,
		Text:        text,
		ExtractedAt: extractedAt,
	}, true
}
