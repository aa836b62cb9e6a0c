// Package extract implements the three page-side extraction routines
// (page extractor, file-viewer extractor, module-prefetch extractor) and
// runs them against a worker's tab.
package extract

import "time"

// §3's Extracted Page/File length invariants.
const (
	MinTextLenToRecord = 80
	MaxPageChars       = 50000
	MaxFileChars       = 200000
)

// Link is a single <a href> harvested from a page, not yet classified as
// page or file — that happens downstream in the scheduler via
// internal/normalize.
type Link struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchorText"`
	IsFile     bool   `json:"isFile"`
}

// PageResult is the structured return value of the page extractor
// script, decoded from JSON via browser.Tab.Eval.
type PageResult struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Links []Link `json:"links"`
}

// FileResult is the structured return value of the file-viewer
// extractor script.
type FileResult struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// PrefetchResult is the structured return value of the module-prefetch
// extractor: the deduplicated set of file-looking hrefs found in the
// course's /modules view once every collapsible section is expanded.
type PrefetchResult struct {
	FileURLs []string `json:"fileUrls"`
}

// ExtractedPage is a stored, validated page result: §3's Extracted Page.
type ExtractedPage struct {
	CourseID    string
	URL         string
	Title       string
	Text        string
	Links       []Link
	ExtractedAt time.Time
}

// ExtractedFile is a stored, validated file result: §3's Extracted File.
type ExtractedFile struct {
	CourseID    string
	URL         string
	Filename    string
	Text        string
	ExtractedAt time.Time
}
