// Package normalize canonicalizes canvas URLs and classifies them as a
// page, a file, or rejected. It has no dependencies beyond the standard
// library and no side effects: the same input always normalizes and
// classifies to the same output.
package normalize

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Classification tags a normalized URL as a page, a file, or rejected.
type Classification int

const (
	Rejected Classification = iota
	Page
	File
)

func (c Classification) String() string {
	switch c {
	case Page:
		return "page"
	case File:
		return "file"
	default:
		return "rejected"
	}
}

// allowedQueryParams is the query-parameter whitelist; every other
// parameter is stripped during normalization.
var allowedQueryParams = map[string]bool{
	"module_item_id": true,
	"course_id":      true,
	"preview":        true,
}

// forbiddenPaths are substrings that reject a URL outright regardless of
// host or classification.
var forbiddenPaths = []string{
	"/login",
	"/conversations",
	"/calendar",
	"/profile",
	"/settings/profile",
	"/settings/notifications",
}

// fileExtensions are document extensions that classify a URL as a file
// independent of path shape.
var fileExtensions = []string{
	".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx", ".csv", ".txt", ".md", ".rtf",
}

var courseIDPath = regexp.MustCompile(`/courses/(\d+)`)

// Normalizer canonicalizes URLs against a fixed set of canvas hosts.
//
// Grounded on the teacher's Sanitize/Key/InScope trio (crawler.go,
// cametumbling-web-crawler/util.go), generalized from single-host
// allow-listing to canvas's multi-host + forbidden-path + course-scoping
// rules.
type Normalizer struct {
	// Hosts is the set of lowercase canvas hostnames in scope. A URL
	// whose host is not in this set is Rejected.
	Hosts map[string]bool
}

// New builds a Normalizer for the given canvas hostnames.
func New(hosts ...string) *Normalizer {
	h := make(map[string]bool, len(hosts))
	for _, host := range hosts {
		h[strings.ToLower(host)] = true
	}
	return &Normalizer{Hosts: h}
}

// Normalize resolves raw against base, strips its fragment and
// non-whitelisted query parameters, and rejects it if it falls outside
// the crawlable surface for contextCourseID. Files are allowed to
// reference a different course than contextCourseID because canvas file
// IDs are globally scoped; pages are not.
func (n *Normalizer) Normalize(raw string, base *url.URL, contextCourseID string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("normalize: empty URL")
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "javascript:") {
		return "", fmt.Errorf("normalize: %q is not a navigable URL", raw)
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("normalize: parse %q: %w", raw, err)
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("normalize: unsupported scheme %q", resolved.Scheme)
	}
	resolved.Host = strings.ToLower(resolved.Host)
	if !n.Hosts[resolved.Host] {
		return "", fmt.Errorf("normalize: host %q out of scope", resolved.Host)
	}
	resolved.Fragment = ""

	lowerPath := strings.ToLower(resolved.Path)
	for _, forbidden := range forbiddenPaths {
		if strings.Contains(lowerPath, forbidden) {
			return "", fmt.Errorf("normalize: path %q is forbidden", resolved.Path)
		}
	}

	isFileish := strings.Contains(lowerPath, "/files/") || strings.Contains(lowerPath, "/download") || hasFileExtension(lowerPath)

	if !isFileish {
		m := courseIDPath.FindStringSubmatch(resolved.Path)
		if m == nil {
			return "", fmt.Errorf("normalize: path %q is not inside a course", resolved.Path)
		}
		if contextCourseID != "" && m[1] != contextCourseID {
			return "", fmt.Errorf("normalize: path %q belongs to a different course", resolved.Path)
		}
	}

	q := resolved.Query()
	filtered := url.Values{}
	for k, v := range q {
		if allowedQueryParams[k] {
			filtered[k] = v
		}
	}

	// A /files/ path is coerced to its "preview" form regardless of
	// whether it also carries a /download suffix: the viewer renders
	// extractable text, the raw download endpoint does not. Any
	// ?verifier=... token is dropped along with the rest of the
	// non-whitelisted query.
	if strings.Contains(lowerPath, "/files/") {
		if idx := strings.Index(strings.ToLower(resolved.Path), "/download"); idx != -1 {
			resolved.Path = resolved.Path[:idx]
		}
		filtered.Set("preview", "1")
	}

	resolved.RawQuery = filtered.Encode()
	return resolved.String(), nil
}

// Classify tags an already-normalized URL as Page or File. Normalize
// never returns a URL that should be Rejected, so Classify is total over
// its output.
func Classify(normalized string) Classification {
	u, err := url.Parse(normalized)
	if err != nil {
		return Rejected
	}
	lowerPath := strings.ToLower(u.Path)
	if strings.Contains(lowerPath, "/files/") || strings.Contains(lowerPath, "/download") || hasFileExtension(lowerPath) {
		return File
	}
	return Page
}

func hasFileExtension(lowerPath string) bool {
	ext := strings.ToLower(path.Ext(lowerPath))
	for _, allowed := range fileExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
