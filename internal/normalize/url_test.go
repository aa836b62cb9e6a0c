package normalize

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestNormalize(t *testing.T) {
	n := New("canvas.example.edu")
	base := mustParse(t, "https://canvas.example.edu/courses/9/assignments")

	tests := []struct {
		name      string
		raw       string
		courseID  string
		want      string
		wantError bool
	}{
		{
			name:     "in-course relative page",
			raw:      "/courses/9/modules",
			courseID: "9",
			want:     "https://canvas.example.edu/courses/9/modules",
		},
		{
			name:     "download link coerced to preview with verifier stripped",
			raw:      "https://canvas.example.edu/courses/9/files/123/download?verifier=x",
			courseID: "9",
			want:     "https://canvas.example.edu/courses/9/files/123?preview=1",
		},
		{
			name:     "file from another course is allowed",
			raw:      "https://canvas.example.edu/courses/42/files/7?preview=1",
			courseID: "9",
			want:     "https://canvas.example.edu/courses/42/files/7?preview=1",
		},
		{
			name:      "page outside a course is rejected",
			raw:       "https://canvas.example.edu/dashboard",
			courseID:  "9",
			wantError: true,
		},
		{
			name:      "page from another course is rejected",
			raw:       "https://canvas.example.edu/courses/42/assignments",
			courseID:  "9",
			wantError: true,
		},
		{
			name:      "forbidden path is rejected",
			raw:       "https://canvas.example.edu/courses/9/conversations/1",
			courseID:  "9",
			wantError: true,
		},
		{
			name:      "out-of-scope host is rejected",
			raw:       "https://evil.example.com/courses/9/modules",
			courseID:  "9",
			wantError: true,
		},
		{
			name:      "anchor-only href is rejected",
			raw:       "#top",
			courseID:  "9",
			wantError: true,
		},
		{
			name:      "javascript scheme is rejected",
			raw:       "javascript:void(0)",
			courseID:  "9",
			wantError: true,
		},
		{
			name:     "fragment is stripped",
			raw:      "https://canvas.example.edu/courses/9/modules#module_123",
			courseID: "9",
			want:     "https://canvas.example.edu/courses/9/modules",
		},
		{
			name:     "non-whitelisted query param is stripped",
			raw:      "https://canvas.example.edu/courses/9/modules?foo=bar&module_item_id=5",
			courseID: "9",
			want:     "https://canvas.example.edu/courses/9/modules?module_item_id=5",
		},
		{
			name:     "trailing slash preserved",
			raw:      "https://canvas.example.edu/courses/9/",
			courseID: "9",
			want:     "https://canvas.example.edu/courses/9/",
		},
		{
			name:     "host is lowercased",
			raw:      "https://CANVAS.EXAMPLE.EDU/courses/9/grades",
			courseID: "9",
			want:     "https://canvas.example.edu/courses/9/grades",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw, base, tt.courseID)
			if tt.wantError {
				if err == nil {
					t.Fatalf("Normalize(%q) = %q, nil; want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New("canvas.example.edu")
	base := mustParse(t, "https://canvas.example.edu/courses/9/assignments")

	raw := "https://canvas.example.edu/courses/9/files/123/download?verifier=x&module_item_id=5"
	once, err := n.Normalize(raw, base, "9")
	if err != nil {
		t.Fatalf("first normalize: %v", err)
	}

	againBase := mustParse(t, once)
	twice, err := n.Normalize(once, againBase, "9")
	if err != nil {
		t.Fatalf("second normalize: %v", err)
	}

	if once != twice {
		t.Errorf("normalize is not idempotent: %q != %q", once, twice)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Classification
	}{
		{"https://canvas.example.edu/courses/9/modules", Page},
		{"https://canvas.example.edu/courses/9/files/123?preview=1", File},
		{"https://canvas.example.edu/courses/9/files/handout.pdf", File},
		{"https://canvas.example.edu/courses/9/assignments/syllabus", Page},
		{"https://canvas.example.edu/courses/9/download/report.csv", File},
	}

	for _, tt := range tests {
		if got := Classify(tt.url); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
