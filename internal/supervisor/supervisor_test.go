package supervisor

import "testing"

func TestRequestRestartOnlyFirstWins(t *testing.T) {
	s := New()
	if ok := s.RequestRestart("100", "https://x/files/1", ReasonFileTimeout); !ok {
		t.Fatalf("first RequestRestart should be accepted")
	}
	if ok := s.RequestRestart("200", "https://x/files/2", ReasonFileTimeout); ok {
		t.Fatalf("second RequestRestart before Reset should be rejected")
	}

	courseID, url, reason := s.Details()
	if courseID != "100" || url != "https://x/files/1" || reason != ReasonFileTimeout {
		t.Fatalf("Details() = (%q, %q, %v), want original request", courseID, url, reason)
	}
}

func TestResetAllowsNextRestart(t *testing.T) {
	s := New()
	s.RequestRestart("100", "https://x/files/1", ReasonFileTimeout)
	s.Reset()

	if _, inFlight := s.InFlight(); inFlight {
		t.Fatalf("InFlight() = true after Reset, want false")
	}
	if ok := s.RequestRestart("200", "https://x/files/2", ReasonDownloadTimeout); !ok {
		t.Fatalf("RequestRestart after Reset should be accepted")
	}
}

func TestIsRestartInducing(t *testing.T) {
	cases := []struct {
		isFile bool
		path   string
		want   bool
	}{
		{true, "/courses/1/files/9", true},
		{false, "/courses/1/files/9/download", true},
		{false, "/courses/1/pages/syllabus", false},
	}
	for _, c := range cases {
		if got := IsRestartInducing(c.isFile, c.path); got != c.want {
			t.Errorf("IsRestartInducing(%v, %q) = %v, want %v", c.isFile, c.path, got, c.want)
		}
	}
}
