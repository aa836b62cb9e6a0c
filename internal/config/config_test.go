package config

import (
	"testing"
)

func TestBuildMergesFileWithFlagsPreferringFlags(t *testing.T) {
	file := &File{
		Courses:           []Course{{ID: "100", DisplayName: "Intro", BaseURL: "https://canvas.example.edu/courses/100"}},
		PoolSize:          4,
		MaxLinksPerCourse: 100,
	}
	flags := DefaultFlags()
	flags.PoolSize = 9 // operator override should win over file

	cfg, err := Build(flags, file)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.PoolSize != 9 {
		t.Fatalf("PoolSize = %d, want 9 (flag wins)", cfg.PoolSize)
	}
	if len(cfg.Courses) != 1 || cfg.Courses[0].ID != "100" {
		t.Fatalf("Courses = %+v, want course 100 from file", cfg.Courses)
	}
}

func TestBuildFallsBackToFileWhenFlagUnset(t *testing.T) {
	file := &File{
		Courses:           []Course{{ID: "100", BaseURL: "https://canvas.example.edu/courses/100"}},
		MaxLinksPerCourse: 42,
	}
	flags := Flags{} // zero value: nothing set by the operator

	cfg, err := Build(flags, file)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.MaxLinksPerCourse != 42 {
		t.Fatalf("MaxLinksPerCourse = %d, want 42 from file", cfg.MaxLinksPerCourse)
	}
}

func TestBuildErrorsWithNoCourses(t *testing.T) {
	_, err := Build(DefaultFlags(), nil)
	if err == nil {
		t.Fatalf("expected error when no courses are configured")
	}
}

func TestBuildCarriesCookiesFromFile(t *testing.T) {
	file := &File{
		Courses: []Course{{ID: "100", BaseURL: "https://canvas.example.edu/courses/100"}},
		Cookies: []Cookie{{Name: "session", Value: "abc", Domain: "canvas.example.edu"}},
	}
	cfg, err := Build(DefaultFlags(), file)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cfg.SessionCookies) != 1 || cfg.SessionCookies[0].Value != "abc" {
		t.Fatalf("SessionCookies = %+v, want session=abc", cfg.SessionCookies)
	}
}
