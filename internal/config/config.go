// Package config builds a crawl.Config from CLI flags merged with an
// optional YAML file, CLI values always winning (§6.1).
//
// Grounded on the teacher's CrawlConfig/DefaultConfig
// (internal/crawler/options.go), generalized from a single-site flag
// set to the multi-course canvas crawler's configuration surface.
package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ramkansal/canvascrawl/internal/crawl"
)

// Course mirrors crawl.CourseSeed in a YAML-friendly shape.
type Course struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"displayName"`
	BaseURL     string `yaml:"baseUrl"`
}

// Cookie mirrors one http.Cookie field subset that operators actually
// need to supply by hand (name/value/domain), in a YAML-friendly shape.
type Cookie struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Domain string `yaml:"domain"`
}

// File is the on-disk YAML shape loaded via --config. Every field is a
// pointer or zero-value-means-unset so CLI flags can tell "file said so"
// apart from "operator never mentioned it" when merging.
type File struct {
	Courses           []Course `yaml:"courses"`
	Cookies           []Cookie `yaml:"cookies"`
	SyllabusOnly      bool     `yaml:"syllabusOnly"`
	PoolSize          int      `yaml:"poolSize"`
	MaxLinksPerCourse int      `yaml:"maxLinksPerCourse"`
	MinTextLen        int      `yaml:"minTextLen"`
	MaxPageChars      int      `yaml:"maxPageChars"`
	MaxFileChars      int      `yaml:"maxFileChars"`
	ExcludedCourseIDs []string `yaml:"excludedCourseIds"`
	GlobalRestartAbort bool    `yaml:"globalRestartAbort"`
	RestartTeardownMS  int     `yaml:"restartTeardownMs"`
	MaxRestarts        int     `yaml:"maxRestarts"`
	OutputPath         string  `yaml:"outputPath"`
	Silent             bool    `yaml:"silent"`
	NoColor            bool    `yaml:"noColor"`
}

// LoadFile reads and parses a YAML config file.
func LoadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// Flags is the CLI-facing option set, one field per flag, populated by
// cmd/canvascrawl's hand-rolled parser in the teacher's style.
type Flags struct {
	ConfigFile string

	CourseIDs       []string // --course, repeatable "id=displayName=baseURL"
	CookieHeader    string   // --cookies, raw "name=value; name2=value2"
	CookieDomain    string

	SyllabusOnly       bool
	PoolSize           int
	MaxLinksPerCourse  int
	MinTextLen         int
	ExcludedCourseIDs  []string
	GlobalRestartAbort bool
	RestartTeardownMS  int
	MaxRestarts        int

	OutputPath string
	Silent     bool
	Verbose    bool
	NoColor    bool
}

// DefaultFlags returns gofang-style baseline values for every numeric
// flag, mirroring the teacher's DefaultConfig.
func DefaultFlags() Flags {
	return Flags{
		PoolSize:          6,
		MaxLinksPerCourse: 250,
		MinTextLen:        80,
		RestartTeardownMS: 1500,
		MaxRestarts:       20,
	}
}

// Build merges an optional file with the CLI flags (flags win on every
// field the operator actually set) and produces a crawl.Config.
func Build(f Flags, file *File) (crawl.Config, error) {
	cfg := crawl.Config{
		SyllabusOnly:       f.SyllabusOnly,
		PoolSize:           f.PoolSize,
		MaxLinksPerCourse:  f.MaxLinksPerCourse,
		MinTextLen:         f.MinTextLen,
		ExcludedCourseIDs:  f.ExcludedCourseIDs,
		GlobalRestartAbort: f.GlobalRestartAbort,
		MaxRestarts:        f.MaxRestarts,
	}
	if f.RestartTeardownMS > 0 {
		cfg.RestartTeardownDelay = time.Duration(f.RestartTeardownMS) * time.Millisecond
	}

	if file != nil {
		if cfg.PoolSize == 0 {
			cfg.PoolSize = file.PoolSize
		}
		if cfg.MaxLinksPerCourse == 0 {
			cfg.MaxLinksPerCourse = file.MaxLinksPerCourse
		}
		if cfg.MinTextLen == 0 {
			cfg.MinTextLen = file.MinTextLen
		}
		if cfg.MaxPageChars == 0 {
			cfg.MaxPageChars = file.MaxPageChars
		}
		if cfg.MaxFileChars == 0 {
			cfg.MaxFileChars = file.MaxFileChars
		}
		if !cfg.SyllabusOnly {
			cfg.SyllabusOnly = file.SyllabusOnly
		}
		if !cfg.GlobalRestartAbort {
			cfg.GlobalRestartAbort = file.GlobalRestartAbort
		}
		if cfg.MaxRestarts == 0 {
			cfg.MaxRestarts = file.MaxRestarts
		}
		if cfg.RestartTeardownDelay == 0 && file.RestartTeardownMS > 0 {
			cfg.RestartTeardownDelay = time.Duration(file.RestartTeardownMS) * time.Millisecond
		}
		if len(cfg.ExcludedCourseIDs) == 0 {
			cfg.ExcludedCourseIDs = file.ExcludedCourseIDs
		}
		for _, c := range file.Courses {
			cfg.Courses = append(cfg.Courses, crawl.CourseSeed{ID: c.ID, DisplayName: c.DisplayName, BaseURL: c.BaseURL})
		}
		for _, c := range file.Cookies {
			cfg.SessionCookies = append(cfg.SessionCookies, &http.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain})
		}
	}

	if len(cfg.Courses) == 0 {
		return cfg, fmt.Errorf("config: no courses configured (use --course or a --config file's courses: list)")
	}
	return cfg, nil
}
