// Command canvascrawl drives an authenticated crawl of one or more
// Canvas LMS courses and writes the extracted corpus to a blob store.
//
// Grounded on the teacher's cmd/gofang/main.go: flag parsing
// (parseFlags/flags struct), buildConfig, the Ctrl+C -> Stop() wiring,
// and the colorized event printer, all generalized from a single-site
// crawl to a multi-course canvas crawl.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ramkansal/canvascrawl/internal/blobstore"
	"github.com/ramkansal/canvascrawl/internal/browser"
	"github.com/ramkansal/canvascrawl/internal/cliout"
	"github.com/ramkansal/canvascrawl/internal/config"
	"github.com/ramkansal/canvascrawl/internal/crawl"
	"github.com/ramkansal/canvascrawl/internal/restructure"
)

var version = "0.1.0"

// flags holds all parsed CLI options, in the teacher's hand-rolled style.
type flags struct {
	courses    []string // repeatable "id=displayName=baseURL"
	cookies    string   // "name=value; name2=value2"
	cookieHost string

	configFile string

	syllabusOnly bool
	poolSize     int
	maxLinks     int
	minTextLen   int
	excluded     []string
	globalAbort  bool
	maxRestarts  int

	dbPath  string
	silent  bool
	noColor bool

	showHelp    bool
	showVersion bool
}

func main() {
	f := parseFlags()

	if f.showVersion {
		fmt.Printf("canvascrawl v%s\n", version)
		os.Exit(0)
	}
	if f.showHelp {
		printUsage()
		os.Exit(0)
	}

	cfg, err := buildCrawlConfig(f)
	if err != nil {
		fatal("%v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	printer := cliout.New(os.Stdout, f.noColor)
	cfg.Logger = logger
	cfg.OnProgress = printer.OnProgress
	cfg.OnError = printer.OnError

	store, closeStore, err := openStore(f.dbPath)
	if err != nil {
		fatal("open blob store: %v", err)
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	registerSignals(sig)
	go func() {
		<-sig
		fmt.Fprintf(os.Stderr, "\n  interrupt received, stopping...\n")
		cancel()
	}()

	enableANSI()
	if !f.silent {
		printer.Banner(len(cfg.Courses), cfg.PoolSize)
	}

	started := time.Now()
	newBrowser := func(ctx context.Context) (browser.Context, error) {
		return browser.Launch(true)
	}

	result, err := crawl.StartCrawl(ctx, cfg, newBrowser)
	if err != nil {
		logger.Error("crawl did not complete cleanly", "error", err)
	}

	if !f.silent {
		printer.Summary(result, time.Since(started))
	}

	restructurer := restructure.Passthrough{}
	for id, course := range result.Courses {
		out, err := restructurer.Restructure(crawl.RestructurerInput{
			CourseID:    id,
			DisplayName: course.DisplayName,
			Pages:       course.Pages,
			Files:       course.Files,
		})
		if err != nil {
			logger.Error("restructure failed", "courseId", id, "error", err)
			continue
		}
		if err := store.Put(ctx, "course:"+id, []byte(out.Summary)); err != nil {
			logger.Error("blob store write failed", "courseId", id, "error", err)
		}
	}

	if err != nil {
		os.Exit(1)
	}
}

func openStore(path string) (crawl.BlobStore, func(), error) {
	if path == "" {
		m := blobstore.NewMemory()
		return m, func() {}, nil
	}
	b, err := blobstore.OpenBBolt(path)
	if err != nil {
		return nil, nil, err
	}
	return b, func() { _ = b.Close() }, nil
}

func buildCrawlConfig(f flags) (crawl.Config, error) {
	// Only values the operator passed go into flagSet; anything left at
	// zero falls back to the --config file, then to crawl's defaults.
	var flagSet config.Flags
	flagSet.SyllabusOnly = f.syllabusOnly
	if f.poolSize > 0 {
		flagSet.PoolSize = f.poolSize
	}
	if f.maxLinks > 0 {
		flagSet.MaxLinksPerCourse = f.maxLinks
	}
	if f.minTextLen > 0 {
		flagSet.MinTextLen = f.minTextLen
	}
	flagSet.ExcludedCourseIDs = f.excluded
	flagSet.GlobalRestartAbort = f.globalAbort
	if f.maxRestarts > 0 {
		flagSet.MaxRestarts = f.maxRestarts
	}

	var file *config.File
	if f.configFile != "" {
		loaded, err := config.LoadFile(f.configFile)
		if err != nil {
			return crawl.Config{}, err
		}
		file = &loaded
	}

	// --course values are merged in before Build, which rejects a
	// config with no courses.
	if len(f.courses) > 0 {
		if file == nil {
			file = &config.File{}
		}
		for _, raw := range f.courses {
			seed, err := parseCourseFlag(raw)
			if err != nil {
				return crawl.Config{}, err
			}
			file.Courses = append(file.Courses, config.Course{ID: seed.ID, DisplayName: seed.DisplayName, BaseURL: seed.BaseURL})
		}
	}

	cfg, err := config.Build(flagSet, file)
	if err != nil {
		return crawl.Config{}, err
	}

	if len(cfg.Courses) == 0 {
		return crawl.Config{}, fmt.Errorf("no courses configured: pass --course or --config")
	}

	if f.cookies != "" {
		cfg.SessionCookies = parseCookieHeader(f.cookies, f.cookieHost)
	}

	return cfg, nil
}

func parseCourseFlag(raw string) (crawl.CourseSeed, error) {
	parts := strings.SplitN(raw, "=", 3)
	if len(parts) != 3 {
		return crawl.CourseSeed{}, fmt.Errorf("--course %q: want \"id=displayName=baseURL\"", raw)
	}
	return crawl.CourseSeed{ID: parts[0], DisplayName: parts[1], BaseURL: parts[2]}, nil
}

// ---------- Flag parsing ----------

func parseFlags() flags {
	f := flags{}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() string {
			if i+1 < len(args) {
				i++
				return args[i]
			}
			fatal("flag %s requires an argument", arg)
			return ""
		}
		nextInt := func() int {
			v := next()
			var n int
			fmt.Sscanf(v, "%d", &n)
			return n
		}

		switch arg {
		case "--course":
			f.courses = append(f.courses, next())
		case "--cookies":
			f.cookies = next()
		case "--cookie-host":
			f.cookieHost = next()
		case "--config":
			f.configFile = next()
		case "--syllabus-only":
			f.syllabusOnly = true
		case "-p", "--pool-size":
			f.poolSize = nextInt()
		case "-ml", "--max-links":
			f.maxLinks = nextInt()
		case "-mt", "--min-text-len":
			f.minTextLen = nextInt()
		case "-x", "--exclude":
			f.excluded = append(f.excluded, next())
		case "--global-restart-abort":
			f.globalAbort = true
		case "--max-restarts":
			f.maxRestarts = nextInt()
		case "-db", "--db":
			f.dbPath = next()
		case "-s", "--silent":
			f.silent = true
		case "-nc", "--no-color":
			f.noColor = true
		case "-h", "--help":
			f.showHelp = true
		case "-V", "--version":
			f.showVersion = true
		default:
			fmt.Fprintf(os.Stderr, "Unknown flag: %s (use --help for usage)\n", arg)
			os.Exit(1)
		}
	}
	return f
}

func printUsage() {
	fmt.Print(`
canvascrawl - authenticated Canvas LMS crawler

USAGE:
  canvascrawl --course "100=Intro CS=https://canvas.example.edu/courses/100" --cookies "session=..."
  canvascrawl --config crawl.yaml

COURSES:
  --course <id=displayName=baseURL>   one course to crawl (repeatable)
  --config <path>                     YAML config file (courses, cookies, limits)
  --cookies <string>                  "name=value; name2=value2" session cookies
  --cookie-host <string>              cookie domain to attach

CRAWL:
  -p,  --pool-size <int>              worker tab count (default 6)
  -ml, --max-links <int>              max pages per course (default 250)
  -mt, --min-text-len <int>           min text length to store an item (default 80)
  -x,  --exclude <courseId>           course ID to skip (repeatable)
       --syllabus-only                only crawl syllabus-relevant links
       --global-restart-abort         abort all courses, not just one, on restart
       --max-restarts <int>           give up after this many pool restarts (default 20)

OUTPUT:
  -db, --db <path>                    bbolt database path (default: in-memory only)
  -s,  --silent                       suppress progress output
  -nc, --no-color                     disable colored output

META:
  -h,  --help                         show this help message
  -V,  --version                      show version

`)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\n  ERROR: %s\n\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
