package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/chromedp/chromedp"

	"apppulse/utils"
)

// AllCategories is the slug used for the unfiltered dashboard.
const AllCategories = "all"

// Options configures a capture run.
type Options struct {
	BaseURL        string
	OutDir         string
	ChromeBin      string
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	Width          int
	Height         int
	PageTimeout    time.Duration
}

// Target is one dashboard page to capture.
type Target struct {
	Category string
	URL      string
	File     string
}

// Shot is the outcome of capturing one Target.
type Shot struct {
	Target
	Bytes int
	Err   error
}

// Capturer takes full-page screenshots of the dashboard with headless Chrome.
type Capturer struct {
	opts   Options
	logger *utils.Logger
	pool   *utils.WorkerPool
	seen   *utils.KeySet
	retry  *utils.RetryConfig
}

// New creates a Capturer.
func New(opts Options, logger *utils.Logger) *Capturer {
	if opts.Width <= 0 {
		opts.Width = 1440
	}
	if opts.Height <= 0 {
		opts.Height = 900
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 60 * time.Second
	}
	logger = logger.With("snapshot")
	return &Capturer{
		opts:   opts,
		logger: logger,
		pool:   utils.NewWorkerPool(opts.MaxConcurrency, opts.RateLimitMs),
		seen:   utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Targets lists the unfiltered dashboard followed by one page per category.
// Categories that map to the same file are captured once.
func Targets(baseURL string, categories []string) []Target {
	base := strings.TrimRight(baseURL, "/")
	seen := utils.NewKeySet()
	out := []Target{{Category: AllCategories, URL: base + "/", File: AllCategories + ".png"}}
	seen.Add(AllCategories)

	for _, c := range categories {
		slug := Slug(c)
		if !seen.Add(slug) {
			continue
		}
		q := url.Values{"category": {c}}
		out = append(out, Target{
			Category: c,
			URL:      base + "/?" + q.Encode(),
			File:     slug + ".png",
		})
	}
	return out
}

// Slug turns a category name into a safe file name stem.
func Slug(category string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(category)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "uncategorized"
	}
	return s
}

// Capture screenshots every target into OutDir. It returns the shots in
// target order and a joined error describing every failed capture.
func (c *Capturer) Capture(ctx context.Context, targets []Target) ([]Shot, error) {
	if err := os.MkdirAll(c.opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot: create output dir: %w", err)
	}

	chromeBin := FindChromeBinary(c.opts.ChromeBin)
	c.logger.Info("Capturing %d pages from %s (browser: %s)", len(targets), c.opts.BaseURL, displayBin(chromeBin))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(c.opts.Width, c.opts.Height),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// One browser for every tab; chromedp log output is dropped.
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("snapshot: start browser: %w", err)
	}

	// Each job writes only its own slot.
	results := make([]*Shot, len(targets))
	for i, t := range targets {
		i, t := i, t
		if !c.seen.Add(t.URL) {
			c.logger.Debug("Skipping duplicate: %s", t.URL)
			continue
		}
		c.pool.Submit(func() {
			shot := &Shot{Target: t}
			shot.Bytes, shot.Err = c.captureOne(browserCtx, t)
			if shot.Err != nil {
				c.logger.Warn("Capture failed for %s: %v", t.URL, shot.Err)
			} else {
				c.logger.Info("Saved %s (%d KB)", t.File, shot.Bytes/1024)
			}
			results[i] = shot
		})
	}
	c.pool.Wait()

	var shots []Shot
	var errs []error
	for _, s := range results {
		if s == nil {
			continue
		}
		shots = append(shots, *s)
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Category, s.Err))
		}
	}
	return shots, errors.Join(errs...)
}

func (c *Capturer) captureOne(browserCtx context.Context, t Target) (int, error) {
	var size int

	err := c.retry.Do(browserCtx, "capture-"+Slug(t.Category), func(context.Context) error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.opts.PageTimeout)
		defer cancelTimeout()

		var buf []byte
		err := chromedp.Run(tabCtx,
			chromedp.EmulateViewport(int64(c.opts.Width), int64(c.opts.Height)),
			chromedp.Navigate(t.URL),
			chromedp.WaitReady("main", chromedp.ByQuery),
			// Give Plotly time to draw.
			chromedp.Sleep(2*time.Second),
			chromedp.FullScreenshot(&buf, 100),
		)
		if err != nil {
			return fmt.Errorf("chromedp screenshot: %w", err)
		}

		path := filepath.Join(c.opts.OutDir, t.File)
		if err := os.WriteFile(path, buf, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		size = len(buf)
		return nil
	})
	return size, err
}

func displayBin(bin string) string {
	if bin == "" {
		return "chromedp default"
	}
	return bin
}

// FindChromeBinary locates a Chrome or Chromium binary. An explicit override
// wins, then CHROME_BIN, then the usual names on PATH and install locations.
// It returns "" to let chromedp use its own lookup.
func FindChromeBinary(override string) string {
	if override != "" {
		return override
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
