// Package snapshot renders the running dashboard in headless Chrome and
// returns a PNG of the full page.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"avocadoanalytics/internal/config"
)

// Defaults used when Options leaves a field zero
const (
	DefaultWidth   = 1280
	DefaultHeight  = 900
	DefaultWait    = 500 * time.Millisecond
	DefaultTimeout = 30 * time.Second
)

// ErrInvalidURL is returned when the dashboard URL is not an absolute http(s) URL
var ErrInvalidURL = errors.New("snapshot url must be an absolute http or https url")

// Options configures a capture
type Options struct {
	URL     string
	Width   int
	Height  int
	Wait    time.Duration // extra settle time after the charts are drawn
	Timeout time.Duration
	// Headful shows the browser window, useful when debugging layouts
	Headful bool
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Wait < 0 {
		o.Wait = 0
	} else if o.Wait == 0 {
		o.Wait = DefaultWait
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) validate() error {
	u, err := url.Parse(o.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, o.URL)
	}
	return nil
}

// chartSelectors are the Plotly roots that must be drawn before the screenshot
func chartSelectors() []string {
	return []string{
		"#" + config.PriceChartID + " .main-svg",
		"#" + config.VolumeChartID + " .main-svg",
	}
}

// Tasks returns the browser actions of one capture, writing the PNG into buf
func Tasks(opts Options, buf *[]byte) chromedp.Tasks {
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
	}
	for _, sel := range chartSelectors() {
		tasks = append(tasks, chromedp.WaitVisible(sel, chromedp.ByQuery))
	}
	if opts.Wait > 0 {
		tasks = append(tasks, chromedp.Sleep(opts.Wait))
	}
	// quality 100 yields a lossless PNG
	tasks = append(tasks, chromedp.FullScreenshot(buf, 100))
	return tasks
}

// Capture opens opts.URL, waits for both charts and returns a full page PNG
func Capture(ctx context.Context, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
		chromedp.WindowSize(opts.Width, opts.Height),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancelTimeout()

	start := time.Now()
	var buf []byte
	if err := chromedp.Run(browserCtx, Tasks(opts, &buf)); err != nil {
		return nil, fmt.Errorf("capture %s: %w", opts.URL, err)
	}

	opts.Logger.InfoContext(ctx, "dashboard snapshot captured",
		slog.String("url", opts.URL),
		slog.Int("bytes", len(buf)),
		slog.Duration("duration", time.Since(start)))

	return buf, nil
}
