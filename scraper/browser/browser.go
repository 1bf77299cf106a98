// Package browser renders JavaScript-built landing pages with headless Chrome.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"planscape/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrClosed is returned by RenderHTML after Close.
var ErrClosed = errors.New("browser: renderer closed")

// Renderer owns one headless browser process; each render opens a tab.
type Renderer struct {
	browserCtx context.Context
	cancel     context.CancelFunc

	// Settle is how long a page may run scripts before its DOM is read.
	Settle  time.Duration
	Timeout time.Duration
}

// NewRenderer starts a headless browser. chromeBin may be empty to search the
// usual install locations.
func NewRenderer(chromeBin string, logger *utils.Logger) (*Renderer, error) {
	bin := FindChromeBinary(chromeBin)
	if bin == "" {
		return nil, errors.New("browser: no Chrome/Chromium binary found")
	}
	if logger != nil {
		logger.Info("[browser] Using browser binary: %s", bin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
		chromedp.ExecPath(bin),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	return &Renderer{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		Settle:  3 * time.Second,
		Timeout: 45 * time.Second,
	}, nil
}

// RenderHTML navigates a fresh tab to url and returns the rendered document.
func (r *Renderer) RenderHTML(ctx context.Context, url string) (string, error) {
	if r.browserCtx.Err() != nil {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.Timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(r.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser: render %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() {
	r.cancel()
}

// FindChromeBinary locates Chrome/Chromium, preferring the given path and
// then CHROME_BIN.
func FindChromeBinary(preferred string) string {
	if preferred != "" {
		return preferred
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
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
