// Package capture takes a screenshot of the rendered dashboard with headless Chrome.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// readySelector is set by app.js once the first book has been drawn.
const readySelector = `body[data-ready="1"]`

type Options struct {
	URL     string        // dashboard URL, e.g. http://127.0.0.1:8087/
	Width   int64         // viewport width in CSS pixels
	Height  int64         // viewport height in CSS pixels
	Wait    time.Duration // overall timeout
	Logger  *slog.Logger  // optional: route chromedp logs to slog
	Quality int           // PNG when 100, JPEG otherwise
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture url required")
	}
	if _, err := url.Parse(o.URL); err != nil {
		return fmt.Errorf("bad capture url: %w", err)
	}
	if o.Width <= 0 {
		o.Width = 1600
	}
	if o.Height <= 0 {
		o.Height = 1000
	}
	if o.Wait <= 0 {
		o.Wait = 45 * time.Second
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 100
	}
	return nil
}

// Screenshot loads the dashboard, waits for the first render and returns the
// full-page image bytes.
func Screenshot(ctx context.Context, opts Options) ([]byte, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(int(opts.Width), int(opts.Height)),
	)
	actx, acancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer acancel()

	var ctxOpts []chromedp.ContextOption
	if opts.Logger != nil {
		ctxOpts = append(ctxOpts,
			chromedp.WithLogf(func(f string, a ...any) { opts.Logger.Debug(fmt.Sprintf(f, a...)) }),
			chromedp.WithDebugf(func(string, ...any) {}),
			chromedp.WithErrorf(func(f string, a ...any) { opts.Logger.Warn(fmt.Sprintf(f, a...)) }),
		)
	}
	cctx, cancel := chromedp.NewContext(actx, ctxOpts...)
	defer cancel()

	cctx, timeoutCancel := context.WithTimeout(cctx, opts.Wait)
	defer timeoutCancel()

	var buf []byte
	err := chromedp.Run(cctx,
		emulation.SetDeviceMetricsOverride(opts.Width, opts.Height, 1, false),
		chromedp.Navigate(opts.URL),
		chromedp.WaitReady(readySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, opts.Quality),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", opts.URL, err)
	}
	return buf, nil
}

// ToFile writes a screenshot of the dashboard to path.
func ToFile(ctx context.Context, opts Options, path string) error {
	b, err := Screenshot(ctx, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
