package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/pkg/types"
)

// Session fetches listing pages for the duration of one scrape job and is
// released exactly once when the job ends.
type Session interface {
	Fetch(ctx context.Context, pageURL string, pt sources.PageType) (*types.Page, error)
	Close()
}

// BrowserOptions configures the headless browser session.
type BrowserOptions struct {
	Headless     bool
	NoSandbox    bool
	UserAgent    string
	NavTimeout   time.Duration
	ReadyTimeout time.Duration
	SettleDelay  time.Duration
}

// BrowserSession runs one headless Chrome instance with a single tab that
// is reused across every page of a job.
type BrowserSession struct {
	opts   BrowserOptions
	logger *slog.Logger

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

// NewBrowserSession launches the browser. Failures surface here rather
// than on the first page fetch.
func NewBrowserSession(ctx context.Context, opts BrowserOptions, logger *slog.Logger) (*BrowserSession, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 10 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if opts.NoSandbox {
		execOpts = append(execOpts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	if ua := strings.TrimSpace(selectUserAgent(opts.UserAgent)); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}

	// The session outlives in-flight cancellation: a cancel request is
	// honoured at page boundaries, never mid-navigation, so the browser
	// lifetime is controlled solely by Close.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), execOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &BrowserSession{
		opts:        opts,
		logger:      logger,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Fetch navigates the session tab to the page, applies the page type's
// readiness policy, and exports the rendered DOM.
func (s *BrowserSession) Fetch(ctx context.Context, pageURL string, pt sources.PageType) (*types.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reqURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("parse url: %w", err)}
	}

	logger := s.logger.With("url", pageURL, "page_type", pt.ID)
	start := time.Now()

	navCtx, cancel := context.WithTimeout(s.ctx, s.opts.NavTimeout)
	err = chromedp.Run(navCtx, chromedp.Navigate(pageURL))
	cancel()
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("navigate: %w", err)}
	}

	if wait := pt.WaitSelector(); wait != "" {
		readyCtx, cancel := context.WithTimeout(s.ctx, s.opts.ReadyTimeout)
		err = chromedp.Run(readyCtx, chromedp.WaitReady(wait, chromedp.ByQuery))
		cancel()
		if err != nil {
			return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("wait for %q: %w", wait, err)}
		}
	}

	if pt.Readiness.ScrollToBottom {
		settle := pt.Readiness.Settle.Duration
		if settle <= 0 {
			settle = s.opts.SettleDelay
		}
		err = chromedp.Run(s.ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(settle),
		)
		if err != nil {
			return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("scroll settle: %w", err)}
		}
	}

	var html string
	var finalURL string
	err = chromedp.Run(s.ctx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("export dom: %w", err)}
	}

	parsedFinal := reqURL
	if finalURL != "" {
		if u, err := url.Parse(finalURL); err == nil {
			parsedFinal = u
		}
	}

	latency := time.Since(start)
	logger.Debug("page rendered", "latency_ms", latency.Milliseconds(), "html_bytes", len(html))

	return &types.Page{
		URL:             reqURL,
		FinalURL:        parsedFinal,
		Body:            []byte(html),
		FetchedAt:       time.Now(),
		Rendered:        true,
		ResponseLatency: latency,
	}, nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *BrowserSession) Close() {
	s.closeOnce.Do(func() {
		s.cancelTab()
		s.cancelAlloc()
	})
}

func selectUserAgent(base string) string {
	if strings.TrimSpace(base) != "" {
		return base
	}
	return "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"
}
