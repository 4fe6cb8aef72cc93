package pagesource

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/ramonehamilton/wildcard-tally/internal/fetcher"
)

// BrowserOptions configures the Chrome instance.
type BrowserOptions struct {
	Headless          bool
	NavigationTimeout time.Duration
	UserAgent         string
	// ExecPath overrides the Chrome binary. Empty means search the usual locations.
	ExecPath string
}

// DefaultBrowserOptions returns headless defaults.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Headless:          true,
		NavigationTimeout: DefaultTimeout,
		UserAgent:         DefaultUserAgent,
	}
}

// Browser launches Chrome for the fetcher. Every session gets its own Chrome
// process, started from the shared allocator settings.
type Browser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	opts     BrowserOptions
	logger   *zap.Logger
}

var _ fetcher.Provider = (*Browser)(nil)

// NewBrowser prepares a Chrome allocator. No process is started until a session
// is opened. Close stops every process the allocator started.
func NewBrowser(ctx context.Context, opts BrowserOptions, logger *zap.Logger) *Browser {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	return &Browser{
		allocCtx: allocCtx,
		cancel:   cancel,
		opts:     opts,
		logger:   logger,
	}
}

// NewSession starts a Chrome process for one batch.
func (b *Browser) NewSession(ctx context.Context) (fetcher.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(b.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	// Running no actions starts the browser and attaches its first tab.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	b.logger.Debug("Started browser session")
	return &browserSession{
		ctx:     tabCtx,
		cancel:  cancel,
		timeout: b.opts.NavigationTimeout,
	}, nil
}

// Close shuts Chrome down.
func (b *Browser) Close() error {
	b.cancel()
	return nil
}

type browserSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// Fetch navigates the tab to url and returns the rendered document.
func (s *browserSession) Fetch(ctx context.Context, url string) (string, error) {
	navCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", &ProviderError{URL: url, Err: err}
	}
	return html, nil
}

func (s *browserSession) Close() error {
	s.cancel()
	return nil
}
