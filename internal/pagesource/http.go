package pagesource

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ramonehamilton/wildcard-tally/internal/fetcher"
)

// HTTPOptions configures the direct HTTP provider.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultHTTPOptions returns the default HTTP options.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// HTTP loads pages with plain GET requests. Each session owns one client and
// therefore one connection pool.
type HTTP struct {
	opts   HTTPOptions
	logger *zap.Logger
}

var _ fetcher.Provider = (*HTTP)(nil)

// NewHTTP creates an HTTP provider.
func NewHTTP(opts HTTPOptions, logger *zap.Logger) *HTTP {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{opts: opts, logger: logger}
}

// NewSession creates a client for one batch.
func (h *HTTP) NewSession(ctx context.Context) (fetcher.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := resty.New().
		SetTimeout(h.opts.Timeout).
		SetHeader("User-Agent", h.opts.UserAgent).
		SetHeader("Accept", "application/json")

	return &httpSession{client: client, logger: h.logger}, nil
}

// Close is a no-op; sessions release their own connections.
func (h *HTTP) Close() error {
	return nil
}

type httpSession struct {
	client *resty.Client
	logger *zap.Logger
}

// Fetch GETs url and wraps the body in a <pre> block.
func (s *httpSession) Fetch(ctx context.Context, url string) (string, error) {
	res, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", &ProviderError{URL: url, Err: err}
	}
	if res.IsError() {
		return "", &ProviderError{
			URL:        url,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("unexpected response %q", res.Status()),
		}
	}

	s.logger.Debug("Fetched page",
		zap.String("url", url),
		zap.Int("status", res.StatusCode()),
		zap.Duration("took", res.Time()))

	return RenderJSONViewer(res.String()), nil
}

func (s *httpSession) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}

// RenderJSONViewer wraps a raw response body the way Chrome displays JSON documents.
func RenderJSONViewer(body string) string {
	return `<html><head><meta name="color-scheme" content="light dark"></head><body>` +
		`<pre style="word-wrap: break-word; white-space: pre-wrap;">` +
		html.EscapeString(body) +
		`</pre></body></html>`
}
