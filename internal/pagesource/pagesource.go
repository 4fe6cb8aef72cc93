// Package pagesource renders catalog pages for the fetcher.
//
// Browser drives headless Chrome, which is what the catalog expects of its visitors.
// HTTP requests the API directly and presents the response the way Chrome's JSON
// viewer would, so both providers feed the same extractor.
package pagesource

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultUserAgent identifies the client to the catalog.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0 Safari/537.36"
	// DefaultTimeout bounds a single page load.
	DefaultTimeout = 30 * time.Second
)

// Kind names a provider implementation.
type Kind string

const (
	KindBrowser Kind = "browser"
	KindHTTP    Kind = "http"
)

// ParseKind parses a provider name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindBrowser, KindHTTP:
		return k, nil
	}
	return "", fmt.Errorf("unknown page source %q (want browser or http)", s)
}

// ProviderError reports a page that could not be loaded.
type ProviderError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("load %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
