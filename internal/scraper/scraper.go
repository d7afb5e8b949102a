package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// TransportError reports a failed page fetch: either the request never
// completed or the server answered with a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PageFetcher retrieves the live blog page
type PageFetcher struct {
	pageURL   string
	userAgent string
	timeout   time.Duration
}

// NewPageFetcher creates a fetcher for a single page
func NewPageFetcher(pageURL, userAgent string, timeout time.Duration) *PageFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &PageFetcher{
		pageURL:   pageURL,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// URL returns the page being watched
func (pf *PageFetcher) URL() string {
	return pf.pageURL
}

// Fetch downloads the page and returns its markup. Any status outside the
// 2xx range is a *TransportError.
func (pf *PageFetcher) Fetch(ctx context.Context) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(pf.userAgent),
		colly.StdlibContext(ctx),
		colly.MaxBodySize(0),
	)
	if pf.timeout > 0 {
		c.SetRequestTimeout(pf.timeout)
	}
	// Let every status reach OnResponse so the 2xx check below is the only one.
	c.ParseHTTPErrorResponse = true

	var (
		status int
		body   []byte
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	if err := c.Visit(pf.pageURL); err != nil {
		return "", &TransportError{URL: pf.pageURL, Err: err}
	}
	if status < 200 || status > 299 {
		return "", &TransportError{URL: pf.pageURL, StatusCode: status}
	}

	return string(body), nil
}
