package parser

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultMaxRedirects = 5
	defaultMaxBytes     = 10 * 1024 * 1024
	defaultUserAgent    = "Mozilla/5.0 (compatible; DailyCast/1.0)"
	feedAccept          = "application/rss+xml, application/atom+xml, application/xml, text/xml, */*"
	previewLimit        = 100
)

// FetcherConfig tunes a Fetcher. Zero values use the defaults above.
type FetcherConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBytes     int64
	UserAgent    string
}

// FetchResult is the decoded body of a successful fetch plus diagnostics.
type FetchResult struct {
	Body       []byte
	StatusCode int
	Preview    string
}

// FetchError carries the HTTP status of a failed fetch when one was received.
type FetchError struct {
	URL        string
	StatusCode int
	Preview    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: http %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads feed documents, following a bounded number of redirects
// and decoding gzip or deflate bodies.
type Fetcher struct {
	client *http.Client
	config FetcherConfig
}

// NewFetcher builds a fetcher. A nil client gets the configured timeout.
func NewFetcher(client *http.Client, cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	var base http.Client
	if client != nil {
		base = *client
	}
	if base.Timeout <= 0 {
		base.Timeout = cfg.Timeout
	}
	maxRedirects := cfg.MaxRedirects
	base.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return fmt.Errorf("too many redirects (%d)", len(via))
		}
		return nil
	}

	return &Fetcher{client: &base, config: cfg}
}

// Fetch performs a GET and returns the decoded body. Only 200 counts as success.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", feedAccept)
	// Setting Accept-Encoding explicitly disables the transport's transparent gzip.
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, f.config.MaxBytes))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	preview := truncateRunes(string(data), previewLimit)
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Preview:    preview,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return &FetchResult{Body: data, StatusCode: resp.StatusCode, Preview: preview}, nil
}

func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case "deflate":
		return newDeflateReader(resp.Body)
	default:
		return io.NopCloser(resp.Body), nil
	}
}

// newDeflateReader accepts both zlib-wrapped and raw deflate streams,
// since servers disagree on what "deflate" means.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header) {
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return zr, nil
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(b []byte) bool {
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}
