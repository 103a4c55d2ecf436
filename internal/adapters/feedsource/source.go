// Package feedsource fetches the raw results and signals feeds from a local
// file or an HTTP endpoint.
package feedsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrFetch is returned when a feed cannot be read.
var ErrFetch = errors.New("fetch feed")

// maxFeedBytes bounds a single feed download.
const maxFeedBytes = 8 << 20

// Source yields the full text of one feed.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// New picks an HTTPSource for http(s) URLs and a FileSource otherwise.
// An empty location yields an EmptySource.
func New(location string, timeout time.Duration) Source {
	loc := strings.TrimSpace(location)
	switch {
	case loc == "":
		return EmptySource{}
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return NewHTTPSource(loc, WithTimeout(timeout))
	default:
		return FileSource{Path: loc}
	}
}

// EmptySource always yields an empty feed.
type EmptySource struct{}

// Fetch implements Source.
func (EmptySource) Fetch(context.Context) (string, error) { return "", nil }

// FileSource reads a feed from disk.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return string(data), nil
}

// HTTPSource downloads a feed with GET.
type HTTPSource struct {
	url    string
	client *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithTimeout sets the client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// NewHTTPSource creates an HTTPSource for url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %s", ErrFetch, s.url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	return string(data), nil
}
