// Package fetch retrieves invoice documents over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"billscan/internal/domain"
	"billscan/internal/port"
)

// Config holds HTTP fetcher settings.
type Config struct {
	// Timeout bounds a single download end to end.
	Timeout time.Duration
	// MaxDocumentBytes caps the response body size; zero means no cap.
	MaxDocumentBytes int64
}

// DefaultConfig returns download defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		MaxDocumentBytes: 50 << 20,
	}
}

type httpFetcher struct {
	client *http.Client
	cfg    Config
}

// NewHTTPFetcher creates a DocumentFetcher for http:// and https:// URLs.
func NewHTTPFetcher(cfg Config) port.DocumentFetcher {
	return &httpFetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

// Fetch downloads the document at the URL. Timeouts map to
// domain.ErrDownloadTimeout, other transport and status failures to
// domain.ErrDownloadFailed, and non-HTTP schemes to
// domain.ErrUnsupportedScheme.
func (f *httpFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, domain.ErrUnsupportedScheme
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", domain.ErrDownloadFailed)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, domain.ErrDownloadTimeout
		}
		return nil, fmt.Errorf("get %s: %w", rawURL, domain.ErrDownloadFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d: %w", rawURL, resp.StatusCode, domain.ErrDownloadFailed)
	}
	if f.cfg.MaxDocumentBytes > 0 && resp.ContentLength > f.cfg.MaxDocumentBytes {
		return nil, domain.ErrDocumentTooLarge
	}

	body := io.Reader(resp.Body)
	if f.cfg.MaxDocumentBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxDocumentBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, domain.ErrDownloadTimeout
		}
		return nil, fmt.Errorf("read %s: %w", rawURL, domain.ErrDownloadFailed)
	}
	if f.cfg.MaxDocumentBytes > 0 && int64(len(data)) > f.cfg.MaxDocumentBytes {
		return nil, domain.ErrDocumentTooLarge
	}
	return data, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

// MultiFetcher routes URLs to scheme-specific fetchers.
type MultiFetcher struct {
	byScheme map[string]port.DocumentFetcher
}

// NewMultiFetcher builds a router over scheme → fetcher.
func NewMultiFetcher(byScheme map[string]port.DocumentFetcher) *MultiFetcher {
	return &MultiFetcher{byScheme: byScheme}
}

// Fetch dispatches on the URL scheme.
func (m *MultiFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, domain.ErrUnsupportedScheme
	}
	f, ok := m.byScheme[u.Scheme]
	if !ok {
		return nil, domain.ErrUnsupportedScheme
	}
	return f.Fetch(ctx, rawURL)
}
