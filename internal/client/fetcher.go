package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher defines the interface for downloading source images.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageFetcher implements Fetcher over plain HTTP with a bounded
// per-request timeout.
type ImageFetcher struct {
	httpClient *http.Client
}

func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	return &ImageFetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads one image URL. Any non-2xx response is an error.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return body, nil
}
