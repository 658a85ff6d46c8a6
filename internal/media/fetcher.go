package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pmani/ad-mosaic/internal/pkg/httpretry"
)

// maxAssetSize caps a single fetched creative at 50MB.
const maxAssetSize = 50 << 20

// Fetcher downloads creative assets with retries on transient failures.
type Fetcher struct {
	client  httpretry.HTTPDoer
	timeout time.Duration
}

// NewFetcher builds a fetcher. A zero timeout means no per-asset deadline
// beyond the caller's context.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:  httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 3),
		timeout: timeout,
	}
}

// NewFetcherWithClient is for tests.
func NewFetcherWithClient(client httpretry.HTTPDoer) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads one asset and returns its bytes and sniffed content type.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > maxAssetSize {
		return nil, "", fmt.Errorf("asset %s exceeds %d bytes", url, maxAssetSize)
	}
	return data, DetectContentType(data), nil
}

// DetectContentType sniffs the asset type from magic bytes.
func DetectContentType(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
		return "image/png"
	}
	if len(data) >= 6 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
		return "image/gif"
	}
	if len(data) >= 12 && data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
		data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
		return "image/webp"
	}
	if len(data) >= 12 && data[4] == 'f' && data[5] == 't' && data[6] == 'y' && data[7] == 'p' {
		return "video/mp4"
	}
	return "application/octet-stream"
}
