package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/policygenius/backend-go/internal/errors"
)

// Fetcher 按URL下载源文档，超时与非2xx都归为FetchError
type Fetcher struct {
	client *http.Client
}

// NewFetcher 创建下载器，timeout限定整个请求
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch 下载文档字节与Content-Type
func (f *Fetcher) Fetch(ctx context.Context, documentURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return nil, "", apperrors.NewFetchError("invalid document URL").WithCause(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", apperrors.NewFetchError("failed to download document").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", apperrors.NewFetchError(
			fmt.Sprintf("document server returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperrors.NewFetchError("failed to read document body").WithCause(err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}
