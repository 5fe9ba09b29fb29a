package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"image-scanner/pkg/utils"
)

// PageFetcher retrieves page text for the crawler using an underlying
// http.Client. There is deliberately no retry mechanism: a failed fetch is a
// terminal, empty-result outcome for that page and the crawl proceeds.
type PageFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	log          *logrus.Entry
}

// NewPageFetcher creates a PageFetcher. maxBodyBytes caps how much of a
// response body is read; <=0 disables the cap.
func NewPageFetcher(client *http.Client, userAgent string, maxBodyBytes int64, log *logrus.Entry) *PageFetcher {
	return &PageFetcher{
		client:       client,
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

// FetchPage performs a single GET for pageURL and returns the page text.
// Errors are categorized with the pkg/utils sentinels so the scheduler can
// map each of them to the empty-page fallback:
//   - ErrTimeout for deadline/cancellation during the request
//   - ErrTransport for connection, DNS and TLS failures
//   - ErrHTTPStatus for non-2xx responses
//   - ErrContentType when the response is not text/HTML-like
func (f *PageFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", utils.ErrRequestCreation, pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: fetching %q: %w", utils.ErrTimeout, pageURL, err)
		}
		return "", fmt.Errorf("%w: fetching %q: %w", utils.ErrTransport, pageURL, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d %s for %q", utils.ErrHTTPStatus, resp.StatusCode, resp.Status, pageURL)
	}

	// Non-text responses are treated as empty pages, not parse candidates
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text") && !strings.Contains(contentType, "html") {
		return "", fmt.Errorf("%w: %q for %q", utils.ErrContentType, contentType, pageURL)
	}

	reader := io.Reader(resp.Body)
	if f.maxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBodyBytes)
	}
	body, readErr := io.ReadAll(reader)
	if readErr != nil {
		return "", fmt.Errorf("%w: reading %q: %w", utils.ErrBodyRead, pageURL, readErr)
	}

	f.log.WithFields(logrus.Fields{"url": pageURL, "bytes": len(body)}).Debug("Fetched page")
	return string(body), nil
}
