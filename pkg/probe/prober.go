package probe

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// SizeProber determines resource byte sizes with metadata-only HEAD requests.
// A probe never downloads the body and never fails the overall call: any
// per-URL failure (timeout, non-2xx, missing or invalid Content-Length,
// connection error) resolves that URL's size to 0.0.
type SizeProber struct {
	client    *http.Client
	userAgent string
	log       *logrus.Entry
}

// NewSizeProber creates a SizeProber sharing the crawl's HTTP client.
func NewSizeProber(client *http.Client, userAgent string, log *logrus.Entry) *SizeProber {
	return &SizeProber{
		client:    client,
		userAgent: userAgent,
		log:       log,
	}
}

// Sizes probes every URL concurrently, bounded by a semaphore of the given
// concurrency, and returns sizes in KB (rounded to 2 decimal places) in the
// same order as the input. timeout bounds each individual request. The call
// returns once every URL has resolved, success or fallback.
func (p *SizeProber) Sizes(ctx context.Context, urls []string, concurrency int, timeout time.Duration) []float64 {
	sizes := make([]float64, len(urls))
	if len(urls) == 0 {
		return sizes
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup
	for i, u := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled mid-probe; remaining URLs keep the 0.0 fallback
			p.log.Warnf("Size probe cancelled with %d of %d URLs resolved: %v", i, len(urls), err)
			break
		}
		wg.Add(1)
		go func(idx int, probeURL string) {
			defer wg.Done()
			defer sem.Release(1)
			// Workers write disjoint indexes, so no lock is needed
			sizes[idx] = p.headSize(ctx, probeURL, timeout)
		}(i, u)
	}
	wg.Wait()
	return sizes
}

// headSize issues one HEAD request and converts Content-Length to KB.
// Returns 0.0 on any failure.
func (p *SizeProber) headSize(ctx context.Context, probeURL string, timeout time.Duration) float64 {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
	if err != nil {
		p.log.WithField("url", probeURL).Debugf("Probe request creation failed: %v", err)
		return 0.0
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.WithField("url", probeURL).Debugf("Probe failed: %v", err)
		return 0.0
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.WithFields(logrus.Fields{"url": probeURL, "status": resp.StatusCode}).Debug("Probe got non-2xx status")
		return 0.0
	}

	lengthHeader := resp.Header.Get("Content-Length")
	byteCount, parseErr := strconv.ParseInt(lengthHeader, 10, 64)
	if parseErr != nil || byteCount < 0 {
		p.log.WithFields(logrus.Fields{"url": probeURL, "content_length": lengthHeader}).Debug("Probe got missing or invalid Content-Length")
		return 0.0
	}

	return RoundKB(byteCount)
}

// RoundKB converts bytes to kilobytes rounded to 2 decimal places.
func RoundKB(bytes int64) float64 {
	return math.Round(float64(bytes)/1024.0*100) / 100
}
