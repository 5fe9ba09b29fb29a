package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"image-scanner/pkg/extract"
	"image-scanner/pkg/fetch"
	"image-scanner/pkg/parse"
	"image-scanner/pkg/utils"
)

// Options configures a single crawl invocation.
type Options struct {
	BaseURL     string
	MaxPages    int      // Page budget, >=1
	Concurrency int      // Max in-flight fetches across the whole crawl, >=1
	Keywords    []string // Optional lowercase keyword filter for images
}

// Result is the outcome of one crawl invocation. Partial results are
// preserved and surfaced when the crawl was cancelled.
type Result struct {
	Images       []string // Discovered image URLs in discovery order
	PagesVisited int
	Cancelled    bool
	Duration     time.Duration
}

// Progress is a point-in-time snapshot polled by the presentation layer.
type Progress struct {
	PagesVisited    int
	ImagesFound     int
	CurrentActivity string
}

// crawlState is the mutable state owned by exactly one Run invocation.
// Workers return data; only the orchestrating goroutine mutates these maps,
// so no locks guard them.
type crawlState struct {
	visited    map[string]struct{} // Pages fetched or enqueued for fetch
	frontier   []string            // FIFO queue of canonical URLs awaiting fetch
	discovered map[string]struct{} // Image URL set
	imageOrder []string            // Discovery order for deterministic results
}

// Scheduler orchestrates the BFS frontier, concurrency-limited fetch
// dispatch, cancellation checks and progress reporting. A Scheduler may run
// many crawls, one at a time per Progress consumer.
type Scheduler struct {
	fetcher   *fetch.PageFetcher
	extractor *extract.Extractor
	log       *logrus.Entry

	progressMu sync.Mutex
	progress   Progress
}

// NewScheduler creates a Scheduler from its two collaborators.
func NewScheduler(fetcher *fetch.PageFetcher, extractor *extract.Extractor, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		fetcher:   fetcher,
		extractor: extractor,
		log:       log,
	}
}

// Progress returns the current progress snapshot. Safe to call from any
// goroutine while a crawl runs.
func (s *Scheduler) Progress() Progress {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	return s.progress
}

func (s *Scheduler) setActivity(activity string) {
	s.progressMu.Lock()
	s.progress.CurrentActivity = activity
	s.progressMu.Unlock()
}

func (s *Scheduler) setCounts(pagesVisited, imagesFound int) {
	s.progressMu.Lock()
	s.progress.PagesVisited = pagesVisited
	s.progress.ImagesFound = imagesFound
	s.progressMu.Unlock()
}

// batchResult carries one page's extraction back to the orchestrating loop.
type batchResult struct {
	images []string
	links  []string
}

// Run executes a breadth-first crawl of the base URL's host until the
// frontier empties, the page budget is exhausted, or ctx is cancelled.
// Cancellation is cooperative and non-destructive: in-flight fetches finish
// naturally, no new work is dispatched, and results accumulated so far are
// returned. The only hard error is an unusable base URL.
func (s *Scheduler) Run(ctx context.Context, opts Options) (Result, error) {
	startTime := time.Now()

	parsedBase, err := url.Parse(opts.BaseURL)
	if err != nil || parsedBase.Host == "" || parsedBase.Scheme == "" {
		if err == nil {
			err = fmt.Errorf("missing scheme or host")
		}
		return Result{}, fmt.Errorf("%w: base URL %q: %w", utils.ErrMalformedURL, opts.BaseURL, err)
	}

	// The host filter must see the same form the frontier carries: hostnames
	// are case-insensitive and default ports are stripped during
	// normalization, so derive the host from the normalized seed rather than
	// the caller's raw spelling.
	seed := parse.NormalizeURL(parsedBase)
	seedParsed, err := url.Parse(seed)
	if err != nil {
		return Result{}, fmt.Errorf("%w: base URL %q: %w", utils.ErrMalformedURL, opts.BaseURL, err)
	}
	baseHost := seedParsed.Host

	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	runLog := s.log.WithFields(logrus.Fields{
		"run_id":    uuid.New().String(),
		"base_host": baseHost,
	})
	runLog.WithFields(logrus.Fields{
		"base_url":    opts.BaseURL,
		"max_pages":   maxPages,
		"concurrency": concurrency,
		"keywords":    opts.Keywords,
	}).Info("Crawl starting")

	state := &crawlState{
		visited:    make(map[string]struct{}),
		frontier:   []string{seed},
		discovered: make(map[string]struct{}),
	}
	s.setCounts(0, 0)
	s.setActivity("Starting...")

	// The semaphore, not the batch grouping, is the true admission control:
	// it bounds simultaneous in-flight requests across the whole crawl.
	sem := semaphore.NewWeighted(int64(concurrency))

	cancelled := false
	batchNum := 0
	for len(state.frontier) > 0 && len(state.visited) < maxPages {
		// Checkpoint (a): before each batch draw
		if ctx.Err() != nil {
			runLog.Warnf("Cancellation observed before batch %d: %v", batchNum, ctx.Err())
			cancelled = true
			break
		}

		batch := s.drawBatch(state, baseHost, concurrency, maxPages)
		if len(batch) == 0 {
			// Frontier exhausted or every remaining entry was host-mismatched
			// or already visited
			break
		}
		batchNum++
		batchLog := runLog.WithField("batch", batchNum)
		batchLog.Debugf("Dispatching batch of %d page(s)", len(batch))

		results := s.fetchBatch(ctx, sem, batch, opts.Keywords, batchLog)

		// Merge: only this goroutine touches state
		for _, res := range results {
			for _, img := range res.images {
				if _, seen := state.discovered[img]; !seen {
					state.discovered[img] = struct{}{}
					state.imageOrder = append(state.imageOrder, img)
				}
			}
			for _, link := range res.links {
				if _, seen := state.visited[link]; seen {
					continue
				}
				if !parse.SameHost(link, baseHost) {
					continue
				}
				if len(state.visited) >= maxPages {
					continue
				}
				state.frontier = append(state.frontier, link)
			}
		}

		s.setCounts(len(state.visited), len(state.discovered))
		s.setActivity(fmt.Sprintf("Crawled %d page(s), %d image(s) found", len(state.visited), len(state.discovered)))
	}

	result := Result{
		Images:       state.imageOrder,
		PagesVisited: len(state.visited),
		Cancelled:    cancelled,
		Duration:     time.Since(startTime),
	}
	s.setCounts(result.PagesVisited, len(result.Images))
	if cancelled {
		s.setActivity("Cancelled")
	} else {
		s.setActivity("Completed")
	}

	runLog.WithFields(logrus.Fields{
		"pages_visited": result.PagesVisited,
		"images_found":  len(result.Images),
		"batches":       batchNum,
		"cancelled":     cancelled,
		"duration":      result.Duration.String(),
	}).Info("Crawl finished")

	return result, nil
}

// drawBatch pops up to min(concurrency, frontier, remaining budget) URLs from
// the front of the frontier. Entries already visited or off-host are skipped
// without consuming a fetch slot. Every drawn URL is marked visited before
// dispatch so no URL is fetched twice within or across batches.
func (s *Scheduler) drawBatch(state *crawlState, baseHost string, concurrency, maxPages int) []string {
	target := concurrency
	if remaining := maxPages - len(state.visited); remaining < target {
		target = remaining
	}
	if target <= 0 {
		return nil
	}

	var batch []string
	for len(batch) < target && len(state.frontier) > 0 {
		u := state.frontier[0]
		state.frontier = state.frontier[1:]
		if _, seen := state.visited[u]; seen {
			continue
		}
		if !parse.SameHost(u, baseHost) {
			continue
		}
		state.visited[u] = struct{}{}
		batch = append(batch, u)
	}
	return batch
}

// fetchBatch fetches all batch URLs concurrently, bounded by the crawl-wide
// semaphore, and blocks until the whole batch has resolved. A failed page
// yields an empty batchResult; per-page failure never aborts the crawl.
func (s *Scheduler) fetchBatch(ctx context.Context, sem *semaphore.Weighted, batch []string, keywords []string, batchLog *logrus.Entry) []batchResult {
	results := make([]batchResult, len(batch))
	var wg sync.WaitGroup
	for i, pageURL := range batch {
		wg.Add(1)
		go func(idx int, pageURL string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return // Cancelled while waiting for a slot
			}
			defer sem.Release(1)

			// Checkpoint (b): just before the fetch would do work
			if ctx.Err() != nil {
				return
			}

			s.setActivity("Fetching " + pageURL)
			// Once dispatched, a fetch is allowed to finish naturally even if
			// the crawl is cancelled meanwhile; the client's own timeout is
			// the per-request bound.
			html, fetchErr := s.fetcher.FetchPage(context.WithoutCancel(ctx), pageURL)
			if fetchErr != nil {
				batchLog.WithFields(logrus.Fields{
					"url":      pageURL,
					"category": utils.CategorizeError(fetchErr),
				}).Warnf("Page fetch failed, treating as empty: %v", fetchErr)
				return
			}

			extracted := s.extractor.Extract(pageURL, html, keywords)
			results[idx] = batchResult{images: extracted.Images, links: extracted.Links}
		}(i, pageURL)
	}
	wg.Wait()
	return results
}
