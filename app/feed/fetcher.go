package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/feed-ingest/app/cfg"
	"github.com/lysyi3m/feed-ingest/app/metrics"
)

// Fetcher retrieves raw feed payloads with bounded concurrency. One
// fetcher is shared across all batches; the worker count bounds the
// number of outbound connections regardless of batch size.
type Fetcher struct {
	httpClient  *http.Client
	reporter    Reporter
	recorder    metrics.Recorder
	userAgent   string
	workerCount int
	timeout     time.Duration
}

func NewFetcher(httpClient *http.Client, reporter Reporter, recorder metrics.Recorder) *Fetcher {
	c := cfg.Get()

	return &Fetcher{
		httpClient:  httpClient,
		reporter:    reporter,
		recorder:    recorder,
		userAgent:   c.UserAgent,
		workerCount: c.FetchWorkers,
		timeout:     time.Duration(c.FetchTimeout) * time.Second,
	}
}

// Run fetches every source concurrently and returns a mapping from
// user id to raw response body for each fetch that succeeded. Sources
// with a blank URL are skipped without error. Failed fetches are
// reported and excluded; they never abort the batch.
func (f *Fetcher) Run(ctx context.Context, sources []Source) map[int64][]byte {
	results := make(map[int64][]byte, len(sources))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, f.workerCount)

	for _, source := range sources {
		if strings.TrimSpace(source.URL) == "" {
			continue
		}

		wg.Add(1)
		go func(source Source) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			body, err := f.fetch(ctx, source.URL)
			f.recorder.Observe("feed_fetch", time.Since(start),
				"user_id", strconv.FormatInt(source.UserID, 10), "url", source.URL)

			if err != nil {
				f.reporter.Report(err, map[string]interface{}{
					"user_id":       source.UserID,
					"url":           source.URL,
					"failure_class": fmt.Sprintf("%T", err),
				})
				return
			}

			mu.Lock()
			results[source.UserID] = body
			mu.Unlock()
		}(source)
	}

	wg.Wait()

	return results
}

// fetch performs one GET with the per-request timeout. A non-success
// status is tolerated: the body is still returned when present, and
// whether it is usable is the parser's call.
func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body: %d %s", resp.StatusCode, resp.Status)
	}

	return body, nil
}
