package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/feed-ingest/app/cfg"
	"github.com/lysyi3m/feed-ingest/app/metrics"
)

// ErrUnsupportedFormat is returned when no registered format parser
// accepts a payload.
var ErrUnsupportedFormat = errors.New("unsupported feed format")

// Parser converts raw payloads into structured feeds with bounded
// concurrency. Format dispatch goes through the registry: the detect
// step picks the matching strategy, with the remaining strategies
// tried in priority order as a fallback.
type Parser struct {
	formats     []FormatParser
	reporter    Reporter
	recorder    metrics.Recorder
	workerCount int
}

func NewParser(reporter Reporter, recorder metrics.Recorder) *Parser {
	c := cfg.Get()

	return &Parser{
		formats:     []FormatParser{newRSSFormat(), newAtomFormat(), newJSONFormat()},
		reporter:    reporter,
		recorder:    recorder,
		workerCount: c.ParseWorkers,
	}
}

// Run parses every payload concurrently and returns a mapping from
// user id to parsed feed for each body that parsed successfully.
// Unparseable bodies are reported and excluded, never aborting the
// batch.
func (p *Parser) Run(ctx context.Context, payloads map[int64][]byte) map[int64]*Parsed {
	results := make(map[int64]*Parsed, len(payloads))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workerCount)

	for userID, body := range payloads {
		wg.Add(1)
		go func(userID int64, body []byte) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			default:
			}

			start := time.Now()
			parsed, err := p.parse(body)
			p.recorder.Observe("feed_parse", time.Since(start),
				"user_id", strconv.FormatInt(userID, 10))

			if err != nil {
				p.reporter.Report(err, map[string]interface{}{
					"user_id":       userID,
					"failure_class": fmt.Sprintf("%T", err),
				})
				return
			}

			mu.Lock()
			results[userID] = parsed
			mu.Unlock()
		}(userID, body)
	}

	wg.Wait()

	return results
}

func (p *Parser) parse(data []byte) (*Parsed, error) {
	feedType := gofeed.DetectFeedType(bytes.NewReader(data))

	var firstErr error
	tried := make(map[string]bool, len(p.formats))

	for _, format := range p.formats {
		if !format.Matches(feedType) {
			continue
		}
		parsed, err := format.Parse(data)
		if err == nil {
			return parsed, nil
		}
		firstErr = err
		tried[format.Name()] = true
	}

	// Detection failed or the detected strategy rejected the payload;
	// fall back to trying the remaining strategies in priority order.
	for _, format := range p.formats {
		if tried[format.Name()] {
			continue
		}
		parsed, err := format.Parse(data)
		if err == nil {
			return parsed, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, firstErr)
	}
	return nil, ErrUnsupportedFormat
}
