package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/feed-ingest/app/cfg"
	"github.com/lysyi3m/feed-ingest/app/database"
	"github.com/lysyi3m/feed-ingest/app/feed"
	"github.com/lysyi3m/feed-ingest/app/metrics"
)

// Importer drives the whole pipeline: batch user selection, concurrent
// fetch and parse, per-entry filtering/assembly/persistence, watermark
// updates and metrics. Batches never overlap; entries within a pair
// persist strictly sequentially.
type Importer struct {
	users       database.UserRepository
	articles    database.ArticleRepository
	fetcher     *feed.Fetcher
	parser      *feed.Parser
	extractor   *feed.Extractor // optional, nil when content extraction is disabled
	replyFilter *ReplyFilter
	duplicates  *DuplicateDetector
	assembler   *Assembler
	recorder    metrics.Recorder
	reporter    Reporter
	batchSize   int

	runMu       sync.Mutex
	statsMu     sync.Mutex
	lastRunAt   *time.Time
	lastCreated int
}

func NewImporter(users database.UserRepository, articles database.ArticleRepository,
	fetcher *feed.Fetcher, parser *feed.Parser, extractor *feed.Extractor,
	replyFilter *ReplyFilter, duplicates *DuplicateDetector, assembler *Assembler,
	recorder metrics.Recorder, reporter Reporter) *Importer {
	c := cfg.Get()

	return &Importer{
		users:       users,
		articles:    articles,
		fetcher:     fetcher,
		parser:      parser,
		extractor:   extractor,
		replyFilter: replyFilter,
		duplicates:  duplicates,
		assembler:   assembler,
		recorder:    recorder,
		reporter:    reporter,
		batchSize:   c.BatchSize,
	}
}

// Run imports feeds for every due user, batch by batch, and returns
// the total number of documents created. olderThan restricts the run
// to users whose watermark is missing or older than the cutoff; nil
// selects every user with a feed URL. Only batch selection errors
// surface; everything downstream is reported and isolated.
func (i *Importer) Run(ctx context.Context, olderThan *time.Time) (int, error) {
	if !i.runMu.TryLock() {
		return 0, fmt.Errorf("import already running")
	}
	defer i.runMu.Unlock()

	start := time.Now()
	totalCreated := 0
	var afterID int64

	for {
		select {
		case <-ctx.Done():
			return totalCreated, ctx.Err()
		default:
		}

		users, err := i.users.GetDueBatch(afterID, i.batchSize, olderThan)
		if err != nil {
			return totalCreated, fmt.Errorf("failed to select user batch: %w", err)
		}
		if len(users) == 0 {
			break
		}

		totalCreated += i.processBatch(ctx, users)
		afterID = users[len(users)-1].ID

		if len(users) < i.batchSize {
			break
		}
	}

	now := time.Now().UTC()
	i.statsMu.Lock()
	i.lastRunAt = &now
	i.lastCreated = totalCreated
	i.statsMu.Unlock()

	slog.Info("Import run completed",
		"duration", time.Since(start).String(),
		"created", totalCreated)

	return totalCreated, nil
}

// LastRun returns when the last run finished and how many documents it
// created.
func (i *Importer) LastRun() (*time.Time, int) {
	i.statsMu.Lock()
	defer i.statsMu.Unlock()
	return i.lastRunAt, i.lastCreated
}

func (i *Importer) processBatch(ctx context.Context, users []database.User) int {
	sources := make([]feed.Source, 0, len(users))
	for _, user := range users {
		sources = append(sources, feed.Source{UserID: user.ID, URL: user.FeedURL})
	}

	payloads := i.fetcher.Run(ctx, sources)
	parsed := i.parser.Run(ctx, payloads)

	created := 0
	for _, user := range users {
		parsedFeed, ok := parsed[user.ID]
		if !ok {
			// Fetch or parse failed; already reported. The user is
			// retried on the normal cadence.
			continue
		}
		created += i.processPair(ctx, user, parsedFeed)
	}

	// Watermarks advance for every batch member, including failures, so
	// a permanently broken feed backs off to the normal cadence instead
	// of hot-looping.
	userIDs := make([]int64, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}
	if err := i.users.TouchFeedFetchedAt(userIDs, time.Now().UTC()); err != nil {
		i.reporter.Report(err, map[string]interface{}{
			"batch_size": len(users),
		})
	}

	i.recorder.Increment("feeds_fetched", float64(len(payloads)))
	i.recorder.Increment("feeds_parsed", float64(len(parsed)))
	i.recorder.Increment("articles_created", float64(created))

	slog.Info("Batch completed",
		"users", len(users),
		"fetched", len(payloads),
		"parsed", len(parsed),
		"created", created)

	return created
}

// processPair walks one user's parsed feed oldest-first. Reply and
// duplicate checks are skip-guards; any assembly or persistence error
// fails that entry alone.
func (i *Importer) processPair(ctx context.Context, user database.User, parsedFeed *feed.Parsed) int {
	created := 0
	total := len(parsedFeed.Entries)

	for entry := range parsedFeed.OldestFirst() {
		if i.replyFilter.Run(entry) {
			slog.Debug("Entry skipped as reply", "user_id", user.ID, "url", entry.Link)
			continue
		}

		duplicate, err := i.duplicates.Run(entry, user)
		if err != nil {
			i.reporter.Report(err, i.entryContext(user, entry, total))
			continue
		}
		if duplicate {
			continue
		}

		body := entry.Body()
		if body == "" && i.extractor != nil && entry.Link != "" {
			extracted, err := i.extractor.Run(ctx, entry.Link)
			if err != nil {
				slog.Debug("Content extraction failed", "user_id", user.ID, "url", entry.Link, "error", err)
			} else {
				body = extracted
			}
		}

		document, err := i.assembler.Run(ctx, entry, user, parsedFeed.Metadata, user.FeedURL, body)
		if err != nil {
			i.reporter.Report(err, i.entryContext(user, entry, total))
			continue
		}

		article := database.Article{
			UserID:        user.ID,
			Title:         document.Title,
			BodyMarkdown:  document.BodyMarkdown,
			FeedSourceURL: document.FeedSourceURL,
			Published:     false,
		}
		if !document.PublishedAt.IsZero() {
			publishedAt := document.PublishedAt
			article.PublishedAt = &publishedAt
		}

		if _, err := i.articles.CreateArticle(article); err != nil {
			i.reporter.Report(err, i.entryContext(user, entry, total))
			continue
		}

		created++
	}

	return created
}

func (i *Importer) entryContext(user database.User, entry feed.Entry, total int) map[string]interface{} {
	return map[string]interface{}{
		"user_id":    user.ID,
		"feed_url":   user.FeedURL,
		"item_url":   entry.Link,
		"item_count": total,
	}
}
