package importer

import (
	"regexp"

	"github.com/lysyi3m/feed-ingest/app/database"
	"github.com/lysyi3m/feed-ingest/app/feed"
)

var sourceParamRe = regexp.MustCompile(`\?source=.*$`)

// DuplicateDetector decides whether an entry has already been imported
// for a user, by title or source URL. Both values are normalized
// exactly the way the assembler stores them (truncated title, source
// URL with the tracking suffix stripped), so a re-imported entry
// always matches its own stored article. The check runs before
// assembly so expensive rewriting is skipped early; it is a pure read
// against the article repository.
type DuplicateDetector struct {
	articles database.ArticleRepository
}

func NewDuplicateDetector(articles database.ArticleRepository) *DuplicateDetector {
	return &DuplicateDetector{articles: articles}
}

func (d *DuplicateDetector) Run(entry feed.Entry, user database.User) (bool, error) {
	return d.articles.ArticleExists(user.ID, truncateTitle(entry.Title), normalizeSourceURL(entry.Link))
}

// normalizeSourceURL strips the host's per-subscriber tracking suffix
// so the same post yields one stable source URL across fetches.
func normalizeSourceURL(link string) string {
	return sourceParamRe.ReplaceAllString(link, "")
}
