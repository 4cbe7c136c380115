package feed

import (
	"iter"
	"strings"
	"time"
)

// Source pairs a feed owner with the URL to fetch.
type Source struct {
	UserID int64
	URL    string
}

// Metadata holds feed-level fields of a parsed feed.
type Metadata struct {
	Title string
	Link  string // Homepage URL from the feed's <link> element
}

// Entry is one item of a parsed feed. Read-only once parsed.
type Entry struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Content     string
	Summary     string
	Description string
	Categories  []string
}

// Body returns the first non-blank of content, summary and
// description, in that priority order.
func (e Entry) Body() string {
	for _, candidate := range []string{e.Content, e.Summary, e.Description} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// Parsed is the structured representation of one fetched feed.
type Parsed struct {
	Metadata Metadata
	Entries  []Entry
}

// OldestFirst iterates entries in reverse feed order without
// materializing a reversed copy. Feeds list newest entries first, so
// walking backwards yields original publication order.
func (p *Parsed) OldestFirst() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i := len(p.Entries) - 1; i >= 0; i-- {
			if !yield(p.Entries[i]) {
				return
			}
		}
	}
}

// Reporter is the error-reporting collaborator for fetch/parse
// failures. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(err error, context map[string]interface{})
}
