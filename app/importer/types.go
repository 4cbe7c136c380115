package importer

import (
	"time"
)

// Document is the assembled persistable unit: front matter plus
// rewritten markdown body. Produced by the Assembler, consumed exactly
// once by the article repository.
type Document struct {
	Title         string
	BodyMarkdown  string
	FeedSourceURL string
	PublishedAt   time.Time
}
