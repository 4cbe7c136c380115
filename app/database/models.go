package database

import (
	"time"
)

// User represents a feed source owner: identity plus the per-user feed
// configuration the importer acts on.
type User struct {
	ID                   int64
	Name                 string
	FeedURL              string
	FeedFetchedAt        *time.Time // Watermark: last time the importer touched this user's feed
	FeedMarkCanonical    bool       // Emit canonical_url front matter pointing at the origin post
	FeedReferentialLinks bool       // Rewrite links to the user's own imported posts
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Article represents one imported document.
type Article struct {
	ID            int64
	UserID        int64
	Title         string
	BodyMarkdown  string
	FeedSourceURL string
	Published     bool
	PublishedAt   *time.Time
	CreatedAt     time.Time
}
