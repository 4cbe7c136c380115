package database

import (
	"time"
)

type UserRepository interface {
	// GetDueBatch returns up to limit users with a configured feed URL and
	// id greater than afterID, restricted to users whose watermark is
	// missing or older than olderThan when a cutoff is supplied.
	GetDueBatch(afterID int64, limit int, olderThan *time.Time) ([]User, error)

	// TouchFeedFetchedAt sets the watermark for every given user id.
	TouchFeedFetchedAt(userIDs []int64, fetchedAt time.Time) error

	GetUserCount() (int, error)
}

type ArticleRepository interface {
	// ArticleExists reports whether the user already has an article with
	// the given title or feed source URL. Read-only.
	ArticleExists(userID int64, title, sourceURL string) (bool, error)

	// GetArticleBySourceURL returns the user's article recorded against
	// the given feed source URL, or nil when none exists.
	GetArticleBySourceURL(userID int64, sourceURL string) (*Article, error)

	CreateArticle(article Article) (int64, error)

	GetArticleCount() (int, error)
}
