package database

import (
	"database/sql"
	"fmt"
)

var _ ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo handles database operations for imported articles
type ArticleRepo struct {
	db *DB
}

func NewArticleRepo(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

func (r *ArticleRepo) ArticleExists(userID int64, title, sourceURL string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT id FROM articles
		WHERE user_id = ? AND (title = ? OR feed_source_url = ?)
		LIMIT 1
	`, userID, title, sourceURL).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return true, nil
}

func (r *ArticleRepo) GetArticleBySourceURL(userID int64, sourceURL string) (*Article, error) {
	var article Article
	err := r.db.QueryRow(`
		SELECT id, user_id, title, COALESCE(body_markdown, ''),
		       COALESCE(feed_source_url, ''), published, published_at, created_at
		FROM articles
		WHERE user_id = ? AND feed_source_url = ?
		LIMIT 1
	`, userID, sourceURL).Scan(
		&article.ID, &article.UserID, &article.Title, &article.BodyMarkdown,
		&article.FeedSourceURL, &article.Published, &article.PublishedAt, &article.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by source URL: %w", err)
	}
	return &article, nil
}

func (r *ArticleRepo) CreateArticle(article Article) (int64, error) {
	if article.Title == "" {
		return 0, fmt.Errorf("article title is required")
	}

	result, err := r.db.Exec(`
		INSERT INTO articles (user_id, title, body_markdown, feed_source_url, published, published_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, article.UserID, article.Title, article.BodyMarkdown, article.FeedSourceURL,
		article.Published, article.PublishedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get created article id: %w", err)
	}

	return id, nil
}

func (r *ArticleRepo) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}
