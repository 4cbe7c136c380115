package database

import (
	"fmt"
	"strings"
	"time"
)

var _ UserRepository = (*UserRepo)(nil)

// UserRepo handles database operations for users and their feed watermarks
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetDueBatch(afterID int64, limit int, olderThan *time.Time) ([]User, error) {
	query := `
		SELECT id, COALESCE(name, ''), COALESCE(feed_url, ''),
		       feed_fetched_at, feed_mark_canonical, feed_referential_links,
		       created_at, updated_at
		FROM users
		WHERE feed_url != ''
		  AND id > ?`
	args := []interface{}{afterID}

	if olderThan != nil {
		query += `
		  AND (feed_fetched_at IS NULL OR feed_fetched_at < ?)`
		args = append(args, olderThan.UTC())
	}

	query += `
		ORDER BY id
		LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get due users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		err := rows.Scan(
			&user.ID, &user.Name, &user.FeedURL,
			&user.FeedFetchedAt, &user.FeedMarkCanonical, &user.FeedReferentialLinks,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

func (r *UserRepo) TouchFeedFetchedAt(userIDs []int64, fetchedAt time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(userIDs))
	args := make([]interface{}, 0, len(userIDs)+1)
	args = append(args, fetchedAt.UTC())
	for i, id := range userIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET feed_fetched_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id IN (%s)
	`, strings.Join(placeholders, ", "))

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update feed watermarks: %w", err)
	}

	return nil
}

func (r *UserRepo) GetUserCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE feed_url != ''`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
