package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreatePost inserts a new post in pending state. The normalized URL hash is
// the deduplication key; inserting an already-saved URL returns
// ErrDuplicateURL.
func (s *Store) CreatePost(ctx context.Context, rawURL string) (*Post, error) {
	ctx = ensureContext(ctx)
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, errors.New("url must not be empty")
	}

	timestamp := nowTimestamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO posts (url, url_hash, download_status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		trimmed,
		HashURL(trimmed),
		PostPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetPost(ctx, id)
}

// GetPost fetches one post by id.
func (s *Store) GetPost(ctx context.Context, id int64) (*Post, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, url, url_hash, title, download_status, created_at, updated_at
         FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// FindPostByURL locates a post by its normalized URL hash, returning nil when
// absent.
func (s *Store) FindPostByURL(ctx context.Context, rawURL string) (*Post, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, url, url_hash, title, download_status, created_at, updated_at
         FROM posts WHERE url_hash = ?`, HashURL(rawURL))
	post, err := scanPost(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return post, err
}

// ListPosts returns posts filtered by optional statuses, newest first.
func (s *Store) ListPosts(ctx context.Context, statuses ...PostStatus) ([]*Post, error) {
	query := `SELECT id, url, url_hash, title, download_status, created_at, updated_at FROM posts`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE download_status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// UpdatePostStatus advances a post's download status.
func (s *Store) UpdatePostStatus(ctx context.Context, id int64, status PostStatus) error {
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE posts SET download_status = ?, updated_at = ? WHERE id = ?`,
		status, nowTimestamp(), id)
	if err != nil {
		return fmt.Errorf("update post status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPostTitle records the crawled title on the post row.
func (s *Store) SetPostTitle(ctx context.Context, id int64, title string) error {
	_, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE posts SET title = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(title), nowTimestamp(), id)
	if err != nil {
		return fmt.Errorf("update post title: %w", err)
	}
	return nil
}

// Summary aggregates post, task, and media state for status reporting.
func (s *Store) Summary(ctx context.Context, postID int64) (*PostSummary, error) {
	ctx = ensureContext(ctx)
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	summary := &PostSummary{
		PostID: post.ID,
		URL:    post.URL,
		Title:  post.Title,
		Status: post.Status,
	}

	task, err := s.GetTask(ctx, postID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if task != nil {
		summary.TaskStatus = task.Status
		summary.Progress = task.Progress
		summary.RetryCount = task.RetryCount
		summary.ErrorMessage = task.ErrorMessage
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT download_status, COUNT(1) FROM media WHERE post_id = ? GROUP BY download_status`, postID)
	if err != nil {
		return nil, fmt.Errorf("aggregate media: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status MediaStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan media aggregate: %w", err)
		}
		summary.MediaTotal += count
		switch status {
		case MediaCompleted:
			summary.MediaCompleted += count
		case MediaFailed:
			summary.MediaFailed += count
		case MediaSkipped:
			summary.MediaSkipped += count
		}
	}
	return summary, rows.Err()
}

func scanPost(scanner interface{ Scan(dest ...any) error }) (*Post, error) {
	var (
		post      Post
		status    string
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(&post.ID, &post.URL, &post.URLHash, &post.Title, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	post.Status = PostStatus(status)
	post.CreatedAt = parseTimestamp(createdAt)
	post.UpdatedAt = parseTimestamp(updatedAt)
	return &post, nil
}
