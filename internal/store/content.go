package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// CreateContentIfAbsent writes extracted content for a post exactly once.
// It reports whether a new row was created; a pre-existing row is left
// untouched so re-runs never duplicate or clobber content.
func (s *Store) CreateContentIfAbsent(ctx context.Context, content *Content) (bool, error) {
	if content == nil {
		return false, errors.New("content must not be nil")
	}
	ctx = ensureContext(ctx)

	labelsJSON := ""
	if len(content.Labels) > 0 {
		data, err := json.Marshal(content.Labels)
		if err != nil {
			return false, fmt.Errorf("marshal labels: %w", err)
		}
		labelsJSON = string(data)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO contents (
            post_id, title, body, author_name, author_id, original_date,
            view_count, like_count, labels_json, summary, content_type, created_at
         ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(post_id) DO NOTHING`,
		content.PostID,
		content.Title,
		content.Text,
		content.AuthorName,
		content.AuthorID,
		content.OriginalDate,
		content.ViewCount,
		content.LikeCount,
		labelsJSON,
		content.Summary,
		content.ContentType,
		nowTimestamp(),
	)
	if err != nil {
		return false, fmt.Errorf("insert content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetContent fetches the extracted content for a post.
func (s *Store) GetContent(ctx context.Context, postID int64) (*Content, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT post_id, title, body, author_name, author_id, original_date,
                view_count, like_count, labels_json, summary, content_type, created_at
         FROM contents WHERE post_id = ?`, postID)

	var (
		content    Content
		labelsJSON string
		createdAt  string
	)
	err := row.Scan(
		&content.PostID, &content.Title, &content.Text,
		&content.AuthorName, &content.AuthorID, &content.OriginalDate,
		&content.ViewCount, &content.LikeCount,
		&labelsJSON, &content.Summary, &content.ContentType, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan content: %w", err)
	}
	if labelsJSON != "" {
		if err := json.Unmarshal([]byte(labelsJSON), &content.Labels); err != nil {
			return nil, fmt.Errorf("parse labels: %w", err)
		}
	}
	content.CreatedAt = parseTimestamp(createdAt)
	return &content, nil
}

// UpdateContentEnrichment records AI-derived labels and summary on an
// existing content row.
func (s *Store) UpdateContentEnrichment(ctx context.Context, postID int64, labels []string, summary, contentType string) error {
	labelsJSON := ""
	if len(labels) > 0 {
		data, err := json.Marshal(labels)
		if err != nil {
			return fmt.Errorf("marshal labels: %w", err)
		}
		labelsJSON = string(data)
	}
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE contents SET labels_json = ?, summary = ?, content_type = ? WHERE post_id = ?`,
		labelsJSON, summary, contentType, postID)
	if err != nil {
		return fmt.Errorf("update enrichment: %w", err)
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
