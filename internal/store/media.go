package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateMediaBatch inserts media rows for a post in source order. Rows that
// already exist for a (post, sort_order) pair are left untouched so retries
// do not duplicate assets.
func (s *Store) CreateMediaBatch(ctx context.Context, postID int64, items []*Media) error {
	if len(items) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin media tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := nowTimestamp()
	for i, item := range items {
		item.PostID = postID
		item.SortOrder = i
		if item.Status == "" {
			item.Status = MediaPending
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO media (post_id, type, source_url, local_path, byte_size, download_status, sort_order, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(post_id, sort_order) DO NOTHING`,
			postID,
			item.Type,
			item.SourceURL,
			nullableString(item.LocalPath),
			nullableInt64(item.ByteSize),
			item.Status,
			item.SortOrder,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert media %d: %w", i, err)
		}
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			item.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit media batch: %w", err)
	}
	return nil
}

// ListMediaByPost returns a post's media in display order.
func (s *Store) ListMediaByPost(ctx context.Context, postID int64) ([]*Media, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, post_id, type, source_url, local_path, byte_size, download_status, sort_order, updated_at
         FROM media WHERE post_id = ? ORDER BY sort_order ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []*Media
	for rows.Next() {
		item, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateMedia persists the transfer outcome for one media row.
func (s *Store) UpdateMedia(ctx context.Context, item *Media) error {
	if item == nil {
		return errors.New("media must not be nil")
	}
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE media SET local_path = ?, byte_size = ?, download_status = ?, updated_at = ? WHERE id = ?`,
		nullableString(item.LocalPath),
		nullableInt64(item.ByteSize),
		item.Status,
		nowTimestamp(),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
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

func scanMedia(scanner interface{ Scan(dest ...any) error }) (*Media, error) {
	var (
		item      Media
		mediaType string
		localPath sql.NullString
		byteSize  sql.NullInt64
		status    string
		updatedAt string
	)
	err := scanner.Scan(&item.ID, &item.PostID, &mediaType, &item.SourceURL,
		&localPath, &byteSize, &status, &item.SortOrder, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan media: %w", err)
	}
	item.Type = MediaType(mediaType)
	item.LocalPath = localPath.String
	item.ByteSize = byteSize.Int64
	item.Status = MediaStatus(status)
	item.UpdatedAt = parseTimestamp(updatedAt)
	return &item, nil
}
