package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// EnsureTask creates the task row for a post when missing and returns it.
// An existing row is returned unchanged, preserving retry counts.
func (s *Store) EnsureTask(ctx context.Context, postID int64) (*Task, error) {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		`INSERT INTO tasks (post_id, status, progress, retry_count, error_message, updated_at)
         VALUES (?, ?, 0, 0, '', ?)
         ON CONFLICT(post_id) DO NOTHING`,
		postID, TaskQueued, nowTimestamp())
	if err != nil {
		return nil, fmt.Errorf("ensure task: %w", err)
	}
	return s.GetTask(ctx, postID)
}

// GetTask fetches the latest run record for a post.
func (s *Store) GetTask(ctx context.Context, postID int64) (*Task, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT post_id, status, progress, retry_count, error_message, updated_at
         FROM tasks WHERE post_id = ?`, postID)

	var (
		task      Task
		status    string
		updatedAt string
	)
	err := row.Scan(&task.PostID, &status, &task.Progress, &task.RetryCount, &task.ErrorMessage, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Status = TaskStatus(status)
	task.UpdatedAt = parseTimestamp(updatedAt)
	return &task, nil
}

// SetTaskStatus transitions the task and clears any stale error message when
// moving into a non-failed state.
func (s *Store) SetTaskStatus(ctx context.Context, postID int64, status TaskStatus) error {
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE tasks SET status = ?, error_message = CASE WHEN ? = 'failed' THEN error_message ELSE '' END,
                updated_at = ? WHERE post_id = ?`,
		status, status, nowTimestamp(), postID)
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	return requireAffected(res.RowsAffected())
}

// SetTaskProgress records fractional progress. Progress is clamped to [0, 1]
// and never rolls backwards within a run; resets happen only through
// ResetTaskForRetry.
func (s *Store) SetTaskProgress(ctx context.Context, postID int64, progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE tasks SET progress = MAX(progress, ?), updated_at = ? WHERE post_id = ?`,
		progress, nowTimestamp(), postID)
	if err != nil {
		return fmt.Errorf("set task progress: %w", err)
	}
	return requireAffected(res.RowsAffected())
}

// FailTask marks the run failed with the given message.
func (s *Store) FailTask(ctx context.Context, postID int64, message string) error {
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE tasks SET status = ?, error_message = ?, updated_at = ? WHERE post_id = ?`,
		TaskFailed, strings.TrimSpace(message), nowTimestamp(), postID)
	if err != nil {
		return fmt.Errorf("fail task: %w", err)
	}
	return requireAffected(res.RowsAffected())
}

// ResetTaskForRetry prepares a fresh run: queued status, progress back to
// zero, retry count incremented, error cleared.
func (s *Store) ResetTaskForRetry(ctx context.Context, postID int64) (*Task, error) {
	ctx = ensureContext(ctx)
	if _, err := s.EnsureTask(ctx, postID); err != nil {
		return nil, err
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE tasks SET status = ?, progress = 0, retry_count = retry_count + 1,
                error_message = '', updated_at = ? WHERE post_id = ?`,
		TaskQueued, nowTimestamp(), postID)
	if err != nil {
		return nil, fmt.Errorf("reset task: %w", err)
	}
	return s.GetTask(ctx, postID)
}

func requireAffected(affected int64, err error) error {
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
