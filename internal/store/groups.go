package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// EnsureGroup resolves a group by name, creating it when absent.
func (s *Store) EnsureGroup(ctx context.Context, name string) (*Group, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errors.New("group name must not be empty")
	}
	ctx = ensureContext(ctx)

	_, err := s.execWithRetry(ctx,
		`INSERT INTO groups (name, post_count, created_at) VALUES (?, 0, ?)
         ON CONFLICT(name) DO NOTHING`,
		trimmed, nowTimestamp())
	if err != nil {
		return nil, fmt.Errorf("ensure group: %w", err)
	}
	return s.GetGroupByName(ctx, trimmed)
}

// GetGroupByName fetches a group by exact name.
func (s *Store) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, name, post_count, created_at FROM groups WHERE name = ?`, strings.TrimSpace(name))
	return scanGroup(row)
}

// ListGroups returns all groups ordered by name.
func (s *Store) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, name, post_count, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// IncrementGroupPostCount bumps a group's post counter by one.
func (s *Store) IncrementGroupPostCount(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE groups SET post_count = post_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment group count: %w", err)
	}
	return requireAffected(res.RowsAffected())
}

func scanGroup(scanner interface{ Scan(dest ...any) error }) (*Group, error) {
	var (
		group     Group
		createdAt string
	)
	err := scanner.Scan(&group.ID, &group.Name, &group.PostCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan group: %w", err)
	}
	group.CreatedAt = parseTimestamp(createdAt)
	return &group, nil
}
