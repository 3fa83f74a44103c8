package api

import (
	"time"

	"linkvault/internal/store"
)

// FromPost converts a stored post to its API shape.
func FromPost(post *store.Post) Post {
	return Post{
		ID:        post.ID,
		URL:       post.URL,
		Title:     post.Title,
		Status:    string(post.Status),
		CreatedAt: formatTime(post.CreatedAt),
		UpdatedAt: formatTime(post.UpdatedAt),
	}
}

// FromPosts converts a slice of stored posts.
func FromPosts(posts []*store.Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, post := range posts {
		out = append(out, FromPost(post))
	}
	return out
}

// FromMedia converts a stored media row to its API shape.
func FromMedia(item *store.Media) MediaItem {
	return MediaItem{
		ID:        item.ID,
		Type:      string(item.Type),
		SourceURL: item.SourceURL,
		LocalPath: item.LocalPath,
		ByteSize:  item.ByteSize,
		Status:    string(item.Status),
		SortOrder: item.SortOrder,
	}
}

// FromContent converts stored content to its API shape.
func FromContent(content *store.Content) *ContentInfo {
	if content == nil {
		return nil
	}
	return &ContentInfo{
		Title:        content.Title,
		Text:         content.Text,
		AuthorName:   content.AuthorName,
		AuthorID:     content.AuthorID,
		OriginalDate: content.OriginalDate,
		ViewCount:    content.ViewCount,
		LikeCount:    content.LikeCount,
		Labels:       content.Labels,
		Summary:      content.Summary,
		ContentType:  content.ContentType,
	}
}

// FromGroup converts a stored group to its API shape.
func FromGroup(group *store.Group) GroupInfo {
	return GroupInfo{
		ID:        group.ID,
		Name:      group.Name,
		PostCount: group.PostCount,
		CreatedAt: formatTime(group.CreatedAt),
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(dateTimeFormat)
}
