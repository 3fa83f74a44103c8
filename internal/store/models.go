package store

import (
	"strings"
	"time"
)

// PostStatus represents the coarse lifecycle of a saved post.
type PostStatus string

const (
	PostPending     PostStatus = "pending"
	PostDownloading PostStatus = "downloading"
	PostCompleted   PostStatus = "completed"
	PostPartial     PostStatus = "partial"
	PostFailed      PostStatus = "failed"
)

// MediaType identifies the kind of media asset.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaStatus represents the transfer lifecycle of one media asset.
type MediaStatus string

const (
	MediaPending     MediaStatus = "pending"
	MediaDownloading MediaStatus = "downloading"
	MediaCompleted   MediaStatus = "completed"
	MediaFailed      MediaStatus = "failed"
	MediaSkipped     MediaStatus = "skipped"
)

// TaskStatus represents the fine-grained run state of a pipeline execution.
type TaskStatus string

const (
	TaskQueued      TaskStatus = "queued"
	TaskCrawling    TaskStatus = "crawling"
	TaskDownloading TaskStatus = "downloading"
	TaskAnalyzing   TaskStatus = "analyzing"
	TaskCompleted   TaskStatus = "completed"
	TaskFailed      TaskStatus = "failed"
)

var postStatusSet = map[PostStatus]struct{}{
	PostPending:     {},
	PostDownloading: {},
	PostCompleted:   {},
	PostPartial:     {},
	PostFailed:      {},
}

// ParsePostStatus converts a string into a known PostStatus.
func ParsePostStatus(value string) (PostStatus, bool) {
	normalized := PostStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := postStatusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the post status is a terminal pipeline outcome.
func (s PostStatus) IsTerminal() bool {
	switch s {
	case PostCompleted, PostPartial, PostFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether a task run has finished.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Post is one saved link, persisted in SQLite.
type Post struct {
	ID        int64
	URL       string
	URLHash   string
	Title     string
	Status    PostStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Content holds the extracted text and author metadata for a post. At most
// one row exists per post.
type Content struct {
	PostID       int64
	Title        string
	Text         string
	AuthorName   string
	AuthorID     string
	OriginalDate string
	ViewCount    int64
	LikeCount    int64
	Labels       []string
	Summary      string
	ContentType  string
	CreatedAt    time.Time
}

// Media is one image or video asset belonging to a post.
type Media struct {
	ID        int64
	PostID    int64
	Type      MediaType
	SourceURL string
	LocalPath string
	ByteSize  int64
	Status    MediaStatus
	SortOrder int
	UpdatedAt time.Time
}

// Task is the latest pipeline run record for a post. History is not retained;
// the row is reset in place when a retry is requested.
type Task struct {
	PostID       int64
	Status       TaskStatus
	Progress     float64
	RetryCount   int
	ErrorMessage string
	UpdatedAt    time.Time
}

// Group is a user-facing collection posts can be filed into by enrichment.
type Group struct {
	ID        int64
	Name      string
	PostCount int
	CreatedAt time.Time
}

// PostSummary aggregates the per-entity statuses the API reports for a post.
type PostSummary struct {
	PostID         int64
	URL            string
	Title          string
	Status         PostStatus
	TaskStatus     TaskStatus
	Progress       float64
	RetryCount     int
	ErrorMessage   string
	MediaTotal     int
	MediaCompleted int
	MediaFailed    int
	MediaSkipped   int
}
