package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Post describes a saved link in a transport-friendly format.
type Post struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// TaskInfo captures the run state of the pipeline for one post.
type TaskInfo struct {
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	RetryCount   int     `json:"retryCount"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// ContentInfo carries the extracted text and enrichment metadata.
type ContentInfo struct {
	Title        string   `json:"title,omitempty"`
	Text         string   `json:"text,omitempty"`
	AuthorName   string   `json:"authorName,omitempty"`
	AuthorID     string   `json:"authorId,omitempty"`
	OriginalDate string   `json:"originalDate,omitempty"`
	ViewCount    int64    `json:"viewCount,omitempty"`
	LikeCount    int64    `json:"likeCount,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	ContentType  string   `json:"contentType,omitempty"`
}

// MediaItem describes one media asset of a post.
type MediaItem struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	SourceURL string `json:"sourceUrl"`
	LocalPath string `json:"localPath,omitempty"`
	ByteSize  int64  `json:"byteSize,omitempty"`
	Status    string `json:"status"`
	SortOrder int    `json:"sortOrder"`
}

// MediaStats aggregates per-post media counters.
type MediaStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// PostDetail is the full view of one post returned by the describe endpoint.
type PostDetail struct {
	Post    Post         `json:"post"`
	Task    TaskInfo     `json:"task"`
	Media   MediaStats   `json:"media"`
	Content *ContentInfo `json:"content,omitempty"`
	Items   []MediaItem  `json:"items,omitempty"`
}

// GroupInfo describes an enrichment group.
type GroupInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	PostCount int    `json:"postCount"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	QueueLength  int    `json:"queueLength"`
	DBPath       string `json:"dbPath"`
	LockFilePath string `json:"lockFilePath"`
}

// AddPostRequest is the body of POST /api/posts.
type AddPostRequest struct {
	URL      string `json:"url"`
	Priority int    `json:"priority,omitempty"`
}

// AddPostResponse reports the post created or reused for a submitted URL.
type AddPostResponse struct {
	Post    Post `json:"post"`
	Created bool `json:"created"`
}

// RetryRequest is the optional body of POST /api/posts/{id}/retry.
type RetryRequest struct {
	Priority int `json:"priority,omitempty"`
}

// PostListResponse wraps a collection of posts.
type PostListResponse struct {
	Posts []Post `json:"posts"`
}

// GroupListResponse wraps a collection of groups.
type GroupListResponse struct {
	Groups []GroupInfo `json:"groups"`
}

// QueueResponse reports pending queue depth.
type QueueResponse struct {
	Waiting int    `json:"waiting"`
	Posts   []Post `json:"posts"`
}
