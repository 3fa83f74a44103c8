package pipeline

import (
	"context"

	"linkvault/internal/services/crawler"
	"linkvault/internal/services/enrich"
	"linkvault/internal/store"
	"linkvault/internal/transfer"
)

// Gateway is the narrow persistence surface the pipeline writes through.
// *store.Store satisfies it; tests may wrap it to observe call patterns.
type Gateway interface {
	GetPost(ctx context.Context, id int64) (*store.Post, error)
	UpdatePostStatus(ctx context.Context, id int64, status store.PostStatus) error
	SetPostTitle(ctx context.Context, id int64, title string) error

	CreateContentIfAbsent(ctx context.Context, content *store.Content) (bool, error)
	GetContent(ctx context.Context, postID int64) (*store.Content, error)
	UpdateContentEnrichment(ctx context.Context, postID int64, labels []string, summary, contentType string) error

	CreateMediaBatch(ctx context.Context, postID int64, items []*store.Media) error
	ListMediaByPost(ctx context.Context, postID int64) ([]*store.Media, error)
	UpdateMedia(ctx context.Context, item *store.Media) error

	EnsureTask(ctx context.Context, postID int64) (*store.Task, error)
	SetTaskStatus(ctx context.Context, postID int64, status store.TaskStatus) error
	SetTaskProgress(ctx context.Context, postID int64, progress float64) error
	FailTask(ctx context.Context, postID int64, message string) error
	ResetTaskForRetry(ctx context.Context, postID int64) (*store.Task, error)

	EnsureGroup(ctx context.Context, name string) (*store.Group, error)
	IncrementGroupPostCount(ctx context.Context, id int64) error

	Summary(ctx context.Context, postID int64) (*store.PostSummary, error)
}

// Crawler extracts structured content for a URL.
type Crawler interface {
	Crawl(ctx context.Context, url string) (*crawler.Page, error)
}

// Enricher derives AI metadata from extracted text.
type Enricher interface {
	Analyze(ctx context.Context, title, text string, mediaCount int) (enrich.Analysis, error)
}

// Transferrer downloads one media asset.
type Transferrer interface {
	Transfer(ctx context.Context, req transfer.Request, onProgress transfer.ProgressFunc) transfer.Result
}
