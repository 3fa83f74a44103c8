package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"linkvault/internal/pipeline"
	"linkvault/internal/store"
)

// PostService implements the post-facing API operations on top of the store
// and the pipeline facade.
type PostService struct {
	store    *store.Store
	pipeline *pipeline.Service
}

// NewPostService constructs the service.
func NewPostService(st *store.Store, pipe *pipeline.Service) *PostService {
	return &PostService{store: st, pipeline: pipe}
}

// Add saves a URL and schedules it for processing. Submitting a URL that is
// already saved reuses the existing post instead of creating a duplicate; the
// returned flag reports which happened.
func (s *PostService) Add(ctx context.Context, rawURL string, priority int) (Post, bool, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return Post{}, false, errors.New("url is required")
	}

	created := false
	post, err := s.store.FindPostByURL(ctx, trimmed)
	if err != nil {
		return Post{}, false, fmt.Errorf("look up post: %w", err)
	}
	if post == nil {
		post, err = s.store.CreatePost(ctx, trimmed)
		if errors.Is(err, store.ErrDuplicateURL) {
			// Lost a race with a concurrent submit; reuse the winner.
			post, err = s.store.FindPostByURL(ctx, trimmed)
		} else if err == nil {
			created = true
		}
		if err != nil {
			return Post{}, false, fmt.Errorf("create post: %w", err)
		}
	}

	if err := s.pipeline.Enqueue(ctx, post.ID, priority); err != nil {
		return Post{}, false, err
	}
	return FromPost(post), created, nil
}

// Describe returns the full view of one post, including task state, media
// counters, and extracted content when present.
func (s *PostService) Describe(ctx context.Context, postID int64) (*PostDetail, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	summary, err := s.store.Summary(ctx, postID)
	if err != nil {
		return nil, err
	}

	detail := &PostDetail{
		Post: FromPost(post),
		Task: TaskInfo{
			Status:       string(summary.TaskStatus),
			Progress:     summary.Progress,
			RetryCount:   summary.RetryCount,
			ErrorMessage: summary.ErrorMessage,
		},
		Media: MediaStats{
			Total:     summary.MediaTotal,
			Completed: summary.MediaCompleted,
			Failed:    summary.MediaFailed,
			Skipped:   summary.MediaSkipped,
		},
	}

	content, err := s.store.GetContent(ctx, postID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	detail.Content = FromContent(content)

	items, err := s.store.ListMediaByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		detail.Items = append(detail.Items, FromMedia(item))
	}
	return detail, nil
}

// List returns posts filtered by optional statuses, newest first.
func (s *PostService) List(ctx context.Context, statuses ...store.PostStatus) ([]Post, error) {
	posts, err := s.store.ListPosts(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromPosts(posts), nil
}

// Retry schedules a fresh pipeline run for a post.
func (s *PostService) Retry(ctx context.Context, postID int64, priority int) error {
	return s.pipeline.Retry(ctx, postID, priority)
}

// Queue reports the posts still waiting on or moving through the pipeline.
func (s *PostService) Queue(ctx context.Context) (QueueResponse, error) {
	posts, err := s.store.ListPosts(ctx, store.PostPending, store.PostDownloading)
	if err != nil {
		return QueueResponse{}, err
	}
	return QueueResponse{
		Waiting: s.pipeline.QueueLen(),
		Posts:   FromPosts(posts),
	}, nil
}

// Groups lists the enrichment groups.
func (s *PostService) Groups(ctx context.Context) ([]GroupInfo, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GroupInfo, 0, len(groups))
	for _, group := range groups {
		out = append(out, FromGroup(group))
	}
	return out, nil
}
