package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"linkvault/internal/logging"
	"linkvault/internal/notifications"
	"linkvault/internal/progress"
	"linkvault/internal/services"
	"linkvault/internal/services/crawler"
	"linkvault/internal/store"
	"linkvault/internal/transfer"
)

// Outcome is the terminal result of one pipeline run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

// Fixed progress milestones. Crawl success lands at 0.3, persisted content at
// 0.4, and the media window spans the 0.45 up to 0.85. Finalize always ends a
// successful run at 1.0.
const (
	progressCrawled   = 0.3
	progressPersisted = 0.4
	progressMediaSpan = 0.45
	progressMediaDone = 0.85
	progressFinalized = 1.0
)

type stage int

const (
	stageCrawl stage = iota
	stagePersist
	stageMedia
	stageEnrich
	stageFinalize
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageCrawl:
		return "crawl"
	case stagePersist:
		return "persist"
	case stageMedia:
		return "media"
	case stageEnrich:
		return "enrich"
	case stageFinalize:
		return "finalize"
	default:
		return "done"
	}
}

// runState carries the working set of one pipeline run between stages.
type runState struct {
	post        *store.Post
	page        *crawler.Page
	media       []*store.Media
	mediaFailed int
	outcome     Outcome
	log         *slog.Logger
}

// Orchestrator drives one post through crawl, persist, media transfer,
// enrichment, and finalize. Crawl failures are fatal for the run; media
// failures degrade the post to partial; enrichment failures are swallowed.
type Orchestrator struct {
	gateway     Gateway
	crawler     Crawler
	enricher    Enricher
	transfers   Transferrer
	broadcaster *progress.Broadcaster
	notifier    notifications.Service
	logger      *slog.Logger
}

// NewOrchestrator wires the orchestrator. enricher may be nil when enrichment
// is disabled; the analyze stage is then skipped entirely.
func NewOrchestrator(
	gateway Gateway,
	crawl Crawler,
	enricher Enricher,
	transfers Transferrer,
	broadcaster *progress.Broadcaster,
	notifier notifications.Service,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		gateway:     gateway,
		crawler:     crawl,
		enricher:    enricher,
		transfers:   transfers,
		broadcaster: broadcaster,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Run executes the full pipeline for one post. The returned error reports
// infrastructure problems only (missing post, store write failures); service
// failures are folded into the outcome and the persisted task state.
func (o *Orchestrator) Run(ctx context.Context, postID int64) (Outcome, error) {
	post, err := o.gateway.GetPost(ctx, postID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load post %d: %w", postID, err)
	}
	if _, err := o.gateway.EnsureTask(ctx, postID); err != nil {
		return OutcomeFailed, fmt.Errorf("ensure task for post %d: %w", postID, err)
	}

	state := &runState{
		post: post,
		log:  o.logger.With(logging.String(logging.FieldRunID, uuid.NewString())),
	}
	for current := stageCrawl; current != stageDone; {
		next, err := o.runStage(ctx, current, state)
		if err != nil {
			return OutcomeFailed, fmt.Errorf("stage %s for post %d: %w", current, postID, err)
		}
		current = next
	}
	return state.outcome, nil
}

// Retry resets the task record and re-runs the pipeline from the beginning.
// Media already marked completed is not transferred again.
func (o *Orchestrator) Retry(ctx context.Context, postID int64) (Outcome, error) {
	if _, err := o.gateway.ResetTaskForRetry(ctx, postID); err != nil {
		return OutcomeFailed, fmt.Errorf("reset task for post %d: %w", postID, err)
	}
	return o.Run(ctx, postID)
}

func (o *Orchestrator) runStage(ctx context.Context, current stage, state *runState) (stage, error) {
	switch current {
	case stageCrawl:
		return o.runCrawl(ctx, state)
	case stagePersist:
		return o.runPersist(ctx, state)
	case stageMedia:
		return o.runMedia(ctx, state)
	case stageEnrich:
		return o.runEnrich(ctx, state)
	case stageFinalize:
		return o.runFinalize(ctx, state)
	default:
		return stageDone, nil
	}
}

func (o *Orchestrator) runCrawl(ctx context.Context, state *runState) (stage, error) {
	postID := state.post.ID
	if err := o.gateway.SetTaskStatus(ctx, postID, store.TaskCrawling); err != nil {
		return stageDone, err
	}
	if err := o.gateway.UpdatePostStatus(ctx, postID, store.PostDownloading); err != nil {
		return stageDone, err
	}

	page, err := o.crawler.Crawl(ctx, state.post.URL)
	if err != nil {
		state.log.Error("crawl failed",
			logging.Int64(logging.FieldPostID, postID),
			logging.Error(err),
		)
		return stageDone, o.failRun(ctx, state, services.Message(err))
	}

	state.page = page
	if page.Title != "" {
		if err := o.gateway.SetPostTitle(ctx, postID, page.Title); err != nil {
			return stageDone, err
		}
	}
	state.log.Info("crawl succeeded",
		logging.Int64(logging.FieldPostID, postID),
		logging.Int("media_count", len(page.Media)),
	)
	if err := o.announce(ctx, postID, progressCrawled, store.TaskCrawling); err != nil {
		return stageDone, err
	}
	return stagePersist, nil
}

func (o *Orchestrator) runPersist(ctx context.Context, state *runState) (stage, error) {
	postID := state.post.ID
	page := state.page

	created, err := o.gateway.CreateContentIfAbsent(ctx, &store.Content{
		PostID:       postID,
		Title:        page.Title,
		Text:         page.Text,
		AuthorName:   page.AuthorName,
		AuthorID:     page.AuthorID,
		OriginalDate: page.OriginalDate,
		ViewCount:    page.ViewCount,
		LikeCount:    page.LikeCount,
	})
	if err != nil {
		return stageDone, err
	}
	if !created {
		state.log.Debug("content already persisted",
			logging.Int64(logging.FieldPostID, postID),
		)
	}

	if len(page.Media) > 0 {
		batch := make([]*store.Media, 0, len(page.Media))
		for _, ref := range page.Media {
			batch = append(batch, &store.Media{
				PostID:    postID,
				Type:      ref.Type,
				SourceURL: ref.URL,
			})
		}
		if err := o.gateway.CreateMediaBatch(ctx, postID, batch); err != nil {
			return stageDone, err
		}
	}

	if err := o.announce(ctx, postID, progressPersisted, store.TaskCrawling); err != nil {
		return stageDone, err
	}
	return stageMedia, nil
}

func (o *Orchestrator) runMedia(ctx context.Context, state *runState) (stage, error) {
	postID := state.post.ID

	items, err := o.gateway.ListMediaByPost(ctx, postID)
	if err != nil {
		return stageDone, err
	}
	state.media = items

	if err := o.gateway.SetTaskStatus(ctx, postID, store.TaskDownloading); err != nil {
		return stageDone, err
	}

	if len(items) == 0 {
		if err := o.announce(ctx, postID, progressMediaDone, store.TaskDownloading); err != nil {
			return stageDone, err
		}
		return stageEnrich, nil
	}

	total := len(items)
	for index, item := range items {
		if item.Status == store.MediaCompleted {
			// Already on disk from a previous run.
			continue
		}
		if err := o.transferOne(ctx, state, item, index, total); err != nil {
			return stageDone, err
		}
	}
	return stageEnrich, nil
}

func (o *Orchestrator) transferOne(ctx context.Context, state *runState, item *store.Media, index, total int) error {
	postID := state.post.ID
	base := progressPersisted + progressMediaSpan*float64(index)/float64(total)
	width := progressMediaSpan / float64(total)

	item.Status = store.MediaDownloading
	if err := o.gateway.UpdateMedia(ctx, item); err != nil {
		return err
	}

	result := o.transfers.Transfer(ctx, transfer.Request{
		PostID:    postID,
		SortOrder: item.SortOrder,
		Type:      item.Type,
		SourceURL: item.SourceURL,
	}, func(fraction float64) {
		o.broadcaster.Publish(postID, base+width*fraction, store.TaskDownloading)
	})

	switch result.Status {
	case transfer.StatusCompleted:
		item.Status = store.MediaCompleted
		item.LocalPath = result.LocalPath
		item.ByteSize = result.ByteSize
	case transfer.StatusSkipped:
		item.Status = store.MediaSkipped
		state.log.Info("media skipped",
			logging.Int64(logging.FieldPostID, postID),
			logging.Int64(logging.FieldMediaID, item.ID),
			logging.String("reason", "video exceeds size limit"),
		)
	default:
		item.Status = store.MediaFailed
		state.mediaFailed++
		state.log.Warn("media transfer failed",
			logging.Int64(logging.FieldPostID, postID),
			logging.Int64(logging.FieldMediaID, item.ID),
			logging.Error(result.Err),
		)
	}
	if err := o.gateway.UpdateMedia(ctx, item); err != nil {
		return err
	}

	fraction := progressPersisted + progressMediaSpan*float64(index+1)/float64(total)
	return o.announce(ctx, postID, fraction, store.TaskDownloading)
}

func (o *Orchestrator) runEnrich(ctx context.Context, state *runState) (stage, error) {
	if o.enricher == nil {
		return stageFinalize, nil
	}
	postID := state.post.ID

	if err := o.gateway.SetTaskStatus(ctx, postID, store.TaskAnalyzing); err != nil {
		return stageDone, err
	}

	analysis, err := o.enricher.Analyze(ctx, state.page.Title, state.page.Text, len(state.media))
	if err != nil {
		// Enrichment never fails the run.
		state.log.Warn("enrichment unavailable",
			logging.Int64(logging.FieldPostID, postID),
			logging.Error(err),
		)
		return stageFinalize, nil
	}
	if analysis.IsZero() {
		return stageFinalize, nil
	}

	if err := o.gateway.UpdateContentEnrichment(ctx, postID, analysis.Labels, analysis.Summary, analysis.ContentType); err != nil {
		return stageDone, err
	}
	if name := analysis.SuggestedGroupName; name != "" {
		group, err := o.gateway.EnsureGroup(ctx, name)
		if err != nil {
			return stageDone, err
		}
		if err := o.gateway.IncrementGroupPostCount(ctx, group.ID); err != nil {
			return stageDone, err
		}
	}
	return stageFinalize, nil
}

func (o *Orchestrator) runFinalize(ctx context.Context, state *runState) (stage, error) {
	postID := state.post.ID

	status := store.PostCompleted
	state.outcome = OutcomeCompleted
	if state.mediaFailed > 0 {
		status = store.PostPartial
		state.outcome = OutcomePartial
	}
	if err := o.gateway.UpdatePostStatus(ctx, postID, status); err != nil {
		return stageDone, err
	}
	if err := o.gateway.SetTaskStatus(ctx, postID, store.TaskCompleted); err != nil {
		return stageDone, err
	}
	if err := o.announce(ctx, postID, progressFinalized, store.TaskCompleted); err != nil {
		return stageDone, err
	}
	state.log.Info("run finished",
		logging.Int64(logging.FieldPostID, postID),
		logging.String("outcome", string(state.outcome)),
	)
	o.notifyFinished(ctx, state)
	return stageDone, nil
}

// notifyFinished pushes the terminal notification. Failures are logged only;
// the run outcome is already recorded.
func (o *Orchestrator) notifyFinished(ctx context.Context, state *runState) {
	if o.notifier == nil {
		return
	}
	title := state.post.Title
	if state.page != nil && state.page.Title != "" {
		title = state.page.Title
	}

	var err error
	switch state.outcome {
	case OutcomePartial:
		err = o.notifier.NotifyPostPartial(ctx, title, state.mediaFailed)
	case OutcomeCompleted:
		err = o.notifier.NotifyPostCompleted(ctx, title)
	}
	if err != nil {
		state.log.Warn("completion notification failed",
			logging.Int64(logging.FieldPostID, state.post.ID),
			logging.Error(err),
		)
	}
}

// failRun records a fatal run failure and emits the single terminal
// notification with fraction zero.
func (o *Orchestrator) failRun(ctx context.Context, state *runState, message string) error {
	postID := state.post.ID
	state.outcome = OutcomeFailed
	if err := o.gateway.UpdatePostStatus(ctx, postID, store.PostFailed); err != nil {
		return err
	}
	if err := o.gateway.FailTask(ctx, postID, message); err != nil {
		return err
	}
	o.broadcaster.Publish(postID, 0, store.TaskFailed)
	if o.notifier != nil {
		if err := o.notifier.NotifyPostFailed(ctx, state.post.URL, message); err != nil {
			state.log.Warn("failure notification failed",
				logging.Int64(logging.FieldPostID, postID),
				logging.Error(err),
			)
		}
	}
	return nil
}

// announce persists the new progress value and broadcasts it. The store
// clamps progress monotonically, so stale lower values never overwrite a
// higher one.
func (o *Orchestrator) announce(ctx context.Context, postID int64, fraction float64, status store.TaskStatus) error {
	if err := o.gateway.SetTaskProgress(ctx, postID, fraction); err != nil {
		return err
	}
	o.broadcaster.Publish(postID, fraction, status)
	return nil
}
