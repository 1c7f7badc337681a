// Package bridge runs one cross-posting pass: collect every post of the
// source account, replay them oldest first, publish what has not been
// published before and record each success.
package bridge

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"crossposter/pkg/logger"
	"crossposter/pkg/models"
	"crossposter/pkg/publisher"
	"crossposter/pkg/ratelimit"
	"crossposter/pkg/store"
)

// Source yields the account's posts, newest first
type Source interface {
	Collect(ctx context.Context) iter.Seq2[models.Post, error]
}

// Progress observes the publishing phase of a run
type Progress interface {
	Start(total int)
	Published(post models.Post)
	Failed(post models.Post, err error)
}

type noProgress struct{}

func (noProgress) Start(int) {}
func (noProgress) Published(models.Post) {}
func (noProgress) Failed(models.Post, error) {}

// Summary reports the outcome of a run
type Summary struct {
	RunID      string
	Discovered int
	Published  int
	Skipped    int
	Duration   time.Duration
}

// Bridge wires a source, a publisher and a dedup store together
type Bridge struct {
	source    Source
	publisher publisher.Publisher
	store     store.Store
	limiter   ratelimit.Limiter
	progress  Progress
	logger    logger.Logger
}

// Option configures a Bridge
type Option func(*Bridge)

// WithLimiter paces publishing
func WithLimiter(l ratelimit.Limiter) Option {
	return func(b *Bridge) {
		b.limiter = l
	}
}

// WithProgress reports each publish attempt to p
func WithProgress(p Progress) Option {
	return func(b *Bridge) {
		b.progress = p
	}
}

// WithLogger sets the logger used by the bridge
func WithLogger(log logger.Logger) Option {
	return func(b *Bridge) {
		b.logger = log
	}
}

// New creates a bridge
func New(source Source, pub publisher.Publisher, st store.Store, opts ...Option) *Bridge {
	b := &Bridge{
		source:    source,
		publisher: pub,
		store:     st,
		limiter:   ratelimit.Unlimited{},
		progress:  noProgress{},
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run performs one pass. The first collection, publish or storage error
// aborts the run; posts published before it stay recorded. The returned
// summary is never nil.
func (b *Bridge) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.New().String()}
	log := b.logger.WithField("run_id", summary.RunID)

	defer func() {
		summary.Duration = time.Since(start)
	}()

	posted, err := b.store.Load()
	if err != nil {
		return summary, fmt.Errorf("failed to load posted list: %w", err)
	}
	log.InfoWithFields("loaded posted list", map[string]interface{}{
		"count": len(posted),
	})

	var collected []models.Post
	for post, err := range b.source.Collect(ctx) {
		if err != nil {
			log.WithError(err).Error("collection failed")
			return summary, fmt.Errorf("failed to collect posts: %w", err)
		}
		collected = append(collected, post)
	}
	summary.Discovered = len(collected)
	log.InfoWithFields("collection finished", map[string]interface{}{
		"discovered": summary.Discovered,
	})

	var pending []models.Post
	for _, post := range models.Reverse(collected) {
		if store.Contains(posted, post) || store.Contains(pending, post) {
			log.InfoWithFields("already posted", map[string]interface{}{
				"post": post.String(),
			})
			summary.Skipped++
			continue
		}
		pending = append(pending, post)
	}
	b.progress.Start(len(pending))

	for _, post := range pending {
		if err := b.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		postLog := log.WithFields(map[string]interface{}{
			"kind":  string(post.Kind()),
			"media": post.Media(),
		})
		postLog.Info("publishing post")

		if err := publisher.Publish(ctx, b.publisher, post); err != nil {
			postLog.WithError(err).Error("publish failed")
			b.progress.Failed(post, err)
			return summary, fmt.Errorf("failed to publish %s: %w", post, err)
		}
		if err := b.store.Append(post); err != nil {
			postLog.WithError(err).Error("failed to record published post")
			b.progress.Failed(post, err)
			return summary, fmt.Errorf("failed to record %s: %w", post, err)
		}

		summary.Published++
		b.progress.Published(post)
	}

	log.InfoWithFields("run complete", map[string]interface{}{
		"discovered": summary.Discovered,
		"published":  summary.Published,
		"skipped":    summary.Skipped,
		"duration":   time.Since(start).String(),
	})

	return summary, nil
}
