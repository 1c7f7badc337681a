package collector

import (
	"context"
	"iter"

	"crossposter/pkg/logger"
	"crossposter/pkg/models"
)

// PageFetcher is the interface for retrieving raw listing pages
type PageFetcher interface {
	FetchPage(ctx context.Context, account string, page int) ([]byte, error)
	BaseURL() string
}

// Collector walks an account's listing on the mirror, newest first
type Collector struct {
	fetcher  PageFetcher
	account  string
	maxPages int
	logger   logger.Logger
}

// Option configures a Collector
type Option func(*Collector)

// WithMaxPages bounds the number of pages fetched. Zero means unbounded.
func WithMaxPages(n int) Option {
	return func(c *Collector) {
		c.maxPages = n
	}
}

// WithLogger sets the logger used by the collector
func WithLogger(log logger.Logger) Option {
	return func(c *Collector) {
		c.logger = log
	}
}

// New creates a collector for account
func New(fetcher PageFetcher, account string, opts ...Option) *Collector {
	c := &Collector{
		fetcher: fetcher,
		account: account,
		logger:  logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect yields every post of the account, newest first. Pages are
// fetched lazily, one at a time, until a page has no timeline items.
// A fetch or parse failure is yielded once and ends the sequence.
func (c *Collector) Collect(ctx context.Context) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		log := c.logger.WithField("account", c.account)

		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				yield(models.Post{}, err)
				return
			}
			if c.maxPages > 0 && page > c.maxPages {
				log.WarnWithFields("page budget reached, stopping collection", map[string]interface{}{
					"max_pages": c.maxPages,
				})
				return
			}

			log.InfoWithFields("fetching listing page", map[string]interface{}{
				"page": page,
			})

			body, err := c.fetcher.FetchPage(ctx, c.account, page)
			if err != nil {
				yield(models.Post{}, err)
				return
			}

			posts, err := ParsePage(body, c.fetcher.BaseURL())
			if err != nil {
				yield(models.Post{}, err)
				return
			}
			if len(posts) == 0 {
				log.DebugWithFields("empty page, end of history", map[string]interface{}{
					"page": page,
				})
				return
			}

			log.DebugWithFields("page parsed", map[string]interface{}{
				"page":  page,
				"items": len(posts),
			})

			for _, post := range posts {
				if !yield(post, nil) {
					return
				}
			}
		}
	}
}

// CollectAll drains Collect into a slice, stopping at the first error
func (c *Collector) CollectAll(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	for post, err := range c.Collect(ctx) {
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}
