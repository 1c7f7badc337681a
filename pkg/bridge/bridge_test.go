package bridge

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossposter/internal/testutil"
	"crossposter/pkg/collector"
	"crossposter/pkg/config"
	"crossposter/pkg/logger"
	"crossposter/pkg/mirror"
	"crossposter/pkg/models"
	"crossposter/pkg/publisher"
	"crossposter/pkg/store"
)

// sliceSource yields fixed posts, newest first, then an optional error
type sliceSource struct {
	posts []models.Post
	err   error
}

func (s *sliceSource) Collect(ctx context.Context) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		for _, p := range s.posts {
			if !yield(p, nil) {
				return
			}
		}
		if s.err != nil {
			yield(models.Post{}, s.err)
		}
	}
}

func newJSONStore(t *testing.T) *store.JSONStore {
	return store.NewJSONStore(filepath.Join(t.TempDir(), "posted_tweets.json"), logger.NewTestLogger())
}

func TestRunTextScenario(t *testing.T) {
	st := newJSONStore(t)
	rec := publisher.NewRecorder()
	src := &sliceSource{posts: []models.Post{models.NewTextPost("hello world")}}

	summary, err := New(src, rec, st, WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []publisher.Call{{Op: "text", Caption: "hello world"}}, rec.Calls())
	assert.Equal(t, 1, summary.Published)

	posted, err := st.Load()
	require.NoError(t, err)
	require.Len(t, posted, 1)
	assert.Nil(t, posted[0].MediaURL)
	assert.Equal(t, "hello world", posted[0].CaptionText)
}

func TestRunImageScenario(t *testing.T) {
	rec := publisher.NewRecorder()
	src := &sliceSource{posts: []models.Post{models.NewMediaPost("https://x/img.jpg", "pic")}}

	_, err := New(src, rec, newJSONStore(t), WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []publisher.Call{{Op: "image", URL: "https://x/img.jpg", Caption: "pic"}}, rec.Calls())
}

func TestRunSkipsAlreadyPosted(t *testing.T) {
	st := newJSONStore(t)
	require.NoError(t, st.Append(models.NewTextPost("dup")))

	rec := publisher.NewRecorder()
	log := logger.NewTestLogger()
	src := &sliceSource{posts: []models.Post{models.NewTextPost("dup")}}

	summary, err := New(src, rec, st, WithLogger(log)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, rec.Calls())
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Published)
	assert.True(t, log.HasMessage("already posted"))
}

func TestRunPublishesOldestFirst(t *testing.T) {
	rec := publisher.NewRecorder()
	newestFirst := []models.Post{
		models.NewTextPost("third"),
		models.NewMediaPost("https://x/2.jpg", "second"),
		models.NewMediaPost("https://x/1.mp4", "first"),
	}

	_, err := New(&sliceSource{posts: newestFirst}, rec, newJSONStore(t), WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []publisher.Call{
		{Op: "video", URL: "https://x/1.mp4", Caption: "first"},
		{Op: "image", URL: "https://x/2.jpg", Caption: "second"},
		{Op: "text", Caption: "third"},
	}, rec.Calls())
}

func TestRunIsIdempotent(t *testing.T) {
	st := newJSONStore(t)
	src := &sliceSource{posts: []models.Post{
		models.NewTextPost("b"),
		models.NewMediaPost("https://x/a.jpg", "a"),
	}}

	first := publisher.NewRecorder()
	_, err := New(src, first, st, WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Calls(), 2)

	second := publisher.NewRecorder()
	summary, err := New(src, second, st, WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Calls())
	assert.Equal(t, 2, summary.Skipped)
}

func TestRunStopsOnPublishFailure(t *testing.T) {
	st := newJSONStore(t)
	boom := errors.New("destination unavailable")
	rec := publisher.NewRecorder()
	rec.FailOn = func(c publisher.Call) bool { return c.Caption == "second" }
	rec.Err = boom

	src := &sliceSource{posts: []models.Post{
		models.NewTextPost("third"),
		models.NewTextPost("second"),
		models.NewTextPost("first"),
	}}

	summary, err := New(src, rec, st, WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.ErrorIs(t, err, boom)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Published)

	// the failed post is not recorded, so the next run retries it
	posted, err := st.Load()
	require.NoError(t, err)
	require.Len(t, posted, 1)
	assert.Equal(t, "first", posted[0].CaptionText)
}

func TestRunCollectionErrorIsFatal(t *testing.T) {
	boom := errors.New("mirror down")
	rec := publisher.NewRecorder()
	src := &sliceSource{posts: []models.Post{models.NewTextPost("a")}, err: boom}

	_, err := New(src, rec, newJSONStore(t), WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, rec.Calls(), "nothing is published when collection fails")
}

func TestRunDuplicateWithinOneCollection(t *testing.T) {
	rec := publisher.NewRecorder()
	src := &sliceSource{posts: []models.Post{
		models.NewTextPost("same"),
		models.NewTextPost("same"),
	}}

	summary, err := New(src, rec, newJSONStore(t), WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, rec.Calls(), 1)
	assert.Equal(t, 1, summary.Skipped)
}

// progressLog records the calls the bridge makes on its Progress
type progressLog struct {
	total     int
	published []string
	failed    []string
}

func (p *progressLog) Start(total int) { p.total = total }
func (p *progressLog) Published(post models.Post) { p.published = append(p.published, post.CaptionText) }
func (p *progressLog) Failed(post models.Post, _ error) { p.failed = append(p.failed, post.CaptionText) }

func TestRunReportsProgress(t *testing.T) {
	st := newJSONStore(t)
	require.NoError(t, st.Append(models.NewTextPost("old")))

	rec := publisher.NewRecorder()
	rec.FailOn = func(c publisher.Call) bool { return c.Caption == "c" }
	rec.Err = errors.New("boom")

	src := &sliceSource{posts: []models.Post{
		models.NewTextPost("c"),
		models.NewTextPost("b"),
		models.NewTextPost("old"),
		models.NewTextPost("a"),
	}}
	progress := &progressLog{}

	_, err := New(src, rec, st, WithProgress(progress), WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 3, progress.total)
	assert.Equal(t, []string{"a", "b"}, progress.published)
	assert.Equal(t, []string{"c"}, progress.failed)
}

// blockingLimiter never grants a slot
type blockingLimiter struct{}

func (blockingLimiter) Allow() bool { return false }
func (blockingLimiter) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
func (blockingLimiter) Reset() {}

func TestRunHonoursCancellationWhilePaced(t *testing.T) {
	rec := publisher.NewRecorder()
	src := &sliceSource{posts: []models.Post{models.NewTextPost("a")}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(src, rec, newJSONStore(t), WithLimiter(blockingLimiter{}), WithLogger(logger.NewTestLogger())).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, rec.Calls())
}

func newMirrorClient(m *testutil.MockMirror) *mirror.Client {
	return mirror.NewClient(config.MirrorConfig{
		BaseURL:      m.URL(),
		Timeout:      5 * time.Second,
		SearchFilter: "tweets",
	}, logger.NewTestLogger())
}

func TestRunAgainstMirror(t *testing.T) {
	m := testutil.NewMockMirror(t,
		[]testutil.Item{{Caption: " newest "}, {Caption: "clip", Video: "/video/clip.mp4"}},
		[]testutil.Item{{Caption: "pic", Image: "/pic/img.jpg"}},
	)

	src := collector.New(newMirrorClient(m), "someone", collector.WithLogger(logger.NewTestLogger()))
	rec := publisher.NewRecorder()

	summary, err := New(src, rec, newJSONStore(t), WithLogger(logger.NewTestLogger())).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Discovered)
	assert.Equal(t, []publisher.Call{
		{Op: "image", URL: m.URL() + "/pic/img.jpg", Caption: "pic"},
		{Op: "video", URL: m.URL() + "/video/clip.mp4", Caption: "clip"},
		{Op: "text", Caption: "newest"},
	}, rec.Calls())
	assert.NotEmpty(t, summary.RunID)
}

func TestRunEndToEnd(t *testing.T) {
	m := testutil.NewMockMirror(t,
		[]testutil.Item{{Caption: "second"}, {Caption: "first", Image: "/pic/media%2Ffirst.jpg"}},
	)
	pds := testutil.NewMockPDS(t)
	client := newMirrorClient(m)

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "posted.db"), logger.NewTestLogger())
	require.NoError(t, err)
	defer st.Close()

	bluesky := publisher.NewBluesky(config.BlueskyConfig{
		Host:   pds.URL(),
		Handle: "someone.bsky.social",
	}, 5*time.Second, client, logger.NewTestLogger())
	require.NoError(t, bluesky.Login(context.Background(), pds.Password))

	run := func() *Summary {
		src := collector.New(client, "someone", collector.WithLogger(logger.NewTestLogger()))
		summary, err := New(src, bluesky, st, WithLogger(logger.NewTestLogger())).Run(context.Background())
		require.NoError(t, err)
		return summary
	}

	first := run()
	assert.Equal(t, 2, first.Published)
	assert.Equal(t, []string{"first", "second"}, pds.Texts())
	require.Len(t, pds.Uploads(), 1)
	assert.Equal(t, "media/pic/media/first.jpg", string(pds.Uploads()[0]))
	assert.Equal(t, 1, m.MediaCount())
	assert.Equal(t, config.DefaultUserAgent, m.LastUserAgent())

	// a new post appears at the top of the timeline
	m.SetPage(1,
		testutil.Item{Caption: "third"},
		testutil.Item{Caption: "second"},
		testutil.Item{Caption: "first", Image: "/pic/media%2Ffirst.jpg"},
	)

	second := run()
	assert.Equal(t, 1, second.Published)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, []string{"first", "second", "third"}, pds.Texts())
	// the recorded image is skipped, so its media is not downloaded again
	assert.Equal(t, 1, m.MediaCount())

	posted, err := st.Load()
	require.NoError(t, err)
	require.Len(t, posted, 3)
	assert.Equal(t, m.URL()+"/pic/media%2Ffirst.jpg", posted[0].Media())
	assert.Equal(t, "third", posted[2].CaptionText)
}
