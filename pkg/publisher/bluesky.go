package publisher

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"crossposter/pkg/config"
	errs "crossposter/pkg/errors"
	"crossposter/pkg/logger"
)

const (
	postCollection = "app.bsky.feed.post"

	// DefaultHost is the public Bluesky PDS entryway
	DefaultHost = "https://bsky.social"
)

// MediaFetcher downloads the bytes behind a media URL
type MediaFetcher interface {
	FetchMedia(ctx context.Context, url string) ([]byte, string, error)
}

// Bluesky publishes posts to an AT Protocol PDS
type Bluesky struct {
	client  *xrpc.Client
	media   MediaFetcher
	handle  string
	logger  logger.Logger
	nowFunc func() time.Time
}

// NewBluesky creates an unauthenticated publisher; call Login before posting
func NewBluesky(cfg config.BlueskyConfig, timeout time.Duration, media MediaFetcher, log logger.Logger) *Bluesky {
	if log == nil {
		log = logger.GetLogger()
	}
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	return &Bluesky{
		client: &xrpc.Client{
			Client: &http.Client{Timeout: timeout},
			Host:   host,
		},
		media:   media,
		handle:  cfg.Handle,
		logger:  log.WithField("host", host),
		nowFunc: time.Now,
	}
}

// Login creates a session with the handle and app password
func (b *Bluesky) Login(ctx context.Context, password string) error {
	b.logger.InfoWithFields("creating session", map[string]interface{}{
		"handle": b.handle,
	})

	session, err := comatproto.ServerCreateSession(ctx, b.client, &comatproto.ServerCreateSession_Input{
		Identifier: b.handle,
		Password:   password,
	})
	if err != nil {
		return wrapXRPC(errs.ErrorTypeAuth, err, "failed to create session")
	}

	b.client.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	b.logger.InfoWithFields("session created", map[string]interface{}{
		"handle": session.Handle,
		"did":    session.Did,
	})
	return nil
}

// PostText creates a text-only post
func (b *Bluesky) PostText(ctx context.Context, caption string) error {
	return b.createPost(ctx, caption, nil)
}

// PostImage downloads the image, uploads it as a blob and posts it with caption
func (b *Bluesky) PostImage(ctx context.Context, imageURL, caption string) error {
	blob, err := b.uploadFrom(ctx, imageURL)
	if err != nil {
		return err
	}

	return b.createPost(ctx, caption, &bsky.FeedPost_Embed{
		EmbedImages: &bsky.EmbedImages{
			LexiconTypeID: "app.bsky.embed.images",
			Images: []*bsky.EmbedImages_Image{
				{Alt: caption, Image: blob},
			},
		},
	})
}

// PostVideo downloads the video, uploads it as a blob and posts it with caption
func (b *Bluesky) PostVideo(ctx context.Context, videoURL, caption string) error {
	blob, err := b.uploadFrom(ctx, videoURL)
	if err != nil {
		return err
	}

	return b.createPost(ctx, caption, &bsky.FeedPost_Embed{
		EmbedVideo: &bsky.EmbedVideo{
			LexiconTypeID: "app.bsky.embed.video",
			Video:         blob,
		},
	})
}

// uploadFrom fetches mediaURL and uploads the bytes to the PDS
func (b *Bluesky) uploadFrom(ctx context.Context, mediaURL string) (*lexutil.LexBlob, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}

	data, contentType, err := b.media.FetchMedia(ctx, mediaURL)
	if err != nil {
		return nil, err
	}

	b.logger.DebugWithFields("uploading blob", map[string]interface{}{
		"url":          mediaURL,
		"size":         len(data),
		"content_type": contentType,
	})

	out, err := comatproto.RepoUploadBlob(ctx, b.client, bytes.NewReader(data))
	if err != nil {
		return nil, wrapXRPC(errs.ErrorTypePublish, err, "failed to upload blob")
	}
	if out.Blob == nil {
		return nil, errs.New(errs.ErrorTypePublish, "upload returned no blob", 0)
	}

	return out.Blob, nil
}

// createPost writes an app.bsky.feed.post record to the session's repo
func (b *Bluesky) createPost(ctx context.Context, text string, embed *bsky.FeedPost_Embed) error {
	if err := b.requireSession(); err != nil {
		return err
	}

	post := &bsky.FeedPost{
		LexiconTypeID: postCollection,
		Text:          text,
		CreatedAt:     b.nowFunc().UTC().Format(time.RFC3339),
		Embed:         embed,
	}

	out, err := comatproto.RepoCreateRecord(ctx, b.client, &comatproto.RepoCreateRecord_Input{
		Collection: postCollection,
		Repo:       b.client.Auth.Did,
		Record:     &lexutil.LexiconTypeDecoder{Val: post},
	})
	if err != nil {
		return wrapXRPC(errs.ErrorTypePublish, err, "failed to create post")
	}

	b.logger.InfoWithFields("post created", map[string]interface{}{
		"uri": out.Uri,
		"cid": out.Cid,
	})
	return nil
}

func (b *Bluesky) requireSession() error {
	if b.client.Auth == nil || b.client.Auth.Did == "" {
		return errs.New(errs.ErrorTypeAuth, "not logged in", 0)
	}
	return nil
}

// wrapXRPC keeps the HTTP status of an XRPC failure as the error code
func wrapXRPC(errorType errs.ErrorType, err error, message string) error {
	wrapped := errs.Wrap(errorType, err, message)

	var xerr *xrpc.Error
	if stderrors.As(err, &xerr) {
		wrapped.Code = xerr.StatusCode
		if xerr.StatusCode == http.StatusUnauthorized {
			wrapped.Type = errs.ErrorTypeAuth
		}
	}
	return wrapped
}
