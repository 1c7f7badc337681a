// Package publisher sends collected posts to the destination network.
package publisher

import (
	"context"
	"fmt"

	"crossposter/pkg/models"
)

// Publisher creates posts on the destination network
type Publisher interface {
	PostVideo(ctx context.Context, videoURL, caption string) error
	PostImage(ctx context.Context, imageURL, caption string) error
	PostText(ctx context.Context, caption string) error
}

// Publish routes post to the operation matching its kind
func Publish(ctx context.Context, p Publisher, post models.Post) error {
	switch kind := post.Kind(); kind {
	case models.KindVideo:
		return p.PostVideo(ctx, post.Media(), post.CaptionText)
	case models.KindImage:
		return p.PostImage(ctx, post.Media(), post.CaptionText)
	case models.KindText:
		return p.PostText(ctx, post.CaptionText)
	default:
		return fmt.Errorf("unsupported post kind %q", kind)
	}
}
