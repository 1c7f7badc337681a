package publisher

import (
	"context"

	"crossposter/pkg/logger"
)

// DryRun logs what would be posted and never fails
type DryRun struct {
	logger logger.Logger
}

// NewDryRun creates a publisher that only logs
func NewDryRun(log logger.Logger) *DryRun {
	if log == nil {
		log = logger.GetLogger()
	}
	return &DryRun{logger: log.WithField("dry_run", true)}
}

func (d *DryRun) PostVideo(ctx context.Context, videoURL, caption string) error {
	d.logger.InfoWithFields("would post video", map[string]interface{}{
		"url":     videoURL,
		"caption": caption,
	})
	return nil
}

func (d *DryRun) PostImage(ctx context.Context, imageURL, caption string) error {
	d.logger.InfoWithFields("would post image", map[string]interface{}{
		"url":     imageURL,
		"caption": caption,
	})
	return nil
}

func (d *DryRun) PostText(ctx context.Context, caption string) error {
	d.logger.InfoWithFields("would post text", map[string]interface{}{
		"caption": caption,
	})
	return nil
}
