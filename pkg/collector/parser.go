package collector

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "crossposter/pkg/errors"
	"crossposter/pkg/mirror"
	"crossposter/pkg/models"
)

// Selectors for the mirror's timeline markup
const (
	itemSelector    = "div.timeline-item"
	videoSelector   = "div.gallery-video"
	videoSource     = "source[src]"
	imageSelector   = "div.attachment.image"
	imageSource     = "img[src]"
	captionSelector = "div.tweet-content.media-body"
)

// ParsePage extracts the posts of one listing page in document order.
// An empty result means the page carried no timeline items.
func ParsePage(body []byte, baseURL string) ([]models.Post, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse listing page")
	}

	var (
		posts    []models.Post
		parseErr error
	)
	doc.Find(itemSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
		post, err := parseItem(item, baseURL)
		if err != nil {
			parseErr = fmt.Errorf("timeline item %d: %w", i, err)
			return false
		}
		posts = append(posts, post)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return posts, nil
}

// parseItem classifies a single timeline item. Video takes precedence
// over image, image over text.
func parseItem(item *goquery.Selection, baseURL string) (models.Post, error) {
	caption := strings.TrimSpace(item.Find(captionSelector).First().Text())

	if gallery := item.Find(videoSelector); gallery.Length() > 0 {
		return mediaPost(gallery.Find(videoSource), baseURL, caption)
	}
	if attachment := item.Find(imageSelector); attachment.Length() > 0 {
		return mediaPost(attachment.Find(imageSource), baseURL, caption)
	}

	return models.NewTextPost(caption), nil
}

func mediaPost(source *goquery.Selection, baseURL, caption string) (models.Post, error) {
	src, ok := source.First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return models.Post{}, errs.New(errs.ErrorTypeParsing, "media container without source", 0)
	}

	mediaURL, err := mirror.ResolveURL(baseURL, src)
	if err != nil {
		return models.Post{}, errs.Wrap(errs.ErrorTypeParsing, err, "invalid media source")
	}

	return models.NewMediaPost(mediaURL, caption), nil
}
