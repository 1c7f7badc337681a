// Package collector turns an account's paginated listing on a mirror
// front-end into a sequence of posts.
//
// Each page is parsed with goquery. Every div.timeline-item becomes one
// post, classified in a fixed order:
//
//   - div.gallery-video: the source[src] inside it is the video URL
//   - div.attachment.image: the img[src] inside it is the image URL
//   - anything else is a text post
//
// The caption is the trimmed text of div.tweet-content.media-body.
// Relative media URLs are resolved against the mirror base URL.
//
// Usage:
//
//	client := mirror.NewClient(cfg.Mirror, log)
//	c := collector.New(client, "someone", collector.WithMaxPages(50))
//	for post, err := range c.Collect(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(post)
//	}
//
// Collection ends at the first page with no timeline items, when the page
// budget is exhausted, or when the context is cancelled.
package collector
