package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MediaKind classifies a post by the attachment it carries
type MediaKind string

const (
	KindText  MediaKind = "text"
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// videoMarker is the substring that identifies a video asset URL
const videoMarker = "mp4"

// Post is a single timeline entry captured from the mirror.
//
// Two posts are the same post iff both fields are structurally equal.
// The source site exposes no stable ID, so the pair itself is the key.
type Post struct {
	MediaURL    *string
	CaptionText string
}

// NewTextPost creates a post without media
func NewTextPost(caption string) Post {
	return Post{CaptionText: caption}
}

// NewMediaPost creates a post with an attached image or video URL
func NewMediaPost(mediaURL, caption string) Post {
	u := mediaURL
	return Post{MediaURL: &u, CaptionText: caption}
}

// HasMedia reports whether the post carries an attachment
func (p Post) HasMedia() bool {
	return p.MediaURL != nil
}

// Media returns the media URL or an empty string for text posts
func (p Post) Media() string {
	if p.MediaURL == nil {
		return ""
	}
	return *p.MediaURL
}

// Kind re-derives the classification from the media URL
func (p Post) Kind() MediaKind {
	switch {
	case p.MediaURL == nil || *p.MediaURL == "":
		return KindText
	case strings.Contains(*p.MediaURL, videoMarker):
		return KindVideo
	default:
		return KindImage
	}
}

// Equal reports structural equality of both fields
func (p Post) Equal(other Post) bool {
	if p.CaptionText != other.CaptionText {
		return false
	}
	if p.MediaURL == nil || other.MediaURL == nil {
		return p.MediaURL == nil && other.MediaURL == nil
	}
	return *p.MediaURL == *other.MediaURL
}

// String renders the post for log lines
func (p Post) String() string {
	if p.MediaURL == nil {
		return fmt.Sprintf("(null, %q)", p.CaptionText)
	}
	return fmt.Sprintf("(%q, %q)", *p.MediaURL, p.CaptionText)
}

// MarshalJSON encodes the post as a two-element array [mediaUrl|null, caption]
func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{p.MediaURL, p.CaptionText})
}

// UnmarshalJSON decodes the two-element array form written by MarshalJSON
func (p *Post) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("post must be a [media, caption] array: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("post must have 2 elements, got %d", len(tuple))
	}

	var media *string
	if err := json.Unmarshal(tuple[0], &media); err != nil {
		return fmt.Errorf("invalid media url: %w", err)
	}
	var caption string
	if err := json.Unmarshal(tuple[1], &caption); err != nil {
		return fmt.Errorf("invalid caption: %w", err)
	}

	p.MediaURL = media
	p.CaptionText = caption
	return nil
}

// Reverse returns a copy of posts in the opposite order
func Reverse(posts []Post) []Post {
	out := make([]Post, len(posts))
	for i, post := range posts {
		out[len(posts)-1-i] = post
	}
	return out
}
