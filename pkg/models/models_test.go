package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostKind(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want MediaKind
	}{
		{"text", NewTextPost("hello"), KindText},
		{"empty media", NewMediaPost("", "hello"), KindText},
		{"image", NewMediaPost("https://x/img.jpg", "pic"), KindImage},
		{"video", NewMediaPost("https://x/video/clip.mp4", "clip"), KindVideo},
		{"video query marker", NewMediaPost("https://x/video/abc?format=mp4", "clip"), KindVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.post.Kind())
		})
	}
}

func TestPostEqual(t *testing.T) {
	assert.True(t, NewTextPost("dup").Equal(NewTextPost("dup")))
	assert.True(t, NewMediaPost("https://x/a.jpg", "a").Equal(NewMediaPost("https://x/a.jpg", "a")))

	assert.False(t, NewTextPost("dup").Equal(NewTextPost("dup ")))
	assert.False(t, NewTextPost("a").Equal(NewMediaPost("", "a")), "nil media must not equal empty media")
	assert.False(t, NewMediaPost("https://x/a.jpg", "a").Equal(NewMediaPost("https://x/b.jpg", "a")))
}

func TestPostJSONMatchesLegacyFormat(t *testing.T) {
	data, err := json.Marshal([]Post{
		NewTextPost("hello world"),
		NewMediaPost("https://x/img.jpg", "pic"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[[null, "hello world"], ["https://x/img.jpg", "pic"]]`, string(data))

	var posts []Post
	require.NoError(t, json.Unmarshal([]byte(`[[null, "hello world"], ["https://x/img.jpg", "pic"]]`), &posts))
	require.Len(t, posts, 2)
	assert.True(t, posts[0].Equal(NewTextPost("hello world")))
	assert.True(t, posts[1].Equal(NewMediaPost("https://x/img.jpg", "pic")))
}

func TestPostUnmarshalRejectsMalformed(t *testing.T) {
	var p Post
	assert.Error(t, json.Unmarshal([]byte(`{"caption": "x"}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`[null]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`[1, "x"]`), &p))
}

func TestReverse(t *testing.T) {
	posts := []Post{NewTextPost("3"), NewTextPost("2"), NewTextPost("1")}
	reversed := Reverse(posts)

	require.Len(t, reversed, 3)
	assert.Equal(t, "1", reversed[0].CaptionText)
	assert.Equal(t, "3", reversed[2].CaptionText)
	assert.Equal(t, "3", posts[0].CaptionText, "input must not be modified")
}
