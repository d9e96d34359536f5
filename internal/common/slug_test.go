package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Go 1.25 Released!", "go-1-25-released"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"UPPER_case_and-dashes", "upper-case-and-dashes"},
		{"déjà vu über article", "dj-vu-ber-article"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.input), "input %q", tt.input)
	}
}

func TestSlugify_LengthCap(t *testing.T) {
	slug := Slugify(strings.Repeat("verylongword ", 30))
	assert.LessOrEqual(t, len(slug), maxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestSlugFromURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		title string
		want  string
	}{
		{
			name: "last path segment",
			url:  "https://blog.example.com/posts/my-great-article",
			want: "my-great-article",
		},
		{
			name: "extension stripped",
			url:  "https://example.com/articles/deep-dive.html",
			want: "deep-dive",
		},
		{
			name: "trailing slash",
			url:  "https://example.com/section/another-post/",
			want: "another-post",
		},
		{
			name: "youtube watch URL uses video ID",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "video-dqw4w9wgxcq",
		},
		{
			name:  "falls back to title for bare host",
			url:   "https://example.com/",
			title: "Fallback Title Here",
			want:  "fallback-title-here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlugFromURL(tt.url, tt.title))
		})
	}
}

func TestSlugFromURL_Stable(t *testing.T) {
	url := "https://example.com/posts/stable-slug"
	assert.Equal(t, SlugFromURL(url, "A"), SlugFromURL(url, "B"))
}

func TestSlugFromURL_PathologicalGetsRandomID(t *testing.T) {
	slug := SlugFromURL("https://example.com/", "")
	assert.True(t, strings.HasPrefix(slug, "post-"))
	assert.Greater(t, len(slug), len("post-"))
}

func TestYouTubeVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123XYZ_-", "abc123XYZ_-"},
		{"https://youtu.be/abc123XYZ_-", "abc123XYZ_-"},
		{"https://www.youtube.com/embed/abc123XYZ_-", "abc123XYZ_-"},
		{"https://www.youtube.com/shorts/abc123XYZ_-", "abc123XYZ_-"},
		{"https://m.youtube.com/watch?v=abc123XYZ_-", "abc123XYZ_-"},
		{"https://example.com/watch?v=abc", ""},
		{"not a url at all ::", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, YouTubeVideoID(tt.url), "url %s", tt.url)
	}
}

func TestIsYouTubeURL(t *testing.T) {
	assert.True(t, IsYouTubeURL("https://www.youtube.com/watch?v=x"))
	assert.True(t, IsYouTubeURL("https://youtu.be/x"))
	assert.False(t, IsYouTubeURL("https://example.com/youtube"))
}

func TestNewRunID(t *testing.T) {
	first := NewRunID()
	second := NewRunID()

	assert.True(t, strings.HasPrefix(first, "run_"))
	assert.NotEqual(t, first, second)
}
