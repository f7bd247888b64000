package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractYouTubeVideoID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "watch", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", expected: "dQw4w9WgXcQ"},
		{name: "watch in playlist", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL1", expected: "dQw4w9WgXcQ"},
		{name: "short link", url: "https://youtu.be/dQw4w9WgXcQ", expected: "dQw4w9WgXcQ"},
		{name: "no scheme", url: "youtu.be/dQw4w9WgXcQ", expected: "dQw4w9WgXcQ"},
		{name: "embed", url: "https://www.youtube.com/embed/dQw4w9WgXcQ", expected: "dQw4w9WgXcQ"},
		{name: "shorts", url: "https://youtube.com/shorts/dQw4w9WgXcQ", expected: "dQw4w9WgXcQ"},
		{name: "live", url: "https://www.youtube.com/live/dQw4w9WgXcQ/extra", expected: "dQw4w9WgXcQ"},
		{name: "bad length", url: "https://www.youtube.com/watch?v=short", expected: ""},
		{name: "playlist only", url: "https://www.youtube.com/playlist?list=PL1", expected: ""},
		{name: "other host", url: "https://vimeo.com/123", expected: ""},
		{name: "empty", url: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractYouTubeVideoID(tt.url))
		})
	}
}

func TestIsYouTubePlaylistURL(t *testing.T) {
	assert.True(t, IsYouTubePlaylistURL("https://www.youtube.com/playlist?list=PL1"))
	assert.False(t, IsYouTubePlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL1"))
	assert.False(t, IsYouTubePlaylistURL("https://example.com/?list=PL1"))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.mp3"))
	assert.True(t, IsURL("www.example.com"))
	assert.True(t, IsURL("youtu.be/dQw4w9WgXcQ"))
	assert.False(t, IsURL("never gonna give you up"))
}

func TestThumbnailAndWatchURL(t *testing.T) {
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", GetYouTubeThumbnailURL("dQw4w9WgXcQ"))
	assert.Equal(t, "", GetYouTubeThumbnailURL(""))
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", YouTubeWatchURL("dQw4w9WgXcQ"))
}
