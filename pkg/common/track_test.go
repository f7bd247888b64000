package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTrack_Defaults(t *testing.T) {
	track := NewTrack("", "https://stream", "", -5, "", "")

	assert.Equal(t, UnknownTitle, track.Title)
	assert.Equal(t, UnknownUploader, track.Uploader)
	assert.Equal(t, 0, track.Duration)
	assert.Equal(t, "https://stream", track.StreamURL)
	assert.Equal(t, time.Duration(0), track.Length())
}

func TestNewTrack_KeepsValues(t *testing.T) {
	track := NewTrack("Song", "https://stream", "https://page", 90, "https://thumb", "Band")

	assert.Equal(t, Track{
		Title:      "Song",
		StreamURL:  "https://stream",
		WebpageURL: "https://page",
		Duration:   90,
		Thumbnail:  "https://thumb",
		Uploader:   "Band",
	}, track)
	assert.Equal(t, 90*time.Second, track.Length())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{0, "unknown"},
		{-time.Second, "unknown"},
		{45 * time.Second, "45s"},
		{213 * time.Second, "3m 33s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h 2m 3s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.in))
	}
}
