package common

import (
	"fmt"
	"time"
)

const (
	UnknownTitle    = "Unknown Title"
	UnknownUploader = "Unknown"
)

// Track represents a single playable item resolved by the extractor
type Track struct {
	Title      string
	StreamURL  string // Stream URL, may expire
	WebpageURL string // Canonical page URL (may be empty)
	Duration   int    // Seconds, 0 if unknown
	Thumbnail  string
	Uploader   string
}

// NewTrack builds a Track and fills in the placeholders for unknown fields
func NewTrack(title, streamURL, webpageURL string, duration int, thumbnail, uploader string) Track {
	if title == "" {
		title = UnknownTitle
	}
	if uploader == "" {
		uploader = UnknownUploader
	}
	if duration < 0 {
		duration = 0
	}

	return Track{
		Title:      title,
		StreamURL:  streamURL,
		WebpageURL: webpageURL,
		Duration:   duration,
		Thumbnail:  thumbnail,
		Uploader:   uploader,
	}
}

// Length returns the track duration as a time.Duration
func (t Track) Length() time.Duration {
	return time.Duration(t.Duration) * time.Second
}

// FormatDuration formats a duration into a human-readable string
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}

	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60

	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
