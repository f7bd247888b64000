package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// IsYouTubeURL checks if a URL appears to be from YouTube
func IsYouTubeURL(urlStr string) bool {
	return strings.Contains(urlStr, "youtube.com") || strings.Contains(urlStr, "youtu.be")
}

// IsYouTubePlaylistURL checks if a YouTube URL points at a playlist
func IsYouTubePlaylistURL(urlStr string) bool {
	if !IsYouTubeURL(urlStr) {
		return false
	}
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return parsedURL.Query().Get("list") != "" && parsedURL.Query().Get("v") == ""
}

// IsURL checks if a string appears to be a URL
func IsURL(str string) bool {
	return strings.HasPrefix(str, "http://") || strings.HasPrefix(str, "https://") ||
		strings.HasPrefix(str, "www.") || IsYouTubeURL(str)
}

// ExtractYouTubeVideoID extracts the video ID from a YouTube URL
func ExtractYouTubeVideoID(youtubeURL string) string {
	if !strings.Contains(youtubeURL, "://") {
		youtubeURL = "https://" + youtubeURL
	}
	parsedURL, err := url.Parse(youtubeURL)
	if err != nil {
		return ""
	}

	var id string
	switch {
	case strings.Contains(parsedURL.Host, "youtu.be"):
		id = strings.TrimPrefix(parsedURL.Path, "/")
	case strings.Contains(parsedURL.Host, "youtube.com"):
		if v := parsedURL.Query().Get("v"); v != "" {
			id = v
		} else {
			for _, prefix := range []string{"/embed/", "/shorts/", "/live/"} {
				if rest, ok := strings.CutPrefix(parsedURL.Path, prefix); ok {
					id = strings.Split(rest, "/")[0]
					break
				}
			}
		}
	}

	if !videoIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// GetYouTubeThumbnailURL generates a thumbnail URL from a video ID
func GetYouTubeThumbnailURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", videoID)
}

// YouTubeWatchURL builds the canonical watch page URL for a video ID
func YouTubeWatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
