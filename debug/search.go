package debug

import (
	"fmt"
	"io"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
)

// PrintTracks writes the tracks a search resolved, numbered like the queue
func PrintTracks(w io.Writer, query string, tracks []common.Track) {
	if len(tracks) == 0 {
		fmt.Fprintf(w, "❌ Could not find any songs for %q\n", query)
		return
	}

	fmt.Fprintf(w, "✅ Found %d song(s) for %q\n", len(tracks), query)
	for i, track := range tracks {
		fmt.Fprintf(w, "%d. %s by %s (%s)\n", i+1, track.Title, track.Uploader, common.FormatDuration(track.Length()))
		if track.WebpageURL != "" {
			fmt.Fprintf(w, "   page:   %s\n", track.WebpageURL)
		}
		fmt.Fprintf(w, "   stream: %s\n", shorten(track.StreamURL, 80))
	}
}

func shorten(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
