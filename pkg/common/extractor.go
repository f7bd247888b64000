package common

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"
)

// CommandRunner runs an external program and returns its stdout and stderr
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// ExecRunner runs the program with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	return out.Bytes(), errOut.Bytes(), err
}

// ytdlpEntry mirrors the fields of `yt-dlp -j` output the bot cares about
type ytdlpEntry struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	WebpageURL string   `json:"webpage_url"`
	Duration   *float64 `json:"duration"`
	Thumbnail  string   `json:"thumbnail"`
	Uploader   string   `json:"uploader"`
}

// Extractor resolves search text or URLs into playable tracks
type Extractor struct {
	ytdlpPath string
	timeout   time.Duration
	run       CommandRunner
	client    *youtube.Client
	fallback  func(ctx context.Context, input string) ([]Track, error)
	logger    *zap.Logger
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithCommandRunner replaces the process runner used to call yt-dlp
func WithCommandRunner(run CommandRunner) ExtractorOption {
	return func(e *Extractor) {
		e.run = run
	}
}

// WithFallback replaces the YouTube client fallback
func WithFallback(fallback func(ctx context.Context, input string) ([]Track, error)) ExtractorOption {
	return func(e *Extractor) {
		e.fallback = fallback
	}
}

// NewExtractor creates an extractor backed by yt-dlp with a YouTube client fallback
func NewExtractor(ytdlpPath string, timeout time.Duration, logger *zap.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ytdlpPath: ytdlpPath,
		timeout:   timeout,
		run:       ExecRunner,
		client:    &youtube.Client{},
		logger:    logger.Named("extractor"),
	}
	e.fallback = e.fromYouTubeClient
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns the tracks matching query. Extraction problems are logged
// and reported as an empty result.
func (e *Extractor) Search(ctx context.Context, query string) []Track {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	tracks, err := e.fromYTDLP(ctx, query)
	if err == nil && len(tracks) > 0 {
		return tracks
	}
	if err != nil {
		e.logger.Warn("yt-dlp extraction failed", zap.String("query", query), zap.Error(err))
	}

	if !IsYouTubeURL(query) || e.fallback == nil {
		return nil
	}

	tracks, err = e.fallback(ctx, query)
	if err != nil {
		e.logger.Error("youtube client extraction failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return tracks
}

func (e *Extractor) fromYTDLP(ctx context.Context, query string) ([]Track, error) {
	args := []string{
		"-j",
		"--no-warnings",
		"--ignore-errors",
		"--format", "bestaudio/best",
		"--default-search", "ytsearch",
		"--yes-playlist",
		query,
	}

	start := time.Now()
	out, stderr, runErr := e.run(ctx, e.ytdlpPath, args...)

	// A playlist with a broken entry exits non-zero but still prints the rest
	tracks, parseErr := ParseYTDLPOutput(out)
	e.logger.Debug("yt-dlp finished",
		zap.String("query", query),
		zap.Int("tracks", len(tracks)),
		zap.Duration("took", time.Since(start)))

	if len(tracks) > 0 {
		return tracks, nil
	}
	if runErr != nil {
		return nil, fmt.Errorf("%w: yt-dlp: %v: %s", ErrExtractionFailure, runErr, strings.TrimSpace(string(stderr)))
	}
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailure, parseErr)
	}
	return nil, ErrExtractionFailure
}

// ParseYTDLPOutput parses the one-JSON-object-per-line output of `yt-dlp -j`.
// Entries without a stream URL are skipped.
func ParseYTDLPOutput(out []byte) ([]Track, error) {
	var tracks []Track
	var errs []error

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry ytdlpEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			errs = append(errs, err)
			continue
		}
		if entry.URL == "" {
			continue
		}

		duration := 0
		if entry.Duration != nil {
			duration = int(*entry.Duration)
		}
		tracks = append(tracks, NewTrack(entry.Title, entry.URL, entry.WebpageURL, duration, entry.Thumbnail, entry.Uploader))
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	return tracks, errors.Join(errs...)
}

func (e *Extractor) fromYouTubeClient(ctx context.Context, input string) ([]Track, error) {
	if IsYouTubePlaylistURL(input) {
		playlist, err := e.client.GetPlaylistContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("get playlist: %w", err)
		}

		var tracks []Track
		for _, entry := range playlist.Videos {
			video, err := e.client.VideoFromPlaylistEntryContext(ctx, entry)
			if err != nil {
				e.logger.Warn("skipping playlist entry", zap.String("video_id", entry.ID), zap.Error(err))
				continue
			}
			track, err := e.trackFromVideo(ctx, video)
			if err != nil {
				e.logger.Warn("skipping playlist entry", zap.String("video_id", entry.ID), zap.Error(err))
				continue
			}
			tracks = append(tracks, track)
		}
		return tracks, nil
	}

	video, err := e.client.GetVideoContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	track, err := e.trackFromVideo(ctx, video)
	if err != nil {
		return nil, err
	}
	return []Track{track}, nil
}

func (e *Extractor) trackFromVideo(ctx context.Context, video *youtube.Video) (Track, error) {
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return Track{}, errors.New("no audio formats found for video")
	}

	streamURL, err := e.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return Track{}, fmt.Errorf("get stream URL: %w", err)
	}

	thumbnail := GetYouTubeThumbnailURL(video.ID)
	if n := len(video.Thumbnails); n > 0 {
		thumbnail = video.Thumbnails[n-1].URL
	}

	return NewTrack(video.Title, streamURL, YouTubeWatchURL(video.ID), int(video.Duration.Seconds()), thumbnail, video.Author), nil
}
