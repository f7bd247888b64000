package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const voiceJoinAttempts = 3

// Voice connects the bot to voice channels
type Voice interface {
	Connect(ctx context.Context, guildID, channelID string) (VoiceSession, error)
}

// VoiceSession is one live voice connection able to stream tracks
type VoiceSession interface {
	ChannelID() string
	// Play starts streaming track. onFinished fires once when it ends for any reason.
	Play(track Track, onFinished func(error)) error
	Stop()
	Disconnect()
}

// VoiceJoiner is the part of *discordgo.Session used to join voice channels
type VoiceJoiner interface {
	ChannelVoiceJoin(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

// DiscordVoice implements Voice on top of a discordgo session
type DiscordVoice struct {
	joiner     VoiceJoiner
	ffmpegPath string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewDiscordVoice creates a Voice backed by the discordgo voice gateway
func NewDiscordVoice(joiner VoiceJoiner, ffmpegPath string, timeout time.Duration, logger *zap.Logger) *DiscordVoice {
	return &DiscordVoice{
		joiner:     joiner,
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
		logger:     logger.Named("voice"),
	}
}

// Connect joins the voice channel and waits for the connection to be ready
func (d *DiscordVoice) Connect(ctx context.Context, guildID, channelID string) (VoiceSession, error) {
	logger := d.logger.With(zap.String("guild_id", guildID), zap.String("channel_id", channelID))
	logger.Info("joining voice channel")

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var vc *discordgo.VoiceConnection
	var err error
	for i := 0; i < voiceJoinAttempts; i++ {
		vc, err = d.joiner.ChannelVoiceJoin(guildID, channelID, false, true)
		if err == nil {
			break
		}

		logger.Warn("voice join attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if i < voiceJoinAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrConnectFailure, ctx.Err())
			case <-time.After(time.Duration(i+1) * time.Second):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed after %d attempts: %v", ErrConnectFailure, voiceJoinAttempts, err)
	}

	if err := waitForVoiceReady(ctx, vc); err != nil {
		vc.Disconnect()
		return nil, fmt.Errorf("%w: %v", ErrConnectFailure, err)
	}

	logger.Info("voice connection ready")
	return &VoiceLink{
		vc:         vc,
		channelID:  channelID,
		ffmpegPath: d.ffmpegPath,
		logger:     logger,
	}, nil
}

func waitForVoiceReady(ctx context.Context, vc *discordgo.VoiceConnection) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		vc.RLock()
		ready := vc.Ready
		vc.RUnlock()
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.New("voice connection timed out")
		case <-ticker.C:
		}
	}
}

// VoiceLink is a ready voice connection with at most one active pipeline
type VoiceLink struct {
	vc         *discordgo.VoiceConnection
	channelID  string
	ffmpegPath string
	logger     *zap.Logger

	mu       sync.Mutex
	pipeline *AudioPipeline
}

// ChannelID returns the voice channel the link is connected to
func (l *VoiceLink) ChannelID() string {
	return l.channelID
}

// Play streams track on the connection, replacing any active pipeline
func (l *VoiceLink) Play(track Track, onFinished func(error)) error {
	l.mu.Lock()
	if l.pipeline != nil {
		l.pipeline.Stop()
	}
	pipeline := NewAudioPipeline(l.vc, l.ffmpegPath, l.logger)
	l.pipeline = pipeline
	l.mu.Unlock()

	l.logger.Info("streaming track",
		zap.String("title", track.Title),
		zap.String("pipeline_id", pipeline.ID()))

	if err := pipeline.PlayStream(track.StreamURL, onFinished); err != nil {
		return fmt.Errorf("%w: %v", ErrStreamFailure, err)
	}
	return nil
}

// Stop stops the active pipeline, if any
func (l *VoiceLink) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pipeline != nil {
		l.pipeline.Stop()
		l.pipeline = nil
	}
}

// Disconnect stops playback and leaves the voice channel
func (l *VoiceLink) Disconnect() {
	l.Stop()
	if err := l.vc.Disconnect(); err != nil {
		l.logger.Warn("voice disconnect failed", zap.Error(err))
		return
	}
	l.logger.Info("disconnected from voice channel")
}

// UserVoiceChannel returns the voice channel the user sits in, or "" if none
func UserVoiceChannel(state *discordgo.State, guildID, userID string) string {
	if state == nil {
		return ""
	}
	vs, err := state.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}
