package player

import (
	"fmt"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"go.uber.org/zap"
)

// Presence shows what the bot is playing in its status
type Presence interface {
	SetPlaying(guildID, title string)
	ClearPlaying(guildID string)
}

// ChannelNotifier announces playback changes in the text channel that
// started playback and mirrors them in the bot's presence
type ChannelNotifier struct {
	messenger common.Messenger
	presence  Presence
	logger    *zap.Logger
}

// NewChannelNotifier creates a notifier. presence may be nil.
func NewChannelNotifier(messenger common.Messenger, presence Presence, logger *zap.Logger) *ChannelNotifier {
	return &ChannelNotifier{
		messenger: messenger,
		presence:  presence,
		logger:    logger.Named("notifier"),
	}
}

func (n *ChannelNotifier) NowPlaying(guildID, textChannelID string, track common.Track) {
	if n.presence != nil {
		n.presence.SetPlaying(guildID, track.Title)
	}
	n.send(textChannelID, fmt.Sprintf("🎶 Now playing: **%s** by *%s*", track.Title, track.Uploader))
}

func (n *ChannelNotifier) StreamFailed(guildID, textChannelID string, track common.Track, err error) {
	n.logger.Warn("stream failed", zap.String("guild_id", guildID), zap.String("title", track.Title), zap.Error(err))
	n.send(textChannelID, "❌ Failed to stream the song. It may be unavailable.")
}

func (n *ChannelNotifier) Idle(guildID string) {
	if n.presence != nil {
		n.presence.ClearPlaying(guildID)
	}
}

func (n *ChannelNotifier) send(channelID, content string) {
	if channelID == "" {
		return
	}
	if _, err := n.messenger.ChannelMessageSend(channelID, content); err != nil {
		n.logger.Error("failed to send message", zap.String("channel_id", channelID), zap.Error(err))
	}
}
