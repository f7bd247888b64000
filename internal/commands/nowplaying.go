package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"go.uber.org/zap"
)

// NowPlaying shows the song in the now-playing slot
func (c *Commands) NowPlaying(ctx context.Context, inv Invocation) {
	if !c.requireVoice(inv) {
		return
	}

	track, ok := c.store.NowPlaying(inv.GuildID)
	if !ok {
		c.reply(inv, "❌ No song is currently playing.")
		return
	}

	if _, err := c.messenger.ChannelMessageSendEmbed(inv.ChannelID, nowPlayingEmbed(track)); err != nil {
		c.logger.Error("failed to send now playing embed", zap.String("channel_id", inv.ChannelID), zap.Error(err))
	}
}

func nowPlayingEmbed(track common.Track) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       track.Title,
		URL:         track.WebpageURL,
		Description: fmt.Sprintf("🎤 **Artist:** %s\n⏱️ **Duration:** %s", track.Uploader, common.FormatDuration(track.Length())),
		Color:       common.ColorMusic,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: common.FooterText,
		},
	}

	thumbnail := track.Thumbnail
	if thumbnail == "" {
		if id := common.ExtractYouTubeVideoID(track.WebpageURL); id != "" {
			thumbnail = common.GetYouTubeThumbnailURL(id)
		}
	}
	if thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}
	return embed
}
