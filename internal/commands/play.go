package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"go.uber.org/zap"
)

// Play resolves the search text or URL and queues the result. A single song
// plays right away when nothing is playing; a playlist is appended and starts
// from its first song when idle.
func (c *Commands) Play(ctx context.Context, inv Invocation) {
	if !c.requireVoice(inv) {
		return
	}
	if !common.ChannelAllowed(inv.ChannelID, c.cfg.AllowedChannelID) {
		c.reply(inv, fmt.Sprintf("❌ Use <#%s> for music commands.", c.cfg.AllowedChannelID))
		return
	}

	query := strings.TrimSpace(strings.Join(inv.Args, " "))
	if query == "" {
		c.reply(inv, fmt.Sprintf("❌ Usage: `%splay <search text or URL>`", c.cfg.CommandPrefix))
		return
	}

	tracks := c.searcher.Search(ctx, query)
	if len(tracks) == 0 {
		c.logger.Info("no songs found", zap.String("guild_id", inv.GuildID), zap.String("query", query))
		c.reply(inv, "❌ Could not find any songs.")
		return
	}

	if len(tracks) > 1 {
		_, err := c.playback.PlayAll(ctx, inv.request(), tracks)
		c.reply(inv, fmt.Sprintf("📃 Added **%d songs** to the queue.", len(tracks)))
		if err != nil {
			c.replyPlaybackError(inv, err)
		}
		return
	}

	track := tracks[0]
	queued, err := c.playback.Play(ctx, inv.request(), track)
	if err != nil {
		c.replyPlaybackError(inv, err)
		return
	}
	if queued {
		c.reply(inv, fmt.Sprintf("🎵 Added to queue: **%s** by *%s*", track.Title, track.Uploader))
	}
}

func (c *Commands) replyPlaybackError(inv Invocation, err error) {
	switch {
	case errors.Is(err, common.ErrConnectFailure):
		c.reply(inv, "❌ Could not connect to the voice channel.")
	case errors.Is(err, common.ErrStreamFailure):
		c.reply(inv, "❌ Failed to stream the song. It may be unavailable.")
	default:
		c.logger.Error("playback failed", zap.String("guild_id", inv.GuildID), zap.Error(err))
		c.reply(inv, "❌ Failed to start audio playback.")
	}
}
