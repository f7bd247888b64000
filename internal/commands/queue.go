package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"go.uber.org/zap"
)

const (
	queuePageSize   = 25
	embedFieldLimit = 1024
)

// Queue shows the now-playing track and the upcoming queue
func (c *Commands) Queue(ctx context.Context, inv Invocation) {
	if !c.requireChannel(inv) {
		return
	}

	queue := c.store.List(inv.GuildID)
	current, playing := c.store.NowPlaying(inv.GuildID)
	if len(queue) == 0 && !playing {
		c.reply(inv, "📭 The queue is empty.")
		return
	}

	embed := queueEmbed(queue, current, playing)
	if _, err := c.messenger.ChannelMessageSendEmbed(inv.ChannelID, embed); err != nil {
		c.logger.Error("failed to send queue embed", zap.String("channel_id", inv.ChannelID), zap.Error(err))
	}
}

func queueEmbed(queue []common.Track, current common.Track, playing bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "🎶 Music Queue",
		Color:     common.ColorMusic,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if playing {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Now Playing",
			Value:  fmt.Sprintf("**%s**", current.Title),
			Inline: false,
		})
	}

	if len(queue) > 0 {
		shown := queue[:min(len(queue), queuePageSize)]
		lines := make([]string, len(shown))
		for i, track := range shown {
			lines[i] = fmt.Sprintf("`%d.` %s", i+1, track.Title)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Up Next",
			Value:  truncate(strings.Join(lines, "\n"), embedFieldLimit),
			Inline: false,
		})

		if len(queue) > queuePageSize {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("...and %d more songs in the queue.", len(queue)-queuePageSize),
			}
		}
	}

	return embed
}

// truncate cuts s to at most limit characters
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
