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

// Help lists every command with the configured prefix
func (c *Commands) Help(ctx context.Context, inv Invocation) {
	if _, err := c.messenger.ChannelMessageSendEmbed(inv.ChannelID, c.helpEmbed()); err != nil {
		c.logger.Error("failed to send help embed", zap.String("channel_id", inv.ChannelID), zap.Error(err))
	}
}

func (c *Commands) helpEmbed() *discordgo.MessageEmbed {
	prefix := c.cfg.CommandPrefix

	lines := make([]string, 0, len(c.ordered))
	for _, cmd := range c.ordered {
		names := make([]string, 0, len(cmd.Aliases)+1)
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			usage := prefix + name
			if cmd.Usage != "" {
				usage += " " + cmd.Usage
			}
			names = append(names, fmt.Sprintf("`%s`", usage))
		}
		lines = append(lines, fmt.Sprintf("• %s - %s", strings.Join(names, " / "), cmd.Description))
	}

	tips := []string{
		"• Join a voice channel **before** using music commands",
	}
	if common.ChannelConfigured(c.cfg.AllowedChannelID) {
		tips = append(tips, fmt.Sprintf("• Queue commands only work in <#%s>", c.cfg.AllowedChannelID))
	}

	return &discordgo.MessageEmbed{
		Title:       "Tarumae DJ",
		Description: "Here are all the available commands for the bot:",
		Color:       common.ColorSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: common.FooterText,
		},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Music Commands",
				Value:  truncate(strings.Join(lines, "\n"), embedFieldLimit),
				Inline: false,
			},
			{
				Name:   "💡 Tips",
				Value:  strings.Join(tips, "\n"),
				Inline: false,
			},
		},
	}
}
