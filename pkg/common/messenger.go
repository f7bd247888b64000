package common

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors
const (
	ColorSuccess = 0x00ff00
	ColorError   = 0xff0000
	ColorNeutral = 0x808080
	ColorMusic   = 0x9b59b6
)

// FooterText is shown on every embed the bot sends
const FooterText = "Tarumae DJ"

// Messenger is the part of *discordgo.Session used to talk back to a channel
type Messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SendEmbedMessage sends a simple titled embed
func SendEmbedMessage(m Messenger, channelID, title, description string, color int) error {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: FooterText,
		},
	}
	_, err := m.ChannelMessageSendEmbed(channelID, embed)
	return err
}
