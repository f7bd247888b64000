package player

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type sentMessage struct {
	channelID string
	content   string
}

type fakeMessenger struct {
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: content})
	return &discordgo.Message{}, nil
}

func (f *fakeMessenger) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

type fakePresence struct {
	playing map[string]string
}

func (f *fakePresence) SetPlaying(guildID, title string) { f.playing[guildID] = title }
func (f *fakePresence) ClearPlaying(guildID string)      { delete(f.playing, guildID) }

func TestChannelNotifier(t *testing.T) {
	messenger := &fakeMessenger{}
	presence := &fakePresence{playing: map[string]string{}}
	n := NewChannelNotifier(messenger, presence, zap.NewNop())
	song := common.NewTrack("Song", "https://stream", "", 10, "", "Band")

	n.NowPlaying("g1", "text", song)
	assert.Equal(t, []sentMessage{{channelID: "text", content: "🎶 Now playing: **Song** by *Band*"}}, messenger.sent)
	assert.Equal(t, "Song", presence.playing["g1"])

	n.StreamFailed("g1", "text", song, errors.New("403"))
	assert.Equal(t, "❌ Failed to stream the song. It may be unavailable.", messenger.sent[1].content)

	n.Idle("g1")
	assert.Empty(t, presence.playing)
}

func TestChannelNotifier_NoChannelOrPresence(t *testing.T) {
	messenger := &fakeMessenger{}
	n := NewChannelNotifier(messenger, nil, zap.NewNop())

	n.NowPlaying("g1", "", common.NewTrack("Song", "u", "", 0, "", ""))
	n.Idle("g1")
	assert.Empty(t, messenger.sent)
}
