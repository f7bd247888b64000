package commands

import "context"

// Stop ends playback, clears the queue and leaves the voice channel
func (c *Commands) Stop(ctx context.Context, inv Invocation) {
	if !c.requireVoice(inv) {
		return
	}

	if !c.playback.Stop(inv.GuildID) {
		c.reply(inv, "❌ Nothing is playing.")
		return
	}
	c.reply(inv, "⏹️ Stopped playing and cleared the queue.")
}
