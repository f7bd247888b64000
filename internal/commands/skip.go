package commands

import "context"

// Skip ends the current song; the next queued song starts on its own
func (c *Commands) Skip(ctx context.Context, inv Invocation) {
	if !c.requireVoice(inv) {
		return
	}

	if err := c.playback.Skip(inv.GuildID); err != nil {
		c.reply(inv, "❌ Nothing is playing.")
		return
	}
	c.reply(inv, "⏭️ Skipping to next song...")
}
