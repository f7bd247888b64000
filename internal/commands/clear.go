package commands

import (
	"context"

	"go.uber.org/zap"
)

// Clear empties the queue; the current song keeps playing
func (c *Commands) Clear(ctx context.Context, inv Invocation) {
	if !c.requireChannel(inv) {
		return
	}

	c.store.Clear(inv.GuildID)
	c.logger.Info("queue cleared", zap.String("guild_id", inv.GuildID))
	c.reply(inv, "🧹 Cleared the queue. Now playing will continue.")
}
