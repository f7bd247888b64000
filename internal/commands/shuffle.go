package commands

import (
	"context"
	"errors"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"go.uber.org/zap"
)

// Shuffle randomizes the queue order
func (c *Commands) Shuffle(ctx context.Context, inv Invocation) {
	if !c.requireChannel(inv) {
		return
	}

	if err := c.store.Shuffle(inv.GuildID); err != nil {
		if errors.Is(err, common.ErrEmptyQueue) {
			c.reply(inv, "📭 There's nothing in the queue to shuffle.")
			return
		}
		c.logger.Error("shuffle failed", zap.String("guild_id", inv.GuildID), zap.Error(err))
		return
	}

	c.reply(inv, "🔀 Queue shuffled!")
}
