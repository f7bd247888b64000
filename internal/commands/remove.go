package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
)

const invalidPositionMessage = "❌ Please provide a **valid number** for the queue position."

// Remove drops the song at a 1-based queue position
func (c *Commands) Remove(ctx context.Context, inv Invocation) {
	if !c.requireChannel(inv) {
		return
	}

	index, ok := parsePosition(inv.Args, 0)
	if !ok {
		c.reply(inv, invalidPositionMessage)
		return
	}

	removed, err := c.store.RemoveAt(inv.GuildID, index)
	var rangeErr *common.RangeError
	switch {
	case errors.Is(err, common.ErrEmptyQueue):
		c.reply(inv, "📭 The queue is currently empty.")
	case errors.As(err, &rangeErr):
		c.reply(inv, fmt.Sprintf("❌ Invalid index. Please use a number between 1 and %d.", rangeErr.Max))
	case err != nil:
		c.reply(inv, "❌ "+err.Error())
	default:
		c.reply(inv, fmt.Sprintf("🗑️ Removed **%s** from the queue.", removed.Title))
	}
}

// parsePosition reads args[i] as an integer. A missing argument is invalid.
func parsePosition(args []string, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, false
	}
	return n, true
}
