package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
)

// Move reorders the queue: the song at <from> is reinserted at [to], which
// defaults to the top. Restricted to the DJ role.
func (c *Commands) Move(ctx context.Context, inv Invocation) {
	if !c.requireChannel(inv) || !c.requireRole(inv) {
		return
	}

	from, ok := parsePosition(inv.Args, 0)
	if !ok {
		c.reply(inv, invalidPositionMessage)
		return
	}
	to := 1
	if len(inv.Args) > 1 {
		if to, ok = parsePosition(inv.Args, 1); !ok {
			c.reply(inv, invalidPositionMessage)
			return
		}
	}

	track, err := c.store.Move(inv.GuildID, from, to)
	var rangeErr *common.RangeError
	switch {
	case errors.Is(err, common.ErrEmptyQueue):
		c.reply(inv, "📭 The queue is empty.")
	case errors.As(err, &rangeErr):
		c.reply(inv, fmt.Sprintf("❌ Invalid %s-position. Choose between 1 and %d.", rangeErr.Field, rangeErr.Max))
	case errors.Is(err, common.ErrNoOp):
		c.reply(inv, "❌ The song is already at that position.")
	case err != nil:
		c.reply(inv, "❌ "+err.Error())
	default:
		c.reply(inv, fmt.Sprintf("↕️ Moved **%s** from position %d to %d.", track.Title, from, to))
	}
}
