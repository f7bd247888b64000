package handlers

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// PlayerStopper stops a guild's playback
type PlayerStopper interface {
	Stop(guildID string) bool
}

// GuildForgetter drops a guild's queue state
type GuildForgetter interface {
	Forget(guildID string)
}

// DefaultPresence restores the idle status
type DefaultPresence interface {
	UpdateDefaultPresence()
}

// GuildHandler reacts to the bot joining the gateway and leaving guilds
type GuildHandler struct {
	player   PlayerStopper
	store    GuildForgetter
	presence DefaultPresence
	logger   *zap.Logger
}

// NewGuildHandler creates a guild lifecycle handler
func NewGuildHandler(player PlayerStopper, store GuildForgetter, presence DefaultPresence, logger *zap.Logger) *GuildHandler {
	return &GuildHandler{
		player:   player,
		store:    store,
		presence: presence,
		logger:   logger.Named("guilds"),
	}
}

// Ready logs the bot identity and sets the idle status
func (h *GuildHandler) Ready(s *discordgo.Session, r *discordgo.Ready) {
	h.logger.Info("logged in",
		zap.String("user", r.User.String()),
		zap.String("user_id", r.User.ID),
		zap.Int("guilds", len(r.Guilds)))
	h.presence.UpdateDefaultPresence()
}

// GuildDelete evicts a guild the bot was removed from. Outages, reported as
// unavailable guilds, keep their state.
func (h *GuildHandler) GuildDelete(s *discordgo.Session, e *discordgo.GuildDelete) {
	if e.Guild == nil || e.Unavailable {
		return
	}
	h.forget(e.ID)
}

func (h *GuildHandler) forget(guildID string) {
	h.player.Stop(guildID)
	h.store.Forget(guildID)
	h.logger.Info("left guild, state dropped", zap.String("guild_id", guildID))
}
