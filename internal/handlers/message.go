package handlers

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/TarumaeDJ/internal/commands"
	"github.com/latoulicious/TarumaeDJ/internal/config"
	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"go.uber.org/zap"
)

// Dispatcher runs prefix commands
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, inv commands.Invocation) bool
}

// DMResponder is the part of *discordgo.Session used to answer direct messages
type DMResponder interface {
	common.Messenger
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// MessageHandler turns guild messages into commands and answers DMs
type MessageHandler struct {
	cfg      *config.Config
	commands Dispatcher
	logger   *zap.Logger
}

// NewMessageHandler creates a message handler
func NewMessageHandler(cfg *config.Config, commands Dispatcher, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		cfg:      cfg,
		commands: commands,
		logger:   logger.Named("messages"),
	}
}

// Handle is registered with discordgo for MessageCreate events
func (h *MessageHandler) Handle(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || s.State.User == nil {
		return
	}
	// Ignore all messages created by the bot itself
	if m.Author.ID == s.State.User.ID {
		return
	}

	if m.GuildID == "" {
		h.replyDM(s, m.Message)
		return
	}

	name, args, ok := ParseCommand(m.Content, h.cfg.CommandPrefix, h.mentionPrefixes(s.State.User.ID))
	if !ok {
		return
	}

	inv := commands.Invocation{
		GuildID:        m.GuildID,
		ChannelID:      m.ChannelID,
		AuthorID:       m.Author.ID,
		RoleNames:      memberRoleNames(s.State, m.GuildID, m.Member),
		VoiceChannelID: common.UserVoiceChannel(s.State, m.GuildID, m.Author.ID),
		Args:           args,
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ExtractTimeout+h.cfg.VoiceTimeout)
	defer cancel()

	if !h.commands.Dispatch(ctx, name, inv) {
		h.logger.Debug("ignoring unknown command", zap.String("command", name), zap.String("guild_id", m.GuildID))
	}
}

// replyDM waves at the sender and answers with the configured text
func (h *MessageHandler) replyDM(s DMResponder, m *discordgo.Message) {
	if h.cfg.DMResponse == "" {
		h.logger.Warn("DM_RESPONSE is empty, no response sent", zap.String("user_id", m.Author.ID))
		return
	}

	if err := s.MessageReactionAdd(m.ChannelID, m.ID, "👋"); err != nil {
		h.logger.Warn("failed to react to DM", zap.Error(err))
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, h.cfg.DMResponse); err != nil {
		h.logger.Error("failed to answer DM", zap.String("user_id", m.Author.ID), zap.Error(err))
	}
}

func (h *MessageHandler) mentionPrefixes(botID string) []string {
	if !h.cfg.MentionAsPrefix {
		return nil
	}
	return []string{"<@" + botID + ">", "<@!" + botID + ">"}
}

// ParseCommand splits a message into a command name and its arguments. The
// message must start with prefix or one of mentionPrefixes.
func ParseCommand(content, prefix string, mentionPrefixes []string) (string, []string, bool) {
	content = strings.TrimSpace(content)

	rest, found := "", false
	for _, mention := range mentionPrefixes {
		if after, ok := strings.CutPrefix(content, mention); ok {
			rest, found = after, true
			break
		}
	}
	if !found && prefix != "" {
		rest, found = strings.CutPrefix(content, prefix)
	}
	if !found {
		return "", nil, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// memberRoleNames resolves the member's role IDs to names through the state cache
func memberRoleNames(state *discordgo.State, guildID string, member *discordgo.Member) []string {
	if state == nil || member == nil {
		return nil
	}

	names := make([]string, 0, len(member.Roles))
	for _, roleID := range member.Roles {
		role, err := state.Role(guildID, roleID)
		if err != nil {
			continue
		}
		names = append(names, role.Name)
	}
	return names
}
