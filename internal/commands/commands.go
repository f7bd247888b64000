// Package commands implements the prefix commands of the music bot.
package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/latoulicious/TarumaeDJ/internal/config"
	"github.com/latoulicious/TarumaeDJ/internal/player"
	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"go.uber.org/zap"
)

// Playback is the part of the player the commands drive. Play and PlayAll
// decide between starting and queueing atomically per guild.
type Playback interface {
	Play(ctx context.Context, req player.Request, track common.Track) (queued bool, err error)
	PlayAll(ctx context.Context, req player.Request, tracks []common.Track) (started bool, err error)
	Skip(guildID string) error
	Stop(guildID string) bool
}

// Searcher resolves search text or URLs into tracks. An empty result means
// nothing was found.
type Searcher interface {
	Search(ctx context.Context, query string) []common.Track
}

// Invocation is one command call as seen by a command handler
type Invocation struct {
	GuildID        string
	ChannelID      string
	AuthorID       string
	RoleNames      []string
	VoiceChannelID string // "" when the author is not in a voice channel
	Args           []string
}

// request returns the player request for the invocation
func (inv Invocation) request() player.Request {
	return player.Request{
		GuildID:        inv.GuildID,
		VoiceChannelID: inv.VoiceChannelID,
		TextChannelID:  inv.ChannelID,
	}
}

// Command is a registered prefix command
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	Run         func(ctx context.Context, inv Invocation)
}

// Commands holds everything the commands need and routes names to them
type Commands struct {
	cfg       *config.Config
	store     *common.Store
	playback  Playback
	searcher  Searcher
	messenger common.Messenger
	logger    *zap.Logger

	registry map[string]*Command
	ordered  []*Command
}

// New creates the command set and registers every command
func New(cfg *config.Config, store *common.Store, playback Playback, searcher Searcher, messenger common.Messenger, logger *zap.Logger) *Commands {
	c := &Commands{
		cfg:       cfg,
		store:     store,
		playback:  playback,
		searcher:  searcher,
		messenger: messenger,
		logger:    logger.Named("commands"),
		registry:  make(map[string]*Command),
	}

	c.register(&Command{Name: "play", Aliases: []string{"p"}, Usage: "<search text or URL>", Description: "Add a song to the queue. Search YouTube or use a URL.", Run: c.Play})
	c.register(&Command{Name: "stop", Aliases: []string{"s"}, Description: "Stop playback, clear the queue and disconnect.", Run: c.Stop})
	c.register(&Command{Name: "skip", Aliases: []string{"sk"}, Description: "Skip the song that is playing.", Run: c.Skip})
	c.register(&Command{Name: "nowplaying", Aliases: []string{"np"}, Description: "Show the song that is playing.", Run: c.NowPlaying})
	c.register(&Command{Name: "queue", Aliases: []string{"q"}, Description: "Show the music queue.", Run: c.Queue})
	c.register(&Command{Name: "clear", Aliases: []string{"clearqueue"}, Description: "Clear the queue but keep the current song playing.", Run: c.Clear})
	c.register(&Command{Name: "remove", Aliases: []string{"r"}, Usage: "<position>", Description: "Remove a song from the queue by its position.", Run: c.Remove})
	c.register(&Command{Name: "shuffle", Aliases: []string{"sh"}, Description: "Shuffle the queue.", Run: c.Shuffle})
	c.register(&Command{Name: "move", Aliases: []string{"m"}, Usage: "<from> [to]", Description: "Move a song to another position (DJ only, defaults to the top).", Run: c.Move})
	c.register(&Command{Name: "help", Aliases: []string{"h"}, Description: "Show this help message.", Run: c.Help})

	return c
}

func (c *Commands) register(cmd *Command) {
	c.ordered = append(c.ordered, cmd)
	c.registry[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		c.registry[alias] = cmd
	}
}

// Lookup finds a command by name or alias, case-insensitively
func (c *Commands) Lookup(name string) (*Command, bool) {
	cmd, ok := c.registry[strings.ToLower(name)]
	return cmd, ok
}

// Names returns every registered name and alias, sorted
func (c *Commands) Names() []string {
	names := make([]string, 0, len(c.registry))
	for name := range c.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named command. Unknown names are ignored and reported false.
func (c *Commands) Dispatch(ctx context.Context, name string, inv Invocation) bool {
	cmd, ok := c.Lookup(name)
	if !ok {
		return false
	}

	c.logger.Debug("running command",
		zap.String("command", cmd.Name),
		zap.String("guild_id", inv.GuildID),
		zap.String("user_id", inv.AuthorID),
		zap.Strings("args", inv.Args))
	cmd.Run(ctx, inv)
	return true
}

// reply sends a plain message to the invoking channel
func (c *Commands) reply(inv Invocation, content string) {
	if _, err := c.messenger.ChannelMessageSend(inv.ChannelID, content); err != nil {
		c.logger.Error("failed to send message",
			zap.String("channel_id", inv.ChannelID),
			zap.Error(err))
	}
}

// requireChannel enforces the music channel for queue commands
func (c *Commands) requireChannel(inv Invocation) bool {
	if common.ChannelAllowed(inv.ChannelID, c.cfg.AllowedChannelID) {
		return true
	}
	c.reply(inv, fmt.Sprintf("❌ Please use <#%s> for music commands.", c.cfg.AllowedChannelID))
	return false
}

// requireRole enforces the DJ role
func (c *Commands) requireRole(inv Invocation) bool {
	if common.RoleAllowed(inv.RoleNames, c.cfg.DJRoleName) {
		return true
	}
	c.reply(inv, "❌ You don't have the required DJ 🎧 role.")
	return false
}

// requireVoice enforces that the author sits in a voice channel
func (c *Commands) requireVoice(inv Invocation) bool {
	if inv.VoiceChannelID != "" {
		return true
	}
	c.reply(inv, "❌ Join a voice channel first.")
	return false
}
