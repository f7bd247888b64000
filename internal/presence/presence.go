package presence

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// StatusUpdater is the part of *discordgo.Session used to set the bot status
type StatusUpdater interface {
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

// PresenceManager manages the bot's presence. The status shows the most
// recently started track across all guilds, or the help hint when idle.
type PresenceManager struct {
	session  StatusUpdater
	helpHint string
	logger   *zap.Logger

	mu      sync.Mutex
	playing map[string]string
	order   []string
	current string
}

// NewPresenceManager creates a new presence manager
func NewPresenceManager(session StatusUpdater, helpHint string, logger *zap.Logger) *PresenceManager {
	return &PresenceManager{
		session:  session,
		helpHint: helpHint,
		logger:   logger.Named("presence"),
		playing:  make(map[string]string),
	}
}

// UpdateDefaultPresence shows the help hint
func (pm *PresenceManager) UpdateDefaultPresence() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.apply("")
}

// SetPlaying records that guildID started playing title
func (pm *PresenceManager) SetPlaying(guildID, title string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.playing[guildID] = title
	pm.order = append(removeGuild(pm.order, guildID), guildID)
	pm.apply(title)
}

// ClearPlaying records that guildID stopped playing
func (pm *PresenceManager) ClearPlaying(guildID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, ok := pm.playing[guildID]; !ok {
		return
	}
	delete(pm.playing, guildID)
	pm.order = removeGuild(pm.order, guildID)

	title := ""
	if n := len(pm.order); n > 0 {
		title = pm.playing[pm.order[n-1]]
	}
	pm.apply(title)
}

// Current returns the title shown in the status, "" when idle
func (pm *PresenceManager) Current() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.current
}

// apply must be called with pm.mu held
func (pm *PresenceManager) apply(title string) {
	activity := &discordgo.Activity{
		Name: pm.helpHint,
		Type: discordgo.ActivityTypeListening,
	}
	if title != "" {
		activity.Name = title
	}

	err := pm.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status:     "online",
		Activities: []*discordgo.Activity{activity},
	})
	if err != nil {
		pm.logger.Warn("failed to update presence", zap.Error(err))
		return
	}
	pm.current = title
}

func removeGuild(order []string, guildID string) []string {
	out := order[:0]
	for _, id := range order {
		if id != guildID {
			out = append(out, id)
		}
	}
	return out
}
