package presence

import (
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStatus struct {
	mu      sync.Mutex
	updates []discordgo.UpdateStatusData
	err     error
}

func (f *fakeStatus) UpdateStatusComplex(usd discordgo.UpdateStatusData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, usd)
	return nil
}

func (f *fakeStatus) lastName(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.updates)
	last := f.updates[len(f.updates)-1]
	require.Len(t, last.Activities, 1)
	assert.Equal(t, discordgo.ActivityTypeListening, last.Activities[0].Type)
	return last.Activities[0].Name
}

func TestPresenceManager_Default(t *testing.T) {
	status := &fakeStatus{}
	pm := NewPresenceManager(status, "?help", zap.NewNop())

	pm.UpdateDefaultPresence()

	assert.Equal(t, "?help", status.lastName(t))
	assert.Equal(t, "", pm.Current())
}

func TestPresenceManager_SetAndClear(t *testing.T) {
	status := &fakeStatus{}
	pm := NewPresenceManager(status, "?help", zap.NewNop())

	pm.SetPlaying("g1", "Song A")
	assert.Equal(t, "Song A", status.lastName(t))

	pm.SetPlaying("g2", "Song B")
	assert.Equal(t, "Song B", status.lastName(t))

	// Falls back to the other guild's track
	pm.ClearPlaying("g2")
	assert.Equal(t, "Song A", status.lastName(t))
	assert.Equal(t, "Song A", pm.Current())

	pm.ClearPlaying("g1")
	assert.Equal(t, "?help", status.lastName(t))
	assert.Equal(t, "", pm.Current())
}

func TestPresenceManager_ReplayMovesGuildToFront(t *testing.T) {
	status := &fakeStatus{}
	pm := NewPresenceManager(status, "?help", zap.NewNop())

	pm.SetPlaying("g1", "Song A")
	pm.SetPlaying("g2", "Song B")
	pm.SetPlaying("g1", "Song C")

	pm.ClearPlaying("g1")
	assert.Equal(t, "Song B", status.lastName(t))
}

func TestPresenceManager_ClearUnknownGuild(t *testing.T) {
	status := &fakeStatus{}
	pm := NewPresenceManager(status, "?help", zap.NewNop())

	pm.ClearPlaying("missing")
	assert.Empty(t, status.updates)
}

func TestPresenceManager_UpdateError(t *testing.T) {
	status := &fakeStatus{err: errors.New("gateway closed")}
	pm := NewPresenceManager(status, "?help", zap.NewNop())

	pm.SetPlaying("g1", "Song A")
	assert.Equal(t, "", pm.Current())
}
