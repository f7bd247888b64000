package common

// Action tells the playback orchestrator what to do next
type Action int

const (
	ActionDisconnect Action = iota
	ActionPlay
)

func (a Action) String() string {
	switch a {
	case ActionPlay:
		return "play"
	case ActionDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Directive is the store's answer to a finished track
type Directive struct {
	Action Action
	Track  Track
}

// OnPlaybackFinished advances the guild after the current track ended,
// whether it completed, failed or was skipped. The next track becomes
// now-playing; an exhausted queue clears the slot and asks for a disconnect.
func (s *Store) OnPlaybackFinished(guildID string) Directive {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.dequeueLocked(guildID)
	if !ok {
		s.nowPlaying[guildID] = nil
		s.touch(guildID)
		return Directive{Action: ActionDisconnect}
	}

	s.nowPlaying[guildID] = &track
	return Directive{Action: ActionPlay, Track: track}
}

// StartPlaying puts a track straight into the now-playing slot,
// bypassing the queue
func (s *Store) StartPlaying(guildID string, track Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nowPlaying[guildID] = &track
	s.touch(guildID)
}

// ClearNowPlaying empties the now-playing slot
func (s *Store) ClearNowPlaying(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nowPlaying[guildID] = nil
	s.touch(guildID)
}
