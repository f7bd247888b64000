package common

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

// Store owns the per-guild queues and now-playing slots.
// A single mutex guards every guild; expected guild counts are small.
type Store struct {
	mu         sync.Mutex
	queues     map[string][]Track
	nowPlaying map[string]*Track
	lastActive map[string]time.Time

	rng *rand.Rand
	now func() time.Time
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithRand sets the random source used by Shuffle
func WithRand(r *rand.Rand) StoreOption {
	return func(s *Store) {
		s.rng = r
	}
}

// WithClock sets the clock used for activity tracking
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		queues:     make(map[string][]Track),
		nowPlaying: make(map[string]*Track),
		lastActive: make(map[string]time.Time),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// touch must be called with s.mu held
func (s *Store) touch(guildID string) {
	s.lastActive[guildID] = s.now()
}

// Enqueue appends tracks to the guild's queue in order
func (s *Store) Enqueue(guildID string, tracks ...Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queues[guildID] = append(s.queues[guildID], tracks...)
	s.touch(guildID)
}

// DequeueNext removes and returns the head of the queue
func (s *Store) DequeueNext(guildID string) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dequeueLocked(guildID)
}

func (s *Store) dequeueLocked(guildID string) (Track, bool) {
	queue := s.queues[guildID]
	if len(queue) == 0 {
		return Track{}, false
	}

	track := queue[0]
	s.queues[guildID] = slices.Delete(queue, 0, 1)
	s.touch(guildID)
	return track, true
}

// List returns a snapshot of the guild's queue
func (s *Store) List(guildID string) []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queues[guildID])
}

// Len returns the number of queued tracks
func (s *Store) Len(guildID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[guildID])
}

// Has reports whether the guild has a queue entry, even an empty one
func (s *Store) Has(guildID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.queues[guildID]
	return ok
}

// RemoveAt removes the track at the 1-based index
func (s *Store) RemoveAt(guildID string, index int) (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[guildID]
	if len(queue) == 0 {
		return Track{}, ErrEmptyQueue
	}
	if index < 1 || index > len(queue) {
		return Track{}, &RangeError{Field: "index", Index: index, Max: len(queue)}
	}

	removed := queue[index-1]
	s.queues[guildID] = slices.Delete(queue, index-1, index)
	s.touch(guildID)
	return removed, nil
}

// Move takes the track at from and reinserts it at to (both 1-based).
// Tracks between the two positions shift by one.
func (s *Store) Move(guildID string, from, to int) (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[guildID]
	if len(queue) == 0 {
		return Track{}, ErrEmptyQueue
	}
	if from < 1 || from > len(queue) {
		return Track{}, &RangeError{Field: "from", Index: from, Max: len(queue)}
	}
	if to < 1 || to > len(queue) {
		return Track{}, &RangeError{Field: "to", Index: to, Max: len(queue)}
	}
	if from == to {
		return Track{}, ErrNoOp
	}

	track := queue[from-1]
	queue = slices.Delete(queue, from-1, from)
	s.queues[guildID] = slices.Insert(queue, to-1, track)
	s.touch(guildID)
	return track, nil
}

// Shuffle randomly permutes the guild's queue
func (s *Store) Shuffle(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[guildID]
	if len(queue) == 0 {
		return ErrEmptyQueue
	}

	swap := func(i, j int) { queue[i], queue[j] = queue[j], queue[i] }
	if s.rng != nil {
		s.rng.Shuffle(len(queue), swap)
	} else {
		rand.Shuffle(len(queue), swap)
	}
	s.touch(guildID)
	return nil
}

// Clear empties the guild's queue without touching now-playing
func (s *Store) Clear(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queues[guildID] = []Track{}
	s.touch(guildID)
}

// Reset empties the queue and the now-playing slot
func (s *Store) Reset(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queues[guildID] = []Track{}
	s.nowPlaying[guildID] = nil
	s.touch(guildID)
}

// NowPlaying returns the track currently playing in the guild
func (s *Store) NowPlaying(guildID string) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.nowPlaying[guildID]
	if current == nil {
		return Track{}, false
	}
	return *current, true
}

// Forget drops every entry held for the guild
func (s *Store) Forget(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.queues, guildID)
	delete(s.nowPlaying, guildID)
	delete(s.lastActive, guildID)
}

// ForgetIdle drops guilds with nothing queued, nothing playing and no
// activity since cutoff. It returns the forgotten guild IDs.
func (s *Store) ForgetIdle(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var forgotten []string
	for guildID, last := range s.lastActive {
		if len(s.queues[guildID]) > 0 || s.nowPlaying[guildID] != nil {
			continue
		}
		if last.After(cutoff) {
			continue
		}
		delete(s.queues, guildID)
		delete(s.nowPlaying, guildID)
		delete(s.lastActive, guildID)
		forgotten = append(forgotten, guildID)
	}
	slices.Sort(forgotten)
	return forgotten
}

// Guilds returns the number of guilds with entries
func (s *Store) Guilds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastActive)
}
