package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testGuild = "g1"

type fakeSession struct {
	mu           sync.Mutex
	channelID    string
	fail         map[string]bool
	played       []string
	onFinished   func(error)
	stopped      int
	disconnected int
}

func (s *fakeSession) ChannelID() string { return s.channelID }

func (s *fakeSession) Play(track common.Track, onFinished func(error)) error {
	if s.fail[track.Title] {
		return fmt.Errorf("%w: ffmpeg refused %s", common.ErrStreamFailure, track.Title)
	}

	s.mu.Lock()
	prev := s.onFinished
	s.onFinished = onFinished
	s.played = append(s.played, track.Title)
	s.mu.Unlock()

	if prev != nil {
		prev(nil)
	}
	return nil
}

func (s *fakeSession) Stop() {
	s.mu.Lock()
	cb := s.onFinished
	s.onFinished = nil
	s.stopped++
	s.mu.Unlock()

	if cb != nil {
		cb(nil)
	}
}

func (s *fakeSession) Disconnect() {
	s.mu.Lock()
	s.disconnected++
	s.mu.Unlock()
	s.Stop()
}

// finish ends the current stream as if it ran out
func (s *fakeSession) finish(err error) {
	s.mu.Lock()
	cb := s.onFinished
	s.onFinished = nil
	s.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

func (s *fakeSession) playedTitles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

type fakeVoice struct {
	mu         sync.Mutex
	connectErr error
	fail       map[string]bool
	sessions   []*fakeSession
}

func (v *fakeVoice) Connect(ctx context.Context, guildID, channelID string) (common.VoiceSession, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.connectErr != nil {
		return nil, v.connectErr
	}
	sess := &fakeSession{channelID: channelID, fail: v.fail}
	v.sessions = append(v.sessions, sess)
	return sess, nil
}

func (v *fakeVoice) last(t *testing.T) *fakeSession {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	require.NotEmpty(t, v.sessions)
	return v.sessions[len(v.sessions)-1]
}

type fakeNotifier struct {
	mu         sync.Mutex
	nowPlaying []string
	failed     []string
	idle       int
}

func (n *fakeNotifier) NowPlaying(guildID, textChannelID string, track common.Track) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nowPlaying = append(n.nowPlaying, track.Title)
}

func (n *fakeNotifier) StreamFailed(guildID, textChannelID string, track common.Track, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, track.Title)
}

func (n *fakeNotifier) Idle(guildID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.idle++
}

func newTestPlayer() (*Player, *common.Store, *fakeVoice, *fakeNotifier) {
	store := common.NewStore()
	voice := &fakeVoice{}
	notifier := &fakeNotifier{}
	return New(store, voice, notifier, zap.NewNop()), store, voice, notifier
}

func track(title string) common.Track {
	return common.NewTrack(title, "https://stream/"+title, "", 30, "", "")
}

func request(voiceChannel string) Request {
	return Request{GuildID: testGuild, VoiceChannelID: voiceChannel, TextChannelID: "text"}
}

func TestPlayer_StartAndAdvance(t *testing.T) {
	p, store, voice, notifier := newTestPlayer()

	require.NoError(t, p.Start(context.Background(), request("v1"), track("A")))
	assert.True(t, p.IsPlaying(testGuild))
	current, ok := store.NowPlaying(testGuild)
	require.True(t, ok)
	assert.Equal(t, "A", current.Title)

	store.Enqueue(testGuild, track("B"))
	sess := voice.last(t)

	sess.finish(nil)
	current, _ = store.NowPlaying(testGuild)
	assert.Equal(t, "B", current.Title)
	assert.Empty(t, store.List(testGuild))

	sess.finish(errors.New("stream dropped"))
	assert.False(t, p.IsPlaying(testGuild))
	_, ok = store.NowPlaying(testGuild)
	assert.False(t, ok)

	assert.Equal(t, []string{"A", "B"}, sess.playedTitles())
	assert.Equal(t, []string{"A", "B"}, notifier.nowPlaying)
	assert.Equal(t, 1, sess.disconnected)
	assert.Equal(t, 1, notifier.idle)
	assert.Len(t, voice.sessions, 1)
}

func TestPlayer_StartQueue(t *testing.T) {
	p, store, voice, _ := newTestPlayer()
	store.Enqueue(testGuild, track("A"), track("B"))

	require.NoError(t, p.StartQueue(context.Background(), request("v1")))

	assert.Equal(t, []string{"A"}, voice.last(t).playedTitles())
	assert.Equal(t, []string{"B"}, titlesOf(store.List(testGuild)))
}

func TestPlayer_StartQueueEmptyLeaves(t *testing.T) {
	p, _, voice, notifier := newTestPlayer()

	require.NoError(t, p.StartQueue(context.Background(), request("v1")))

	assert.Equal(t, 1, voice.last(t).disconnected)
	assert.Equal(t, 1, notifier.idle)
	assert.False(t, p.IsPlaying(testGuild))
}

func TestPlayer_Skip(t *testing.T) {
	p, store, voice, notifier := newTestPlayer()

	assert.ErrorIs(t, p.Skip(testGuild), ErrNotPlaying)

	require.NoError(t, p.Start(context.Background(), request("v1"), track("A")))
	store.Enqueue(testGuild, track("B"))

	require.NoError(t, p.Skip(testGuild))
	current, ok := store.NowPlaying(testGuild)
	require.True(t, ok)
	assert.Equal(t, "B", current.Title)
	assert.Equal(t, []string{"A", "B"}, notifier.nowPlaying)

	require.NoError(t, p.Skip(testGuild))
	assert.False(t, p.IsPlaying(testGuild))
	assert.Equal(t, 1, voice.last(t).disconnected)
	assert.ErrorIs(t, p.Skip(testGuild), ErrNotPlaying)
}

func TestPlayer_Stop(t *testing.T) {
	p, store, voice, notifier := newTestPlayer()

	assert.False(t, p.Stop(testGuild))

	require.NoError(t, p.Start(context.Background(), request("v1"), track("A")))
	store.Enqueue(testGuild, track("B"), track("C"))

	assert.True(t, p.Stop(testGuild))

	sess := voice.last(t)
	assert.Equal(t, 1, sess.disconnected)
	assert.Equal(t, []string{"A"}, sess.playedTitles())
	assert.Empty(t, store.List(testGuild))
	_, ok := store.NowPlaying(testGuild)
	assert.False(t, ok)
	assert.Equal(t, 1, notifier.idle)
	assert.False(t, p.IsPlaying(testGuild))
}

func TestPlayer_StopWithoutSessionKeepsQueue(t *testing.T) {
	p, store, _, notifier := newTestPlayer()
	store.Enqueue(testGuild, track("A"), track("B"))

	assert.False(t, p.Stop(testGuild))

	assert.Equal(t, []string{"A", "B"}, titlesOf(store.List(testGuild)))
	assert.Zero(t, notifier.idle)
}

func TestPlayer_StreamFailsMidTrack(t *testing.T) {
	p, store, voice, notifier := newTestPlayer()

	require.NoError(t, p.Start(context.Background(), request("v1"), track("A")))
	store.Enqueue(testGuild, track("B"))

	voice.last(t).finish(fmt.Errorf("%w: ffmpeg exit status 1: 403 Forbidden", common.ErrStreamFailure))

	assert.Equal(t, []string{"A"}, notifier.failed)
	current, ok := store.NowPlaying(testGuild)
	require.True(t, ok)
	assert.Equal(t, "B", current.Title)
	assert.Equal(t, []string{"A", "B"}, notifier.nowPlaying)
}

func TestPlayer_PlainErrorIsNotAnnounced(t *testing.T) {
	p, _, voice, notifier := newTestPlayer()

	require.NoError(t, p.Start(context.Background(), request("v1"), track("A")))
	voice.last(t).finish(errors.New("voice send stalled"))

	assert.Empty(t, notifier.failed)
	assert.False(t, p.IsPlaying(testGuild))
}

func TestPlayer_Play(t *testing.T) {
	p, store, voice, _ := newTestPlayer()

	queued, err := p.Play(context.Background(), request("v1"), track("A"))
	require.NoError(t, err)
	assert.False(t, queued)

	queued, err = p.Play(context.Background(), request("v1"), track("B"))
	require.NoError(t, err)
	assert.True(t, queued)

	assert.Equal(t, []string{"A"}, voice.last(t).playedTitles())
	assert.Equal(t, []string{"B"}, titlesOf(store.List(testGuild)))
}

func TestPlayer_PlayAll(t *testing.T) {
	p, store, voice, _ := newTestPlayer()

	started, err := p.PlayAll(context.Background(), request("v1"), []common.Track{track("A"), track("B")})
	require.NoError(t, err)
	assert.True(t, started)

	started, err = p.PlayAll(context.Background(), request("v1"), []common.Track{track("C")})
	require.NoError(t, err)
	assert.False(t, started)

	assert.Equal(t, []string{"A"}, voice.last(t).playedTitles())
	assert.Equal(t, []string{"B", "C"}, titlesOf(store.List(testGuild)))
}

func TestPlayer_PlayAllConnectFailureKeepsQueue(t *testing.T) {
	p, store, voice, _ := newTestPlayer()
	voice.connectErr = errors.New("gateway timeout")

	_, err := p.PlayAll(context.Background(), request("v1"), []common.Track{track("A")})
	assert.ErrorIs(t, err, common.ErrConnectFailure)
	assert.Equal(t, []string{"A"}, titlesOf(store.List(testGuild)))
}

// A track ending while another is requested must never strand the request
// in the queue with nothing playing.
func TestPlayer_PlayWhileTrackEnds(t *testing.T) {
	for i := 0; i < 200; i++ {
		p, store, voice, _ := newTestPlayer()
		require.NoError(t, p.Start(context.Background(), request("v1"), track("A")))
		sess := voice.last(t)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.finish(nil)
		}()

		_, err := p.Play(context.Background(), request("v1"), track("B"))
		require.NoError(t, err)
		wg.Wait()

		current, ok := store.NowPlaying(testGuild)
		require.True(t, ok, "iteration %d", i)
		assert.Equal(t, "B", current.Title)
		assert.Empty(t, store.List(testGuild))
		assert.True(t, p.IsPlaying(testGuild))
	}
}

func TestPlayer_ConnectFailure(t *testing.T) {
	p, store, voice, _ := newTestPlayer()
	voice.connectErr = errors.New("gateway timeout")

	err := p.Start(context.Background(), request("v1"), track("A"))
	assert.ErrorIs(t, err, common.ErrConnectFailure)

	_, ok := store.NowPlaying(testGuild)
	assert.False(t, ok)
	assert.False(t, p.IsPlaying(testGuild))
}

func TestPlayer_StreamFailureOnStart(t *testing.T) {
	p, store, voice, notifier := newTestPlayer()
	voice.fail = map[string]bool{"A": true}

	err := p.Start(context.Background(), request("v1"), track("A"))
	assert.ErrorIs(t, err, common.ErrStreamFailure)

	_, ok := store.NowPlaying(testGuild)
	assert.False(t, ok)
	assert.Empty(t, notifier.nowPlaying)
}

func TestPlayer_AdvanceSkipsBrokenTracks(t *testing.T) {
	p, store, voice, notifier := newTestPlayer()
	voice.fail = map[string]bool{"B": true, "C": true}
	store.Enqueue(testGuild, track("B"), track("C"), track("D"))

	require.NoError(t, p.StartQueue(context.Background(), request("v1")))

	assert.Equal(t, []string{"D"}, voice.last(t).playedTitles())
	assert.Equal(t, []string{"B", "C"}, notifier.failed)
	current, ok := store.NowPlaying(testGuild)
	require.True(t, ok)
	assert.Equal(t, "D", current.Title)
}

func TestPlayer_SwitchChannelIgnoresStaleCallback(t *testing.T) {
	p, store, voice, _ := newTestPlayer()

	require.NoError(t, p.Start(context.Background(), request("v1"), track("A")))
	first := voice.last(t)
	store.Enqueue(testGuild, track("B"))

	require.NoError(t, p.Start(context.Background(), request("v2"), track("C")))
	second := voice.last(t)

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, first.disconnected)
	assert.Equal(t, []string{"C"}, second.playedTitles())
	assert.Equal(t, []string{"B"}, titlesOf(store.List(testGuild)))
	current, _ := store.NowPlaying(testGuild)
	assert.Equal(t, "C", current.Title)
}

func TestPlayer_SameChannelReusesSession(t *testing.T) {
	p, _, voice, _ := newTestPlayer()

	require.NoError(t, p.Start(context.Background(), request("v1"), track("A")))
	require.NoError(t, p.Start(context.Background(), request("v1"), track("B")))

	assert.Len(t, voice.sessions, 1)
	assert.Equal(t, []string{"A", "B"}, voice.last(t).playedTitles())
}

func TestPlayer_Shutdown(t *testing.T) {
	p, _, voice, _ := newTestPlayer()

	require.NoError(t, p.Start(context.Background(), Request{GuildID: "g1", VoiceChannelID: "v1"}, track("A")))
	require.NoError(t, p.Start(context.Background(), Request{GuildID: "g2", VoiceChannelID: "v2"}, track("B")))

	p.Shutdown()

	for _, sess := range voice.sessions {
		assert.Equal(t, 1, sess.disconnected)
	}
	assert.False(t, p.IsPlaying("g1"))
	assert.False(t, p.IsPlaying("g2"))
}

func titlesOf(tracks []common.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}
